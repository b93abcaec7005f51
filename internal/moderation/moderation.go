// Package moderation calls the external review-moderation scorer.
package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/pkg/httpclient"
)

const breakerName = "moderation"

// Scorer rates review text. Implementations always return a usable
// verdict; a non-nil error means the verdict is a fallback.
type Scorer interface {
	Score(ctx context.Context, text string) (domain.ModerationVerdict, error)
}

// FallbackVerdict is used whenever the scorer cannot answer. It holds the
// review for manual moderation.
func FallbackVerdict() domain.ModerationVerdict {
	return domain.ModerationVerdict{RequiresReview: true, Fallback: true}
}

type scoreRequest struct {
	Text string `json:"text"`
}

type scoreResponse struct {
	Toxicity       float64 `json:"toxicity"`
	Spam           float64 `json:"spam"`
	RequiresReview bool    `json:"requires_review"`
}

// Client scores text over HTTP behind a circuit breaker.
type Client struct {
	http   *httpclient.CircuitBreakerClient
	url    string
	logger *slog.Logger
}

// NewClient creates a scorer client for url.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = timeout
	cfg.MaxRetries = 1

	return NewClientWith(httpclient.New(cfg), url, httpclient.DefaultCircuitBreakerConfig(breakerName), logger)
}

// NewClientWith creates a scorer client over an existing HTTP client.
func NewClientWith(client *httpclient.Client, url string, cb httpclient.CircuitBreakerConfig, logger *slog.Logger) *Client {
	return &Client{
		http:   httpclient.NewCircuitBreakerClient(client, cb, logger),
		url:    url,
		logger: logger,
	}
}

// Score posts text to the scorer. On any failure, including an open
// breaker, it returns FallbackVerdict together with the cause.
func (c *Client) Score(ctx context.Context, text string) (domain.ModerationVerdict, error) {
	var resp scoreResponse
	if err := c.http.PostJSON(ctx, c.url, scoreRequest{Text: text}, &resp); err != nil {
		return FallbackVerdict(), fmt.Errorf("score review text: %w", err)
	}

	return domain.ModerationVerdict{
		Toxicity:       resp.Toxicity,
		Spam:           resp.Spam,
		RequiresReview: resp.RequiresReview,
	}, nil
}

// Noop approves everything. It is used when no scorer URL is configured.
type Noop struct{}

// Score returns an approving verdict.
func (Noop) Score(context.Context, string) (domain.ModerationVerdict, error) {
	return domain.ModerationVerdict{}, nil
}
