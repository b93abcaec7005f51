package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rating refresh outcomes.
const (
	refreshOK        = "ok"
	refreshExhausted = "exhausted"
	refreshFailed    = "error"
)

// Toggle relations and outcomes.
const (
	relationFollow   = "follow"
	relationFavorite = "favorite"
	relationOpinion  = "opinion"

	toggleAdded     = "added"
	toggleRemoved   = "removed"
	toggleDuplicate = "duplicate"
	toggleMissing   = "missing"
)

var (
	ratingRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yorumator_rating_refresh_total",
			Help: "Rating aggregate refresh transactions by outcome",
		},
		[]string{"result"},
	)

	ratingRefreshRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yorumator_rating_refresh_retries_total",
			Help: "Rating refresh transactions re-run after a serialization failure, deadlock or lock timeout",
		},
	)

	toggleTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yorumator_toggle_total",
			Help: "Follow, favorite and opinion toggles by outcome",
		},
		[]string{"relation", "result"},
	)
)
