package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/emrahgewer/yorumatorapp/pkg/errors"
)

// maxErrorBody bounds how much of an error body is read.
const maxErrorBody = 64 << 10

// downstreamError mirrors the httputil error envelope.
type downstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// turns it into an AppError. Structured error envelopes keep their code;
// anything else is reported with the raw body.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", service, resp.StatusCode, err)
	}

	code, message := "", string(body)
	var env downstreamError
	if json.Unmarshal(body, &env) == nil && env.Error != nil {
		code, message = env.Error.Code, env.Error.Message
	}
	message = service + ": " + message

	var appErr *apperrors.AppError
	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		appErr = apperrors.InvalidInput(message)
	case resp.StatusCode == http.StatusUnauthorized:
		appErr = apperrors.Unauthorized(message)
	case resp.StatusCode == http.StatusForbidden:
		appErr = apperrors.Forbidden(message)
	case resp.StatusCode == http.StatusNotFound:
		appErr = apperrors.NotFound(service+" resource", requestPath(resp))
	case resp.StatusCode == http.StatusConflict:
		appErr = apperrors.Conflict(message)
	case resp.StatusCode >= 500:
		return apperrors.Unavailable(message, fmt.Errorf("%s returned status %d", service, resp.StatusCode))
	default:
		return fmt.Errorf("%s returned unexpected status %d: %s", service, resp.StatusCode, message)
	}
	if code != "" {
		appErr = appErr.WithCode(code)
	}
	return appErr
}

func requestPath(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil {
		return ""
	}
	return resp.Request.URL.Path
}
