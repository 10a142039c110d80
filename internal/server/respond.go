package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jmallard/simwatch/internal/actions"
	"github.com/jmallard/simwatch/internal/resilience"
	"github.com/jmallard/simwatch/pkg/provider/llm"
)

// errBadRequest marks request-shape problems caught before the loop runs.
var errBadRequest = errors.New("bad request")

// answerResponse is the success body for query and action endpoints.
// SessionID is echoed for client bookkeeping only; every request starts a
// fresh conversation regardless.
type answerResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"sessionId,omitempty"`
}

// errorResponse is the failure body. ShouldRetry tells clients whether the
// same request may succeed later — throttling and transient outages do,
// validation and auth failures never will.
type errorResponse struct {
	Error       string `json:"error"`
	ShouldRetry bool   `json:"shouldRetry"`
}

// writeJSON encodes v with the given status code. On encoding failure it
// falls back to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failure"}`, http.StatusInternalServerError)
	}
}

// writeError maps err to an HTTP status and retry hint.
//
// The loop has already converted everything recoverable (tool failures,
// exhausted iterations, missing text) into ordinary 200 answers before this
// point, so the errors landing here are transport-level: chat provider
// failures, unknown actions, and malformed requests.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	retry := false

	switch {
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, actions.ErrNotFound):
		status = http.StatusNotFound
	default:
		status, retry = providerStatus(err)
	}

	slog.ErrorContext(r.Context(), "request failed",
		slog.String("path", r.URL.Path),
		slog.String("request_id", requestID(r.Context())),
		slog.Int("status", status),
		slog.String("error", err.Error()))

	writeJSON(w, status, errorResponse{
		Error:       publicMessage(status),
		ShouldRetry: retry,
	})
}

// providerStatus maps a classified chat provider error to status + retry.
func providerStatus(err error) (int, bool) {
	switch llm.KindOf(err) {
	case llm.KindAccessDenied:
		return http.StatusForbidden, false
	case llm.KindThrottled:
		return http.StatusTooManyRequests, true
	case llm.KindTimeout:
		return http.StatusGatewayTimeout, true
	case llm.KindValidation:
		return http.StatusBadRequest, false
	case llm.KindNotFound:
		return http.StatusNotFound, false
	case llm.KindUnavailable:
		return http.StatusServiceUnavailable, true
	default:
		// An open breaker or an exhausted fallback chain with no
		// classified cause is a transient outage, not a client fault.
		if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrAllFailed) {
			return http.StatusServiceUnavailable, true
		}
		return http.StatusInternalServerError, false
	}
}

// publicMessage keeps provider internals out of client-facing bodies.
func publicMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusForbidden:
		return "access to the language model was denied"
	case http.StatusNotFound:
		return "not found"
	case http.StatusTooManyRequests:
		return "the service is being throttled, retry shortly"
	case http.StatusGatewayTimeout:
		return "the language model timed out"
	case http.StatusServiceUnavailable:
		return "the service is temporarily unavailable"
	default:
		return "internal error"
	}
}
