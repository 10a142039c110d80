package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jmallard/simwatch/internal/actions"
)

// LambdaHandler adapts the [Service] to API Gateway proxy events. It serves
// the same /v1 routes as the HTTP handler.
type LambdaHandler struct {
	service *Service
	apiKey  string
}

// NewLambdaHandler builds the Lambda adapter.
func NewLambdaHandler(service *Service, apiKey string) (*LambdaHandler, error) {
	if service == nil {
		return nil, errors.New("server: service must not be nil")
	}
	return &LambdaHandler{service: service, apiKey: apiKey}, nil
}

// Handle processes one API Gateway proxy request. It never returns an error:
// failures become proxy responses with the same status mapping as the HTTP
// surface, so API Gateway does not replace the body with its own 502.
func (h *LambdaHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod == http.MethodOptions {
		return proxyResponse(http.StatusNoContent, nil), nil
	}

	if h.apiKey != "" && req.Headers["x-api-key"] != h.apiKey && req.Headers["X-API-Key"] != h.apiKey {
		return proxyJSON(http.StatusUnauthorized, errorResponse{Error: "missing or invalid API key"}), nil
	}

	switch {
	case req.HTTPMethod == http.MethodPost && req.Path == "/v1/query":
		var body queryRequest
		if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
			return proxyJSON(http.StatusBadRequest, errorResponse{Error: "invalid request"}), nil
		}
		answer, err := h.service.Query(ctx, body.Message)
		if err != nil {
			return h.errorResponse(ctx, req.Path, err), nil
		}
		return proxyJSON(http.StatusOK, answerResponse{Answer: answer, SessionID: sessionID(body)}), nil

	case req.HTTPMethod == http.MethodGet && req.Path == "/v1/incidents":
		filter, err := incidentFilter(func(k string) string { return req.QueryStringParameters[k] })
		if err != nil {
			return h.errorResponse(ctx, req.Path, err), nil
		}
		fc, err := h.service.Incidents(ctx, filter)
		if err != nil {
			return h.errorResponse(ctx, req.Path, err), nil
		}
		return proxyJSON(http.StatusOK, fc), nil

	case req.HTTPMethod == http.MethodGet && req.Path == "/v1/actions":
		return proxyJSON(http.StatusOK, h.service.ListActions()), nil

	case req.HTTPMethod == http.MethodPost && strings.HasPrefix(req.Path, "/v1/actions/"):
		name := strings.TrimPrefix(req.Path, "/v1/actions/")
		answer, err := h.service.RunAction(ctx, name)
		if err != nil {
			return h.errorResponse(ctx, req.Path, err), nil
		}
		return proxyJSON(http.StatusOK, answerResponse{Answer: answer}), nil

	default:
		return proxyJSON(http.StatusNotFound, errorResponse{Error: "not found"}), nil
	}
}

// errorResponse maps a service error onto a proxy response, mirroring
// writeError on the HTTP side.
func (h *LambdaHandler) errorResponse(ctx context.Context, path string, err error) events.APIGatewayProxyResponse {
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

	slog.ErrorContext(ctx, "request failed",
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()))

	return proxyJSON(status, errorResponse{
		Error:       publicMessage(status),
		ShouldRetry: retry,
	})
}

// proxyJSON marshals v as the proxy response body.
func proxyJSON(status int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return proxyResponse(http.StatusInternalServerError, []byte(`{"error":"encoding failure"}`))
	}
	return proxyResponse(status, body)
}

func proxyResponse(status int, body []byte) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                 "application/json; charset=utf-8",
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
			"Access-Control-Allow-Headers": "Content-Type, X-API-Key",
		},
		Body: string(body),
	}
}
