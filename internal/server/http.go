package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmallard/simwatch/internal/health"
	"github.com/jmallard/simwatch/internal/observe"
	"github.com/jmallard/simwatch/internal/store"
)

// HandlerConfig configures the HTTP surface.
type HandlerConfig struct {
	// Service is the shared core. Required.
	Service *Service

	// Health serves /healthz and /readyz. Required.
	Health *health.Handler

	// Metrics backs the observability middleware. Nil means
	// [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// APIKey, when non-empty, is required in the X-API-Key header of every
	// /v1 request.
	APIKey string

	// AllowedOrigins restricts CORS. Empty allows any origin.
	AllowedOrigins []string
}

// queryRequest is the body of POST /v1/query. SessionID is optional and
// purely cosmetic: it is echoed back (generated when absent) but never
// threaded into the model conversation.
type queryRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// sessionID returns the client-supplied session ID or a fresh one.
func sessionID(req queryRequest) string {
	if req.SessionID != "" {
		return req.SessionID
	}
	return uuid.NewString()
}

// NewHandler builds the full HTTP handler: API routes under /v1, health
// probes, and the Prometheus scrape endpoint.
func NewHandler(cfg HandlerConfig) (http.Handler, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("server: service must not be nil")
	}
	if cfg.Health == nil {
		return nil, fmt.Errorf("server: health handler must not be nil")
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}

	svc := cfg.Service
	api := http.NewServeMux()
	api.HandleFunc("POST /v1/query", func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("server: %w: decode body: %v", errBadRequest, err))
			return
		}
		answer, err := svc.Query(r.Context(), req.Message)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, answerResponse{Answer: answer, SessionID: sessionID(req)})
	})
	api.HandleFunc("GET /v1/incidents", func(w http.ResponseWriter, r *http.Request) {
		filter, err := incidentFilter(r.URL.Query().Get)
		if err != nil {
			writeError(w, r, err)
			return
		}
		fc, err := svc.Incidents(r.Context(), filter)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, fc)
	})
	api.HandleFunc("GET /v1/actions", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, svc.ListActions())
	})
	api.HandleFunc("POST /v1/actions/{name}", func(w http.ResponseWriter, r *http.Request) {
		answer, err := svc.RunAction(r.Context(), r.PathValue("name"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, answerResponse{Answer: answer})
	})

	mux := http.NewServeMux()
	mux.Handle("/v1/", apiKeyMiddleware(cfg.APIKey, api))
	cfg.Health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = corsMiddleware(cfg.AllowedOrigins, handler)
	handler = requestIDMiddleware(handler)
	handler = observe.Middleware(metrics)(handler)
	return handler, nil
}

// incidentFilter builds a store filter from request query parameters. get
// abstracts over url.Values and the API Gateway parameter map so both
// surfaces parse identically.
func incidentFilter(get func(string) string) (store.Filter, error) {
	var filter store.Filter
	if v := get("domain"); v != "" {
		d := store.Domain(v)
		if !d.IsValid() {
			return store.Filter{}, fmt.Errorf("server: %w: unknown domain %q", errBadRequest, v)
		}
		filter.Domain = d
	}
	if v := get("severity"); v != "" {
		s := store.Severity(v)
		if !s.IsValid() {
			return store.Filter{}, fmt.Errorf("server: %w: unknown severity %q", errBadRequest, v)
		}
		filter.Severity = s
	}
	if v := get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return store.Filter{}, fmt.Errorf("server: %w: invalid start %q", errBadRequest, v)
		}
		filter.Start = t
	}
	if v := get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return store.Filter{}, fmt.Errorf("server: %w: invalid end %q", errBadRequest, v)
		}
		filter.End = t
	}
	if v := get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return store.Filter{}, fmt.Errorf("server: %w: invalid limit %q", errBadRequest, v)
		}
		filter.Limit = n
	}
	return filter, nil
}

type ctxKey int

const requestIDKey ctxKey = iota

// requestIDMiddleware assigns each request an ID, honouring one supplied by
// an upstream proxy. The ID is echoed in the response and attached to error
// logs so a client report can be matched to a log line.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestID returns the request ID stamped by requestIDMiddleware, or "".
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// apiKeyMiddleware rejects /v1 requests without the configured key. A blank
// key disables the check.
func apiKeyMiddleware(key string, next http.Handler) http.Handler {
	if key == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != key {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing or invalid API key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware answers preflight requests and stamps CORS headers. The
// upstream deployment serves a browser map client from another origin, so
// an empty allowlist means wildcard.
func corsMiddleware(allowed []string, next http.Handler) http.Handler {
	allowOrigin := func(origin string) string {
		if len(allowed) == 0 {
			return "*"
		}
		for _, a := range allowed {
			if a == origin {
				return origin
			}
		}
		return ""
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			if allow := allowOrigin(origin); allow != "" {
				w.Header().Set("Access-Control-Allow-Origin", allow)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
