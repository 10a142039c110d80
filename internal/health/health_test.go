package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) probeResult {
	t.Helper()
	var res probeResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal body %q: %v", rec.Body.String(), err)
	}
	return res
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	h := New(Checker{Name: "broken", Check: func(context.Context) error {
		return errors.New("down")
	}})

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest("GET", "/healthz", nil))

	// Liveness ignores checker state entirely.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if res := decodeBody(t, rec); res.Status != "ok" {
		t.Errorf("status field = %q", res.Status)
	}
}

func TestReadyz_AllPass(t *testing.T) {
	t.Parallel()
	h := New(
		Checker{Name: "store", Check: func(context.Context) error { return nil }},
		Checker{Name: "provider", Check: func(context.Context) error { return nil }},
	)

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	res := decodeBody(t, rec)
	if res.Status != "ok" {
		t.Errorf("status field = %q", res.Status)
	}
	if res.Checks["store"] != "ok" || res.Checks["provider"] != "ok" {
		t.Errorf("checks = %v", res.Checks)
	}
}

func TestReadyz_OneFails(t *testing.T) {
	t.Parallel()
	h := New(
		Checker{Name: "store", Check: func(context.Context) error {
			return errors.New("connection refused")
		}},
		Checker{Name: "provider", Check: func(context.Context) error { return nil }},
	)

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	res := decodeBody(t, rec)
	if res.Status != "fail" {
		t.Errorf("status field = %q", res.Status)
	}
	if res.Checks["store"] != "fail: connection refused" {
		t.Errorf("store check = %q", res.Checks["store"])
	}
	if res.Checks["provider"] != "ok" {
		t.Errorf("provider check = %q", res.Checks["provider"])
	}
}

func TestReadyz_NoCheckers(t *testing.T) {
	t.Parallel()
	h := New()

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with no checkers", rec.Code)
	}
}

func TestReadyz_CheckerGetsDeadline(t *testing.T) {
	t.Parallel()
	h := New(Checker{Name: "slow", Check: func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("no deadline set")
		}
		return nil
	}})

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	New().Register(mux)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}
