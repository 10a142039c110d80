package store_test

import (
	"testing"
	"time"

	"github.com/jmallard/simwatch/internal/store"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFilter_Matches(t *testing.T) {
	t.Parallel()
	inc := store.Incident{
		ID:        "evt-1",
		Timestamp: ts("2026-03-02T10:00:00Z"),
		Domain:    store.DomainMedical,
		Severity:  store.SeverityCritical,
	}

	tests := []struct {
		name   string
		filter store.Filter
		want   bool
	}{
		{"empty filter matches", store.Filter{}, true},
		{"domain match", store.Filter{Domain: store.DomainMedical}, true},
		{"domain mismatch", store.Filter{Domain: store.DomainFire}, false},
		{"severity match", store.Filter{Severity: store.SeverityCritical}, true},
		{"severity mismatch", store.Filter{Severity: store.SeverityLow}, false},
		{"inside time range", store.Filter{Start: ts("2026-03-02T09:00:00Z"), End: ts("2026-03-02T11:00:00Z")}, true},
		{"before start", store.Filter{Start: ts("2026-03-02T10:30:00Z")}, false},
		{"after end", store.Filter{End: ts("2026-03-02T09:30:00Z")}, false},
		{"start boundary inclusive", store.Filter{Start: ts("2026-03-02T10:00:00Z")}, true},
		{"end boundary inclusive", store.Filter{End: ts("2026-03-02T10:00:00Z")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.filter.Matches(inc); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_EffectiveLimit(t *testing.T) {
	t.Parallel()
	tests := []struct {
		limit int
		want  int
	}{
		{0, store.DefaultLimit},
		{-5, store.DefaultLimit},
		{1, 1},
		{store.MaxLimit, store.MaxLimit},
		{store.MaxLimit + 1, store.MaxLimit},
	}
	for _, tt := range tests {
		if got := (store.Filter{Limit: tt.limit}).EffectiveLimit(); got != tt.want {
			t.Errorf("EffectiveLimit(%d) = %d, want %d", tt.limit, got, tt.want)
		}
	}
}

func TestDomain_IsValid(t *testing.T) {
	t.Parallel()
	for _, d := range store.Domains() {
		if !d.IsValid() {
			t.Errorf("%q should be valid", d)
		}
	}
	if store.Domain("NAVAL").IsValid() {
		t.Error("NAVAL should not be valid")
	}
	if store.Domain("medical").IsValid() {
		t.Error("lowercase medical should not be valid")
	}
}

func TestSeverity_IsValid(t *testing.T) {
	t.Parallel()
	for _, s := range store.Severities() {
		if !s.IsValid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if store.Severity("EXTREME").IsValid() {
		t.Error("EXTREME should not be valid")
	}
}
