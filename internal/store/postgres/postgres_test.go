package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/jmallard/simwatch/internal/store"
)

func TestBuildQuery_ScenarioOnly(t *testing.T) {
	t.Parallel()
	q, args := buildQuery("hurricane-drill", store.Filter{})

	if !strings.Contains(q, "scenario = $1") {
		t.Errorf("query missing scenario condition:\n%s", q)
	}
	if strings.Contains(q, "domain =") || strings.Contains(q, "severity =") {
		t.Errorf("unexpected filter conditions:\n%s", q)
	}
	if !strings.Contains(q, "ORDER  BY ts") {
		t.Errorf("query missing ordering:\n%s", q)
	}
	if !strings.Contains(q, "LIMIT $2") {
		t.Errorf("query missing limit:\n%s", q)
	}
	if len(args) != 2 {
		t.Fatalf("args = %v, want 2", args)
	}
	if args[0] != "hurricane-drill" || args[1] != store.DefaultLimit {
		t.Errorf("args = %v", args)
	}
}

func TestBuildQuery_AllConditions(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)

	q, args := buildQuery("hurricane-drill", store.Filter{
		Domain:   store.DomainMedical,
		Severity: store.SeverityCritical,
		Start:    start,
		End:      end,
		Limit:    5,
	})

	for _, want := range []string{"domain = $2", "severity = $3", "ts >= $4", "ts <= $5", "LIMIT $6"} {
		if !strings.Contains(q, want) {
			t.Errorf("query missing %q:\n%s", want, q)
		}
	}
	want := []any{"hurricane-drill", "MEDICAL", "CRITICAL", start, end, 5}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %d values", args, len(want))
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %v, want %v", i, args[i], want[i])
		}
	}
}

func TestBuildQuery_PlaceholdersSequential(t *testing.T) {
	t.Parallel()
	// Severity without domain must still use $2, not skip a placeholder.
	q, args := buildQuery("scn", store.Filter{Severity: store.SeverityLow})

	if !strings.Contains(q, "severity = $2") {
		t.Errorf("severity placeholder not sequential:\n%s", q)
	}
	if len(args) != 3 {
		t.Fatalf("args = %v, want 3", args)
	}
	if args[1] != "LOW" {
		t.Errorf("args[1] = %v, want LOW", args[1])
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()
	if _, err := New(t.Context(), "", "scn"); err == nil {
		t.Error("expected error for empty dsn")
	}
	if _, err := New(t.Context(), "postgres://localhost/simwatch", ""); err == nil {
		t.Error("expected error for empty scenario")
	}
}
