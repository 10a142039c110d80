package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmallard/simwatch/internal/store"
	"github.com/jmallard/simwatch/internal/store/memstore"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func seed() *memstore.MemStore {
	return memstore.New(
		store.Incident{ID: "evt-3", Timestamp: ts("2026-03-02T12:00:00Z"), Domain: store.DomainFire, Severity: store.SeverityHigh},
		store.Incident{ID: "evt-1", Timestamp: ts("2026-03-02T08:00:00Z"), Domain: store.DomainMedical, Severity: store.SeverityCritical},
		store.Incident{ID: "evt-2", Timestamp: ts("2026-03-02T10:00:00Z"), Domain: store.DomainMedical, Severity: store.SeverityLow},
	)
}

func TestQuery_OrderedByTimestamp(t *testing.T) {
	t.Parallel()
	s := seed()

	got, err := s.Query(context.Background(), store.Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"evt-1", "evt-2", "evt-3"} {
		if got[i].ID != want {
			t.Errorf("got[%d].ID = %q, want %q", i, got[i].ID, want)
		}
	}
}

func TestQuery_Filtered(t *testing.T) {
	t.Parallel()
	s := seed()

	got, err := s.Query(context.Background(), store.Filter{
		Domain:   store.DomainMedical,
		Severity: store.SeverityCritical,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].ID != "evt-1" {
		t.Errorf("got = %+v, want only evt-1", got)
	}
}

func TestQuery_LimitApplied(t *testing.T) {
	t.Parallel()
	s := seed()

	got, err := s.Query(context.Background(), store.Filter{Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestQuery_CancelledContext(t *testing.T) {
	t.Parallel()
	s := seed()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Query(ctx, store.Filter{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestPing(t *testing.T) {
	t.Parallel()
	if err := memstore.New().Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
