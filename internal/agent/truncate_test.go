package agent

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate_UnderBudget(t *testing.T) {
	t.Parallel()
	got, cut := truncate("short", 100)
	if cut {
		t.Error("under-budget string should not be cut")
	}
	if got != "short" {
		t.Errorf("got %q", got)
	}
}

func TestTruncate_ExactBudget(t *testing.T) {
	t.Parallel()
	s := strings.Repeat("a", 100)
	got, cut := truncate(s, 100)
	if cut {
		t.Error("exactly-at-budget string must not be marked truncated")
	}
	if got != s {
		t.Errorf("got %q", got)
	}
}

func TestTruncate_OneByteOver(t *testing.T) {
	t.Parallel()
	s := strings.Repeat("a", 101)
	got, cut := truncate(s, 100)
	if !cut {
		t.Fatal("one byte over budget must be truncated")
	}
	if !strings.HasSuffix(got, truncationMarker) {
		t.Errorf("truncated string must end with the marker, got %q", got)
	}
	if got[:100] != strings.Repeat("a", 100) {
		t.Errorf("kept prefix = %q", got[:100])
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	t.Parallel()
	// "é" is two bytes; a budget landing mid-rune must back up.
	s := strings.Repeat("é", 60)
	got, cut := truncate(s, 101)
	if !cut {
		t.Fatal("expected truncation")
	}
	kept := strings.TrimSuffix(got, truncationMarker)
	if !utf8.ValidString(kept) {
		t.Errorf("kept prefix is not valid UTF-8: %q", kept)
	}
	if len(kept) != 100 {
		t.Errorf("kept prefix = %d bytes, want 100 (backed up to rune boundary)", len(kept))
	}
}

func TestTruncate_Empty(t *testing.T) {
	t.Parallel()
	got, cut := truncate("", 10)
	if cut || got != "" {
		t.Errorf("got %q, cut=%v", got, cut)
	}
}
