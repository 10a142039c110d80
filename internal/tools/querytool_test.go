package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
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

func testStore() *memstore.MemStore {
	return memstore.New(
		store.Incident{ID: "evt-1", Timestamp: ts("2026-03-02T08:00:00Z"), Domain: store.DomainMedical, Severity: store.SeverityCritical, Title: "Field hospital overrun"},
		store.Incident{ID: "evt-2", Timestamp: ts("2026-03-02T10:00:00Z"), Domain: store.DomainFire, Severity: store.SeverityHigh, Title: "Warehouse fire"},
	)
}

func TestNewQueryTool_NilStore(t *testing.T) {
	t.Parallel()
	if _, err := NewQueryTool(nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestDefinition(t *testing.T) {
	t.Parallel()
	tool, err := NewQueryTool(testStore())
	if err != nil {
		t.Fatalf("NewQueryTool: %v", err)
	}

	def := tool.Definition()
	if def.Name != "queryDatabase" {
		t.Errorf("Name = %q", def.Name)
	}

	props, ok := def.InputSchema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("schema has no properties: %v", def.InputSchema)
	}
	for _, field := range []string{"domain", "severity", "startTime", "endTime", "limit"} {
		if _, ok := props[field]; !ok {
			t.Errorf("schema missing field %q", field)
		}
	}

	domain := props["domain"].(map[string]any)
	enum := domain["enum"].([]string)
	if len(enum) != len(store.Domains()) {
		t.Errorf("domain enum = %v", enum)
	}
}

func TestExecute(t *testing.T) {
	t.Parallel()
	tool, err := NewQueryTool(testStore())
	if err != nil {
		t.Fatalf("NewQueryTool: %v", err)
	}

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"domain":"MEDICAL","severity":"CRITICAL"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var result struct {
		Count     int              `json:"count"`
		Incidents []store.Incident `json:"incidents"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.Count != 1 || len(result.Incidents) != 1 {
		t.Fatalf("result = %+v", result)
	}
	if result.Incidents[0].ID != "evt-1" {
		t.Errorf("incident = %+v", result.Incidents[0])
	}
}

func TestExecute_EmptyInput(t *testing.T) {
	t.Parallel()
	tool, _ := NewQueryTool(testStore())

	out, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var result struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.Count != 2 {
		t.Errorf("count = %d, want 2", result.Count)
	}
}

func TestExecute_NoMatches(t *testing.T) {
	t.Parallel()
	tool, _ := NewQueryTool(testStore())

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"domain":"LOGISTICS"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// Empty result must serialise as [] so the model sees an explicit
	// empty list, not null.
	if !strings.Contains(out, `"incidents":[]`) {
		t.Errorf("output = %s", out)
	}
}

func TestParseArgs(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		want    store.Filter
		wantErr bool
	}{
		{
			name:  "all fields",
			input: `{"domain":"FIRE","severity":"HIGH","startTime":"2026-03-02T08:00:00Z","endTime":"2026-03-02T18:00:00Z","limit":5}`,
			want: store.Filter{
				Domain:   store.DomainFire,
				Severity: store.SeverityHigh,
				Start:    ts("2026-03-02T08:00:00Z"),
				End:      ts("2026-03-02T18:00:00Z"),
				Limit:    5,
			},
		},
		{name: "empty object", input: `{}`, want: store.Filter{}},
		{name: "unknown domain", input: `{"domain":"NAVAL"}`, wantErr: true},
		{name: "lowercase domain", input: `{"domain":"medical"}`, wantErr: true},
		{name: "unknown severity", input: `{"severity":"EXTREME"}`, wantErr: true},
		{name: "bad start time", input: `{"startTime":"yesterday"}`, wantErr: true},
		{name: "bad end time", input: `{"endTime":"03/02/2026"}`, wantErr: true},
		{name: "end before start", input: `{"startTime":"2026-03-02T18:00:00Z","endTime":"2026-03-02T08:00:00Z"}`, wantErr: true},
		{name: "negative limit", input: `{"limit":-1}`, wantErr: true},
		{name: "malformed json", input: `{"domain":`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseArgs(json.RawMessage(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseArgs: %v", err)
			}
			if got.Domain != tt.want.Domain || got.Severity != tt.want.Severity ||
				!got.Start.Equal(tt.want.Start) || !got.End.Equal(tt.want.End) ||
				got.Limit != tt.want.Limit {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

// failingStore always errors; used to check store failures surface as
// ordinary error returns.
type failingStore struct{}

func (failingStore) Query(context.Context, store.Filter) ([]store.Incident, error) {
	return nil, errors.New("connection reset")
}
func (failingStore) Ping(context.Context) error { return nil }

func TestExecute_StoreError(t *testing.T) {
	t.Parallel()
	tool, err := NewQueryTool(failingStore{})
	if err != nil {
		t.Fatalf("NewQueryTool: %v", err)
	}
	if _, err := tool.Execute(context.Background(), json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected store error to propagate")
	}
}
