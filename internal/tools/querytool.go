// Package tools implements the tool surface the agent loop exposes to the
// model. One tool exists: queryDatabase, a read-only filtered lookup over
// the incident dataset.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmallard/simwatch/internal/store"
	"github.com/jmallard/simwatch/pkg/provider/llm"
)

// QueryToolName is the tool name declared to the model.
const QueryToolName = "queryDatabase"

// QueryTool executes queryDatabase calls against a Store. All fields of the
// tool's input contract are optional; an empty input returns the most recent
// incidents up to the default limit.
type QueryTool struct {
	store store.Store
}

// NewQueryTool returns a QueryTool backed by s.
func NewQueryTool(s store.Store) (*QueryTool, error) {
	if s == nil {
		return nil, fmt.Errorf("tools: store must not be nil")
	}
	return &QueryTool{store: s}, nil
}

// Name returns the tool name.
func (q *QueryTool) Name() string { return QueryToolName }

// Definition returns the tool declaration sent to the model. The schema is
// static for the process lifetime.
func (q *QueryTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name: QueryToolName,
		Description: "Query the disaster simulation incident database. " +
			"All filters are optional; results are ordered by timestamp ascending.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"domain": map[string]any{
					"type":        "string",
					"enum":        enumValues(store.Domains()),
					"description": "Restrict results to one incident domain.",
				},
				"severity": map[string]any{
					"type":        "string",
					"enum":        enumValues(store.Severities()),
					"description": "Restrict results to one severity level.",
				},
				"startTime": map[string]any{
					"type":        "string",
					"description": "Earliest incident timestamp to include, RFC 3339 (e.g. 2026-03-02T08:00:00Z).",
				},
				"endTime": map[string]any{
					"type":        "string",
					"description": "Latest incident timestamp to include, RFC 3339.",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": fmt.Sprintf("Maximum number of incidents to return (default %d, max %d).", store.DefaultLimit, store.MaxLimit),
				},
			},
		},
	}
}

// queryArgs is the wire shape of the model's tool input.
type queryArgs struct {
	Domain    string `json:"domain"`
	Severity  string `json:"severity"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Limit     int    `json:"limit"`
}

// Execute parses and validates the raw tool input, runs the query, and
// returns the matching incidents serialized as JSON. Validation and store
// failures come back as ordinary errors; the agent loop is responsible for
// absorbing them into the conversation.
func (q *QueryTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	filter, err := parseArgs(input)
	if err != nil {
		return "", err
	}

	incidents, err := q.store.Query(ctx, filter)
	if err != nil {
		return "", fmt.Errorf("tools: query incidents: %w", err)
	}

	payload := struct {
		Count     int              `json:"count"`
		Incidents []store.Incident `json:"incidents"`
	}{
		Count:     len(incidents),
		Incidents: incidents,
	}
	if payload.Incidents == nil {
		payload.Incidents = []store.Incident{}
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("tools: marshal result: %w", err)
	}
	return string(out), nil
}

// parseArgs decodes and validates the model-supplied arguments into a
// store.Filter.
func parseArgs(input json.RawMessage) (store.Filter, error) {
	var args queryArgs
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return store.Filter{}, fmt.Errorf("tools: invalid queryDatabase input: %w", err)
		}
	}

	var filter store.Filter
	if args.Domain != "" {
		d := store.Domain(args.Domain)
		if !d.IsValid() {
			return store.Filter{}, fmt.Errorf("tools: unknown domain %q (valid: %v)", args.Domain, store.Domains())
		}
		filter.Domain = d
	}
	if args.Severity != "" {
		s := store.Severity(args.Severity)
		if !s.IsValid() {
			return store.Filter{}, fmt.Errorf("tools: unknown severity %q (valid: %v)", args.Severity, store.Severities())
		}
		filter.Severity = s
	}
	if args.StartTime != "" {
		t, err := time.Parse(time.RFC3339, args.StartTime)
		if err != nil {
			return store.Filter{}, fmt.Errorf("tools: invalid startTime %q: %w", args.StartTime, err)
		}
		filter.Start = t
	}
	if args.EndTime != "" {
		t, err := time.Parse(time.RFC3339, args.EndTime)
		if err != nil {
			return store.Filter{}, fmt.Errorf("tools: invalid endTime %q: %w", args.EndTime, err)
		}
		filter.End = t
	}
	if !filter.Start.IsZero() && !filter.End.IsZero() && filter.End.Before(filter.Start) {
		return store.Filter{}, fmt.Errorf("tools: endTime %s precedes startTime %s", args.EndTime, args.StartTime)
	}
	if args.Limit < 0 {
		return store.Filter{}, fmt.Errorf("tools: limit must not be negative, got %d", args.Limit)
	}
	filter.Limit = args.Limit

	return filter, nil
}

func enumValues[T ~string](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}
