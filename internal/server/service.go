// Package server exposes the simwatch query service over HTTP and AWS
// Lambda. Both surfaces share one [Service] core; the adapters only
// translate between transport shapes and service calls.
package server

import (
	"context"
	"fmt"

	"github.com/jmallard/simwatch/internal/actions"
	"github.com/jmallard/simwatch/internal/store"
)

// Runner executes one conversation from a user message to a final answer.
// Satisfied by [github.com/jmallard/simwatch/internal/agent.Loop].
type Runner interface {
	Run(ctx context.Context, userMessage string) (string, error)
}

// Service is the transport-independent core shared by the HTTP server and
// the Lambda handler.
type Service struct {
	queries   Runner
	catalog   *actions.Catalog
	incidents store.Store
}

// NewService builds a Service over the interactive query loop, the
// pre-defined action catalog, and the incident store backing the map data
// endpoint.
func NewService(queries Runner, catalog *actions.Catalog, incidents store.Store) (*Service, error) {
	if queries == nil {
		return nil, fmt.Errorf("server: query runner must not be nil")
	}
	if catalog == nil {
		return nil, fmt.Errorf("server: action catalog must not be nil")
	}
	if incidents == nil {
		return nil, fmt.Errorf("server: incident store must not be nil")
	}
	return &Service{queries: queries, catalog: catalog, incidents: incidents}, nil
}

// Query answers a free-form natural-language question.
func (s *Service) Query(ctx context.Context, message string) (string, error) {
	if message == "" {
		return "", fmt.Errorf("server: %w: message must not be empty", errBadRequest)
	}
	answer, err := s.queries.Run(ctx, message)
	if err != nil {
		return "", fmt.Errorf("server: query: %w", err)
	}
	return answer, nil
}

// RunAction executes a pre-defined action by name.
func (s *Service) RunAction(ctx context.Context, name string) (string, error) {
	return s.catalog.Run(ctx, name)
}

// ListActions returns the available pre-defined actions.
func (s *Service) ListActions() []actions.Action {
	return s.catalog.List()
}

// Incidents returns filtered incident records as a GeoJSON
// FeatureCollection, the shape the map frontend plots directly.
func (s *Service) Incidents(ctx context.Context, filter store.Filter) (store.FeatureCollection, error) {
	incidents, err := s.incidents.Query(ctx, filter)
	if err != nil {
		return store.FeatureCollection{}, fmt.Errorf("server: incidents: %w", err)
	}
	return store.ToGeoJSON(incidents), nil
}
