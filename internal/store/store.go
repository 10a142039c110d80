// Package store defines the incident dataset model and the Store interface
// implemented by the DynamoDB, PostgreSQL, and in-memory backends.
//
// The dataset is pre-generated simulation output: a fixed timeline of
// incident events per scenario. Stores are read-only from the service's point
// of view — population happens out of band.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups for a missing scenario or incident.
var ErrNotFound = errors.New("store: not found")

// Domain categorises an incident by response discipline.
type Domain string

const (
	DomainMedical       Domain = "MEDICAL"
	DomainFire          Domain = "FIRE"
	DomainLogistics     Domain = "LOGISTICS"
	DomainCommunication Domain = "COMMUNICATION"
	DomainStructural    Domain = "STRUCTURAL"
)

// IsValid reports whether d is a recognised domain.
func (d Domain) IsValid() bool {
	switch d {
	case DomainMedical, DomainFire, DomainLogistics, DomainCommunication, DomainStructural:
		return true
	}
	return false
}

// Domains lists all recognised domain values, for schema generation and
// validation messages.
func Domains() []Domain {
	return []Domain{DomainMedical, DomainFire, DomainLogistics, DomainCommunication, DomainStructural}
}

// Severity ranks an incident's urgency.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// IsValid reports whether s is a recognised severity.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Severities lists all recognised severity values.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// Incident is one event on the simulation timeline.
type Incident struct {
	// ID uniquely identifies the incident within its scenario.
	ID string `json:"id" dynamodbav:"id"`

	// Scenario names the simulation run this incident belongs to.
	Scenario string `json:"scenario,omitempty" dynamodbav:"scenario"`

	// Timestamp is the simulated occurrence time.
	Timestamp time.Time `json:"timestamp" dynamodbav:"timestamp"`

	Domain   Domain   `json:"domain" dynamodbav:"domain"`
	Severity Severity `json:"severity" dynamodbav:"severity"`

	// Title is a one-line summary; Description carries the full narrative.
	Title       string `json:"title" dynamodbav:"title"`
	Description string `json:"description,omitempty" dynamodbav:"description"`

	// Latitude/Longitude locate the incident (WGS 84).
	Latitude  float64 `json:"latitude" dynamodbav:"latitude"`
	Longitude float64 `json:"longitude" dynamodbav:"longitude"`

	// Status is the incident's lifecycle state (e.g., "ACTIVE", "RESOLVED").
	Status string `json:"status,omitempty" dynamodbav:"status"`
}

// Filter narrows a timeline query. Zero-valued fields match everything.
type Filter struct {
	// Domain restricts results to one response discipline.
	Domain Domain

	// Severity restricts results to one urgency level.
	Severity Severity

	// Start/End bound the simulated occurrence time (inclusive start,
	// inclusive end). Zero values leave the corresponding side open.
	Start time.Time
	End   time.Time

	// Limit caps the number of returned records. Zero means
	// [DefaultLimit]; values above [MaxLimit] are clamped.
	Limit int
}

const (
	// DefaultLimit is applied when a filter does not specify a limit.
	DefaultLimit = 20

	// MaxLimit is the hard cap on records returned by a single query,
	// keeping tool results within reach of the truncation budget.
	MaxLimit = 100
)

// EffectiveLimit returns the limit to apply after defaulting and clamping.
func (f Filter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLimit
	case f.Limit > MaxLimit:
		return MaxLimit
	default:
		return f.Limit
	}
}

// Matches reports whether inc satisfies every set field of f. Shared by the
// in-memory store and by backends that post-filter scanned pages.
func (f Filter) Matches(inc Incident) bool {
	if f.Domain != "" && inc.Domain != f.Domain {
		return false
	}
	if f.Severity != "" && inc.Severity != f.Severity {
		return false
	}
	if !f.Start.IsZero() && inc.Timestamp.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && inc.Timestamp.After(f.End) {
		return false
	}
	return true
}

// Store is the read interface over the incident dataset.
//
// Implementations must be safe for concurrent use and must return incidents
// ordered by timestamp ascending.
type Store interface {
	// Query returns the incidents matching filter, oldest first.
	Query(ctx context.Context, filter Filter) ([]Incident, error)

	// Ping verifies connectivity to the backing datastore. Used by the
	// readiness probe.
	Ping(ctx context.Context) error
}
