// Package postgres provides a PostgreSQL-backed implementation of
// [store.Store] for local development, where standing up DynamoDB is more
// friction than a docker-compose database.
//
// Expected schema:
//
//	CREATE TABLE incidents (
//	    id          TEXT NOT NULL,
//	    scenario    TEXT NOT NULL,
//	    ts          TIMESTAMPTZ NOT NULL,
//	    domain      TEXT NOT NULL,
//	    severity    TEXT NOT NULL,
//	    title       TEXT NOT NULL,
//	    description TEXT NOT NULL DEFAULT '',
//	    latitude    DOUBLE PRECISION NOT NULL,
//	    longitude   DOUBLE PRECISION NOT NULL,
//	    status      TEXT NOT NULL DEFAULT '',
//	    PRIMARY KEY (scenario, ts, id)
//	);
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmallard/simwatch/internal/store"
)

// Compile-time assertion that Store satisfies the store.Store interface.
var _ store.Store = (*Store)(nil)

// Store queries the incidents table for a single scenario.
// All methods are safe for concurrent use.
type Store struct {
	pool     *pgxpool.Pool
	scenario string
}

// New connects to the database at dsn and returns a Store scoped to the
// given scenario. Call [Store.Close] when done.
func New(ctx context.Context, dsn, scenario string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: dsn must not be empty")
	}
	if scenario == "" {
		return nil, fmt.Errorf("postgres: scenario must not be empty")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return &Store{pool: pool, scenario: scenario}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Query implements [store.Store.Query].
func (s *Store) Query(ctx context.Context, filter store.Filter) ([]store.Incident, error) {
	q, args := buildQuery(s.scenario, filter)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query incidents: %w", err)
	}
	return collectIncidents(rows)
}

// buildQuery assembles the SQL and arguments for filter. Split out for tests.
func buildQuery(scenario string, filter store.Filter) (string, []any) {
	args := []any{scenario}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conditions := []string{"scenario = $1"}
	if filter.Domain != "" {
		conditions = append(conditions, "domain = "+next(string(filter.Domain)))
	}
	if filter.Severity != "" {
		conditions = append(conditions, "severity = "+next(string(filter.Severity)))
	}
	if !filter.Start.IsZero() {
		conditions = append(conditions, "ts >= "+next(filter.Start))
	}
	if !filter.End.IsZero() {
		conditions = append(conditions, "ts <= "+next(filter.End))
	}

	q := "SELECT id, scenario, ts, domain, severity, title, description, latitude, longitude, status\n" +
		"FROM   incidents\n" +
		"WHERE  " + strings.Join(conditions, "\n  AND  ") + "\n" +
		"ORDER  BY ts"

	args = append(args, filter.EffectiveLimit())
	q += fmt.Sprintf("\nLIMIT $%d", len(args))

	return q, args
}

// collectIncidents scans pgx rows into a slice of Incident values.
func collectIncidents(rows pgx.Rows) ([]store.Incident, error) {
	incidents, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Incident, error) {
		var inc store.Incident
		err := row.Scan(
			&inc.ID,
			&inc.Scenario,
			&inc.Timestamp,
			&inc.Domain,
			&inc.Severity,
			&inc.Title,
			&inc.Description,
			&inc.Latitude,
			&inc.Longitude,
			&inc.Status,
		)
		return inc, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: scan incidents: %w", err)
	}
	return incidents, nil
}

// Ping implements [store.Store.Ping].
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}
