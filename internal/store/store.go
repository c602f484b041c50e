// Package store persists fact tables and normalized metric sets behind
// a driver-agnostic interface with SQLite and Postgres backends.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/stocker-app/stocker-cli/internal/model"
)

// Filter specifies criteria for listing fact sets or metric sets.
type Filter struct {
	Ticker string `json:"ticker,omitempty"`
	Period string `json:"period,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the fetch/normalize
// pipeline.
type Store interface {
	// CIK table
	UpsertCIKs(ctx context.Context, entries []model.CIKEntry) (int, error)
	LookupCIK(ctx context.Context, ticker string) (*model.CIKEntry, error)

	// Fact sets (one row per ticker+period, facts as JSON)
	SaveFactSet(ctx context.Context, pf model.PeriodFacts) error
	GetFactSet(ctx context.Context, ticker, period string) (*model.PeriodFacts, error)
	ListFactSets(ctx context.Context, filter Filter) ([]model.PeriodFacts, error)

	// Metric sets (normalizer output per ticker+period)
	SaveMetricSet(ctx context.Context, ms model.MetricSet) error
	GetMetricSet(ctx context.Context, ticker, period string) (*model.MetricSet, error)
	ListMetricSets(ctx context.Context, filter Filter) ([]model.MetricSet, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver. "sqlite" (default)
// takes a file path DSN; "postgres" takes a pgx connection string.
func Open(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Store, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, poolCfg)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
