package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/stocker-app/stocker-cli/internal/db"
	"github.com/stocker-app/stocker-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests to inject
// a mock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS ciks (
	ticker     TEXT PRIMARY KEY,
	cik        INTEGER NOT NULL,
	name       TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS fact_sets (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	ticker     TEXT NOT NULL,
	period     TEXT NOT NULL,
	form       TEXT,
	filed      TEXT,
	facts      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (ticker, period)
);

CREATE TABLE IF NOT EXISTS metric_sets (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	ticker     TEXT NOT NULL,
	period     TEXT NOT NULL,
	metrics    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (ticker, period)
);

CREATE UNLOGGED TABLE IF NOT EXISTS ciks_staging (
	ticker TEXT NOT NULL,
	cik    INTEGER NOT NULL,
	name   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ciks_cik ON ciks(cik);
CREATE INDEX IF NOT EXISTS idx_fact_sets_ticker ON fact_sets(ticker);
CREATE INDEX IF NOT EXISTS idx_metric_sets_ticker ON metric_sets(ticker);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

// UpsertCIKs refreshes the CIK table in bulk: COPY into a staging
// table, then merge into ciks. The SEC file carries tens of thousands
// of rows, so per-row inserts are too slow here. The staging table is
// a regular table rather than a temp one because pool connections are
// not sticky across statements.
func (s *PostgresStore) UpsertCIKs(ctx context.Context, entries []model.CIKEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	if _, err := s.pool.Exec(ctx, `TRUNCATE ciks_staging`); err != nil {
		return 0, eris.Wrap(err, "postgres: truncate cik staging")
	}

	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{e.Ticker, e.CIK, e.Name})
	}
	if _, err := db.CopyFrom(ctx, s.pool, "ciks_staging", []string{"ticker", "cik", "name"}, rows); err != nil {
		return 0, err
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO ciks (ticker, cik, name, updated_at)
		 SELECT ticker, cik, name, now() FROM ciks_staging
		 ON CONFLICT (ticker) DO UPDATE SET cik = EXCLUDED.cik, name = EXCLUDED.name, updated_at = now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: merge ciks")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) LookupCIK(ctx context.Context, ticker string) (*model.CIKEntry, error) {
	var e model.CIKEntry
	err := s.pool.QueryRow(ctx,
		`SELECT ticker, cik, name FROM ciks WHERE ticker = $1`,
		ticker,
	).Scan(&e.Ticker, &e.CIK, &e.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: lookup cik %s", ticker)
	}
	return &e, nil
}

func (s *PostgresStore) SaveFactSet(ctx context.Context, pf model.PeriodFacts) error {
	factsJSON, err := json.Marshal(pf.Facts)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal facts")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO fact_sets (id, ticker, period, form, filed, facts) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (ticker, period) DO UPDATE SET form = $4, filed = $5, facts = $6`,
		uuid.New().String(), pf.Ticker, pf.Period, pf.Form, pf.Filed, factsJSON,
	)
	return eris.Wrapf(err, "postgres: save fact set %s %s", pf.Ticker, pf.Period)
}

func (s *PostgresStore) GetFactSet(ctx context.Context, ticker, period string) (*model.PeriodFacts, error) {
	var pf model.PeriodFacts
	var form, filed *string
	var factsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT ticker, period, form, filed, facts FROM fact_sets WHERE ticker = $1 AND period = $2`,
		ticker, period,
	).Scan(&pf.Ticker, &pf.Period, &form, &filed, &factsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get fact set %s %s", ticker, period)
	}
	if form != nil {
		pf.Form = *form
	}
	if filed != nil {
		pf.Filed = *filed
	}
	if err := json.Unmarshal(factsJSON, &pf.Facts); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal facts")
	}
	return &pf, nil
}

func (s *PostgresStore) ListFactSets(ctx context.Context, filter Filter) ([]model.PeriodFacts, error) {
	query := `SELECT ticker, period, form, filed, facts FROM fact_sets WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Ticker != "" {
		query += fmt.Sprintf(` AND ticker = $%d`, argIdx)
		args = append(args, filter.Ticker)
		argIdx++
	}
	if filter.Period != "" {
		query += fmt.Sprintf(` AND period = $%d`, argIdx)
		args = append(args, filter.Period)
		argIdx++
	}
	query += ` ORDER BY ticker, period`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list fact sets")
	}
	defer rows.Close()

	var out []model.PeriodFacts
	for rows.Next() {
		var pf model.PeriodFacts
		var form, filed *string
		var factsJSON []byte

		if err := rows.Scan(&pf.Ticker, &pf.Period, &form, &filed, &factsJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan fact set")
		}
		if form != nil {
			pf.Form = *form
		}
		if filed != nil {
			pf.Filed = *filed
		}
		if err := json.Unmarshal(factsJSON, &pf.Facts); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal facts")
		}
		out = append(out, pf)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list fact sets iterate")
}

func (s *PostgresStore) SaveMetricSet(ctx context.Context, ms model.MetricSet) error {
	metricsJSON, err := json.Marshal(ms.Metrics)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal metrics")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO metric_sets (id, ticker, period, metrics) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (ticker, period) DO UPDATE SET metrics = $4, created_at = now()`,
		uuid.New().String(), ms.Ticker, ms.Period, metricsJSON,
	)
	return eris.Wrapf(err, "postgres: save metric set %s %s", ms.Ticker, ms.Period)
}

func (s *PostgresStore) GetMetricSet(ctx context.Context, ticker, period string) (*model.MetricSet, error) {
	var ms model.MetricSet
	var metricsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT ticker, period, metrics FROM metric_sets WHERE ticker = $1 AND period = $2`,
		ticker, period,
	).Scan(&ms.Ticker, &ms.Period, &metricsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get metric set %s %s", ticker, period)
	}
	if err := json.Unmarshal(metricsJSON, &ms.Metrics); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal metrics")
	}
	return &ms, nil
}

func (s *PostgresStore) ListMetricSets(ctx context.Context, filter Filter) ([]model.MetricSet, error) {
	query := `SELECT ticker, period, metrics FROM metric_sets WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Ticker != "" {
		query += fmt.Sprintf(` AND ticker = $%d`, argIdx)
		args = append(args, filter.Ticker)
		argIdx++
	}
	if filter.Period != "" {
		query += fmt.Sprintf(` AND period = $%d`, argIdx)
		args = append(args, filter.Period)
		argIdx++
	}
	query += ` ORDER BY ticker, period`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list metric sets")
	}
	defer rows.Close()

	var out []model.MetricSet
	for rows.Next() {
		var ms model.MetricSet
		var metricsJSON []byte

		if err := rows.Scan(&ms.Ticker, &ms.Period, &metricsJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan metric set")
		}
		if err := json.Unmarshal(metricsJSON, &ms.Metrics); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal metrics")
		}
		out = append(out, ms)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list metric sets iterate")
}
