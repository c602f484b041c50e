package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/stocker-app/stocker-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures
// WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS ciks (
	ticker     TEXT PRIMARY KEY,
	cik        INTEGER NOT NULL,
	name       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS fact_sets (
	id         TEXT PRIMARY KEY,
	ticker     TEXT NOT NULL,
	period     TEXT NOT NULL,
	form       TEXT,
	filed      TEXT,
	facts      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (ticker, period)
);

CREATE TABLE IF NOT EXISTS metric_sets (
	id         TEXT PRIMARY KEY,
	ticker     TEXT NOT NULL,
	period     TEXT NOT NULL,
	metrics    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (ticker, period)
);

CREATE INDEX IF NOT EXISTS idx_ciks_cik ON ciks(cik);
CREATE INDEX IF NOT EXISTS idx_fact_sets_ticker ON fact_sets(ticker);
CREATE INDEX IF NOT EXISTS idx_metric_sets_ticker ON metric_sets(ticker);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertCIKs(ctx context.Context, entries []model.CIKEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin cik upsert")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ciks (ticker, cik, name, updated_at) VALUES (?, ?, ?, datetime('now'))
		 ON CONFLICT (ticker) DO UPDATE SET cik = excluded.cik, name = excluded.name, updated_at = datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare cik upsert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Ticker, e.CIK, e.Name); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert cik %s", e.Ticker)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit cik upsert")
	}
	return len(entries), nil
}

func (s *SQLiteStore) LookupCIK(ctx context.Context, ticker string) (*model.CIKEntry, error) {
	var e model.CIKEntry
	err := s.db.QueryRowContext(ctx,
		`SELECT ticker, cik, name FROM ciks WHERE ticker = ?`,
		ticker,
	).Scan(&e.Ticker, &e.CIK, &e.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: lookup cik %s", ticker)
	}
	return &e, nil
}

func (s *SQLiteStore) SaveFactSet(ctx context.Context, pf model.PeriodFacts) error {
	factsJSON, err := json.Marshal(pf.Facts)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal facts")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO fact_sets (id, ticker, period, form, filed, facts) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (ticker, period) DO UPDATE SET form = excluded.form, filed = excluded.filed, facts = excluded.facts`,
		uuid.New().String(), pf.Ticker, pf.Period, pf.Form, pf.Filed, string(factsJSON),
	)
	return eris.Wrapf(err, "sqlite: save fact set %s %s", pf.Ticker, pf.Period)
}

func (s *SQLiteStore) GetFactSet(ctx context.Context, ticker, period string) (*model.PeriodFacts, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT ticker, period, form, filed, facts FROM fact_sets WHERE ticker = ? AND period = ?`,
		ticker, period,
	)
	pf, err := scanFactSet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return pf, err
}

func (s *SQLiteStore) ListFactSets(ctx context.Context, filter Filter) ([]model.PeriodFacts, error) {
	query := `SELECT ticker, period, form, filed, facts FROM fact_sets WHERE 1=1`
	var args []any

	if filter.Ticker != "" {
		query += ` AND ticker = ?`
		args = append(args, filter.Ticker)
	}
	if filter.Period != "" {
		query += ` AND period = ?`
		args = append(args, filter.Period)
	}
	query += ` ORDER BY ticker, period`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list fact sets")
	}
	defer rows.Close()

	var out []model.PeriodFacts
	for rows.Next() {
		pf, err := scanFactSet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *pf)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list fact sets iterate")
}

func (s *SQLiteStore) SaveMetricSet(ctx context.Context, ms model.MetricSet) error {
	metricsJSON, err := json.Marshal(ms.Metrics)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal metrics")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO metric_sets (id, ticker, period, metrics) VALUES (?, ?, ?, ?)
		 ON CONFLICT (ticker, period) DO UPDATE SET metrics = excluded.metrics, created_at = datetime('now')`,
		uuid.New().String(), ms.Ticker, ms.Period, string(metricsJSON),
	)
	return eris.Wrapf(err, "sqlite: save metric set %s %s", ms.Ticker, ms.Period)
}

func (s *SQLiteStore) GetMetricSet(ctx context.Context, ticker, period string) (*model.MetricSet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT ticker, period, metrics FROM metric_sets WHERE ticker = ? AND period = ?`,
		ticker, period,
	)
	ms, err := scanMetricSet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ms, err
}

func (s *SQLiteStore) ListMetricSets(ctx context.Context, filter Filter) ([]model.MetricSet, error) {
	query := `SELECT ticker, period, metrics FROM metric_sets WHERE 1=1`
	var args []any

	if filter.Ticker != "" {
		query += ` AND ticker = ?`
		args = append(args, filter.Ticker)
	}
	if filter.Period != "" {
		query += ` AND period = ?`
		args = append(args, filter.Period)
	}
	query += ` ORDER BY ticker, period`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list metric sets")
	}
	defer rows.Close()

	var out []model.MetricSet
	for rows.Next() {
		ms, err := scanMetricSet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ms)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list metric sets iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanFactSet(row scannable) (*model.PeriodFacts, error) {
	var pf model.PeriodFacts
	var form, filed sql.NullString
	var factsJSON string

	err := row.Scan(&pf.Ticker, &pf.Period, &form, &filed, &factsJSON)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan fact set")
	}
	pf.Form = form.String
	pf.Filed = filed.String

	if err := json.Unmarshal([]byte(factsJSON), &pf.Facts); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal facts")
	}
	return &pf, nil
}

func scanMetricSet(row scannable) (*model.MetricSet, error) {
	var ms model.MetricSet
	var metricsJSON string

	err := row.Scan(&ms.Ticker, &ms.Period, &metricsJSON)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan metric set")
	}

	if err := json.Unmarshal([]byte(metricsJSON), &ms.Metrics); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal metrics")
	}
	return &ms, nil
}
