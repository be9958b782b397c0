// Package runlog keeps a local history of crawl runs in SQLite. The log
// is diagnostics only: artifact existence on disk remains the sole
// idempotence mechanism, so losing the database loses nothing but the
// run history.
package runlog

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/openkrx/krxsnap/internal/snapshot"
)

// Log records crawl runs using modernc.org/sqlite.
type Log struct {
	db *sql.DB
}

// Open opens the run log database at the given path, configures WAL
// mode, and applies the schema.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "runlog: exec %s", pragma)
		}
	}

	if _, err := db.Exec(migration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "runlog: migrate")
	}
	return &Log{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	category     TEXT NOT NULL,
	start_date   TEXT,
	end_date     TEXT,
	status       TEXT NOT NULL DEFAULT 'running',
	weekend      INTEGER NOT NULL DEFAULT 0,
	exists_      INTEGER NOT NULL DEFAULT 0,
	empty        INTEGER NOT NULL DEFAULT 0,
	holiday      INTEGER NOT NULL DEFAULT 0,
	saved        INTEGER NOT NULL DEFAULT 0,
	error        TEXT,
	started_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_category ON runs(category);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (l *Log) Close() error {
	return l.db.Close()
}

// Start records the beginning of a run and returns its id.
func (l *Log) Start(ctx context.Context, category string, startDate, endDate string) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, category, start_date, end_date, status) VALUES (?, ?, ?, ?, 'running')`,
		id, category, startDate, endDate,
	)
	if err != nil {
		return "", eris.Wrapf(err, "runlog: start run for %s", category)
	}
	return id, nil
}

// Complete marks a run as finished and stores its outcome tally.
func (l *Log) Complete(ctx context.Context, id string, tally snapshot.Tally) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs
		 SET status = 'complete', completed_at = datetime('now'),
		     weekend = ?, exists_ = ?, empty = ?, holiday = ?, saved = ?
		 WHERE id = ?`,
		tally.Weekend, tally.Exists, tally.Empty, tally.Holiday, tally.Saved, id,
	)
	return eris.Wrapf(err, "runlog: complete run %s", id)
}

// Fail marks a run as failed with an error message.
func (l *Log) Fail(ctx context.Context, id string, errMsg string) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs
		 SET status = 'failed', completed_at = datetime('now'), error = ?
		 WHERE id = ?`,
		errMsg, id,
	)
	return eris.Wrapf(err, "runlog: fail run %s", id)
}

// Entry is one recorded run.
type Entry struct {
	ID          string
	Category    string
	StartDate   string
	EndDate     string
	Status      string
	Tally       snapshot.Tally
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Recent returns the most recent runs, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, category, COALESCE(start_date, ''), COALESCE(end_date, ''), status,
		        weekend, exists_, empty, holiday, saved, COALESCE(error, ''),
		        started_at, completed_at
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: query recent runs")
	}
	defer rows.Close() //nolint:errcheck

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.Category, &e.StartDate, &e.EndDate, &e.Status,
			&e.Tally.Weekend, &e.Tally.Exists, &e.Tally.Empty, &e.Tally.Holiday, &e.Tally.Saved,
			&e.Error, &e.StartedAt, &e.CompletedAt,
		); err != nil {
			return nil, eris.Wrap(err, "runlog: scan run")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "runlog: iterate runs")
}
