package store

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite" // CGO-free SQLite driver

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/mooring/pkg/domain/model"
)

// DB is the run/finding store backed by SQLite.
type DB struct {
	conn *sql.DB
}

// Open opens (and creates if missing) a SQLite DB at path.
func Open(path string) (*DB, error) {
	// Pragmas via DSN keep it portable with the modernc driver.
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}

	db := &DB{conn: conn}
	if err := db.createSchema(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) Close() error { return db.conn.Close() }

func (db *DB) createSchema() error {
	_, err := db.conn.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id                INTEGER PRIMARY KEY AUTOINCREMENT,
  delivery_id       TEXT NOT NULL,
  created_at        TEXT NOT NULL,  -- RFC3339Nano
  repository        TEXT NOT NULL,
  branch            TEXT NOT NULL DEFAULT '',
  workflows_scanned INTEGER NOT NULL,
  findings_count    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS findings (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id        INTEGER NOT NULL,
  workflow_path TEXT NOT NULL,
  action        TEXT NOT NULL CHECK (action <> ''),
  ref           TEXT NOT NULL,
  pinned        INTEGER NOT NULL,
  internal      INTEGER NOT NULL,
  raw           TEXT NOT NULL,
  FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_repository ON runs(repository);
CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
CREATE INDEX IF NOT EXISTS idx_findings_action ON findings(action);
`)
	if err != nil {
		return goerr.Wrap(err, "failed to create schema")
	}
	return nil
}

// CreateRun persists a run and its findings in one transaction. The run's ID
// and the findings' ID/RunID fields are filled in on success.
func (db *DB) CreateRun(ctx context.Context, run *model.Run, findings []*model.Finding) (int64, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (delivery_id, created_at, repository, branch, workflows_scanned, findings_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.DeliveryID,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
		run.Repository,
		run.Branch,
		run.WorkflowsScanned,
		run.FindingsCount,
	)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to insert run")
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to get run id")
	}

	if len(findings) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO findings (run_id, workflow_path, action, ref, pinned, internal, raw)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, goerr.Wrap(err, "failed to prepare finding insert")
		}
		defer stmt.Close()

		for _, f := range findings {
			res, err := stmt.ExecContext(ctx,
				runID, f.WorkflowPath, f.Action, f.Ref,
				boolToInt(f.Pinned), boolToInt(f.Internal), f.Raw,
			)
			if err != nil {
				return 0, goerr.Wrap(err, "failed to insert finding",
					goerr.V("workflow_path", f.WorkflowPath),
					goerr.V("action", f.Action),
				)
			}
			if f.ID, err = res.LastInsertId(); err != nil {
				return 0, goerr.Wrap(err, "failed to get finding id")
			}
			f.RunID = runID
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, goerr.Wrap(err, "failed to commit run")
	}

	run.ID = runID
	return runID, nil
}

// Prune deletes the oldest runs beyond retain. Findings cascade. Concurrent
// pruners may race; the retention count self-corrects on the next call.
func (db *DB) Prune(ctx context.Context, retain int) (int64, error) {
	if retain <= 0 {
		return 0, nil
	}
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM runs WHERE id IN (
		   SELECT id FROM runs ORDER BY id DESC LIMIT -1 OFFSET ?
		 )`, retain)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to prune runs", goerr.V("retain", retain))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count pruned runs")
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
