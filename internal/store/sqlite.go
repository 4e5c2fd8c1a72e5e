package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/BeeKIS/honeybee-migrations/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// An in-memory database (":memory:") is limited to one connection so every
// query sees the same schema.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	command     TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	error       TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS run_stages (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	stage      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	rows       INTEGER NOT NULL DEFAULT 0,
	result     TEXT,
	started_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS chain_failures (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL REFERENCES runs(id),
	threshold    REAL NOT NULL,
	year         INTEGER NOT NULL,
	movement_ids TEXT NOT NULL,
	message      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_command ON runs(command);
CREATE INDEX IF NOT EXISTS idx_run_stages_run_id ON run_stages(run_id);
CREATE INDEX IF NOT EXISTS idx_chain_failures_run_id ON chain_failures(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, command string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, status, started_at) VALUES (?, ?, ?, ?)`,
		id, command, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Command:   command,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

// FinishRun marks a run complete, or failed with runErr's message when
// runErr is non-nil.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, runErr error) error {
	status := model.RunStatusComplete
	var msg sql.NullString
	if runErr != nil {
		status = model.RunStatusFailed
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

// GetRun returns a run together with its stages.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, command, status, error, started_at, finished_at FROM runs WHERE id = ?`,
		runID,
	)
	r, err := scanRun(row)
	if err != nil {
		return nil, err
	}
	if r.Stages, err = s.ListStages(ctx, runID); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, command, status, error, started_at, finished_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Command != "" {
		query += ` AND command = ?`
		args = append(args, filter.Command)
	}
	query += ` ORDER BY started_at DESC`

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
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) CreateStage(ctx context.Context, runID, name string) (*model.Stage, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_stages (id, run_id, stage, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, runID, name, string(model.StageStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert stage for run %s", runID)
	}

	return &model.Stage{
		ID:        id,
		RunID:     runID,
		Name:      name,
		Status:    model.StageStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteStage(ctx context.Context, stageID string, result *model.StageResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stage result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE run_stages SET status = ?, rows = ?, result = ? WHERE id = ?`,
		string(result.Status), result.Rows, string(resultJSON), stageID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete stage %s", stageID)
	}
	return checkRowsAffected(res, "stage", stageID)
}

// ListStages returns a run's stages in the order they started.
func (s *SQLiteStore) ListStages(ctx context.Context, runID string) ([]model.Stage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, stage, status, result, started_at FROM run_stages
		 WHERE run_id = ? ORDER BY started_at, rowid`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list stages for run %s", runID)
	}
	defer rows.Close()

	var stages []model.Stage
	for rows.Next() {
		var st model.Stage
		var resultJSON sql.NullString
		if err := rows.Scan(&st.ID, &st.RunID, &st.Name, &st.Status, &resultJSON, &st.StartedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan stage")
		}
		if resultJSON.Valid {
			st.Result = &model.StageResult{}
			if err := json.Unmarshal([]byte(resultJSON.String), st.Result); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal stage result")
			}
		}
		stages = append(stages, st)
	}
	return stages, eris.Wrap(rows.Err(), "sqlite: list stages iterate")
}

// RecordChainFailures inserts failures in one transaction.
func (s *SQLiteStore) RecordChainFailures(ctx context.Context, failures []model.ChainFailure) error {
	if len(failures) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin chain failures")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chain_failures (run_id, threshold, year, movement_ids, message) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare chain failures")
	}
	defer stmt.Close()

	for _, f := range failures {
		ids, err := json.Marshal(f.MovementIDs)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal movement ids")
		}
		if _, err := stmt.ExecContext(ctx, f.RunID, f.ThresholdKm, f.Year, string(ids), f.Message); err != nil {
			return eris.Wrapf(err, "sqlite: insert chain failure for run %s", f.RunID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit chain failures")
}

func (s *SQLiteStore) ListChainFailures(ctx context.Context, runID string) ([]model.ChainFailure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, threshold, year, movement_ids, message FROM chain_failures
		 WHERE run_id = ? ORDER BY threshold, year, id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list chain failures for run %s", runID)
	}
	defer rows.Close()

	var out []model.ChainFailure
	for rows.Next() {
		var f model.ChainFailure
		var ids string
		if err := rows.Scan(&f.RunID, &f.ThresholdKm, &f.Year, &ids, &f.Message); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan chain failure")
		}
		if err := json.Unmarshal([]byte(ids), &f.MovementIDs); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal movement ids")
		}
		out = append(out, f)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list chain failures iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var errMsg sql.NullString
	var finished sql.NullTime

	err := row.Scan(&r.ID, &r.Command, &r.Status, &errMsg, &r.StartedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	r.Error = errMsg.String
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return &r, nil
}
