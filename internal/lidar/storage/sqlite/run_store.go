package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/scanmatch/internal/lidar/se3"
)

// ErrRunNotFound is returned by GetRun for an unknown run ID.
var ErrRunNotFound = errors.New("registration run not found")

// Run is one persisted registration result.
type Run struct {
	RunID       string `json:"run_id"`
	Method      string `json:"method"`
	FeatureMode string `json:"feature_mode"`
	// Params is the solved transform as [qx, qy, qz, qw, tx, ty, tz].
	Params            [se3.NumParameters]float64 `json:"params"`
	InitialCost       float64                    `json:"initial_cost"`
	FinalCost         float64                    `json:"final_cost"`
	Iterations        int                        `json:"iterations"`
	Termination       string                     `json:"termination"`
	UsedResiduals     int                        `json:"used_residuals"`
	RejectedResiduals int                        `json:"rejected_residuals"`
	Correspondences   int                        `json:"correspondences"`
	InputPath         string                     `json:"input_path,omitempty"`
	ConfigJSON        json.RawMessage            `json:"config_json,omitempty"`
	CreatedAt         int64                      `json:"created_at"`
}

// Transform returns the solved pose.
func (r *Run) Transform() se3.Pose { return se3.FromParams(r.Params[:]) }

// Store persists registration runs.
type Store struct {
	db *sql.DB
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SchemaVersion returns the applied migration version and dirty flag.
func (s *Store) SchemaVersion() (uint, bool, error) {
	return schemaVersion(s.db)
}

// RecordRun inserts run. An empty RunID is replaced by a new UUID and a
// zero CreatedAt by the current time.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}
	params, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	var configStr, inputPath any
	if len(run.ConfigJSON) > 0 {
		configStr = string(run.ConfigJSON)
	}
	if run.InputPath != "" {
		inputPath = run.InputPath
	}

	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO registration_runs (
				run_id, method, feature_mode, params_json,
				initial_cost, final_cost, iterations, termination,
				used_residuals, rejected_residuals, correspondences,
				input_path, config_json, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Method, run.FeatureMode, string(params),
			run.InitialCost, run.FinalCost, run.Iterations, run.Termination,
			run.UsedResiduals, run.RejectedResiduals, run.Correspondences,
			inputPath, configStr, run.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert run %s: %w", run.RunID, err)
		}
		return nil
	})
}

const runColumns = `
	run_id, method, feature_mode, params_json,
	initial_cost, final_cost, iterations, termination,
	used_residuals, rejected_residuals, correspondences,
	input_path, config_json, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var params string
	var inputPath, configStr sql.NullString
	if err := row.Scan(
		&r.RunID, &r.Method, &r.FeatureMode, &params,
		&r.InitialCost, &r.FinalCost, &r.Iterations, &r.Termination,
		&r.UsedResiduals, &r.RejectedResiduals, &r.Correspondences,
		&inputPath, &configStr, &r.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(params), &r.Params); err != nil {
		return nil, fmt.Errorf("decode params of run %s: %w", r.RunID, err)
	}
	r.InputPath = inputPath.String
	if configStr.Valid {
		r.ConfigJSON = json.RawMessage(configStr.String)
	}
	return &r, nil
}

// GetRun returns the run with the given ID.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM registration_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return r, nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM registration_runs ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
