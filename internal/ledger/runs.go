package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahrenberg/split-nlogo-experiment/internal/sweep"
	"github.com/google/uuid"
)

// ErrBatchNotFound is returned when no batch matches a lookup.
var ErrBatchNotFound = errors.New("batch not found")

// timeFormat has fixed-width fractional seconds so timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Batch is one invocation of the splitter.
type Batch struct {
	ID        string    `json:"id"`
	ModelPath string    `json:"model_path"`
	CreatedAt time.Time `json:"created_at"`
}

// Run is one generated run as stored in the ledger.
type Run struct {
	BatchID     string            `json:"batch_id"`
	Experiment  string            `json:"experiment"`
	Index       int               `json:"index"`
	Total       int               `json:"total"`
	Repetitions int               `json:"repetitions"`
	SetupFile   string            `json:"setup_file"`
	ScriptFile  string            `json:"script_file,omitempty"`
	Params      sweep.Combination `json:"params"`
}

// RunFilter narrows ListRuns. Empty fields match everything.
type RunFilter struct {
	BatchID    string
	Experiment string
	Index      *int
}

// CreateBatch inserts a batch, assigning an ID and timestamp when unset.
func (db *DB) CreateBatch(ctx context.Context, batch *Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx,
		"INSERT INTO batches (id, model_path, created_at) VALUES (?, ?, ?)",
		batch.ID, batch.ModelPath, batch.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}
	return nil
}

// LatestBatch returns the most recently created batch.
func (db *DB) LatestBatch(ctx context.Context) (*Batch, error) {
	return db.scanBatch(db.QueryRowContext(ctx, "SELECT id, model_path, created_at FROM batches ORDER BY created_at DESC LIMIT 1"))
}

// GetBatch returns the batch with the given ID.
func (db *DB) GetBatch(ctx context.Context, id string) (*Batch, error) {
	b, err := db.scanBatch(db.QueryRowContext(ctx, "SELECT id, model_path, created_at FROM batches WHERE id = ?", id))
	if errors.Is(err, ErrBatchNotFound) {
		return nil, fmt.Errorf("batch '%s': %w", id, err)
	}
	return b, err
}

func (db *DB) scanBatch(row *sql.Row) (*Batch, error) {
	var (
		b         Batch
		createdAt string
	)
	if err := row.Scan(&b.ID, &b.ModelPath, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to query batch: %w", err)
	}
	t, err := time.Parse(timeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse batch timestamp %q: %w", createdAt, err)
	}
	b.CreatedAt = t
	return &b, nil
}

// AddRuns stores runs in a single transaction.
func (db *DB) AddRuns(ctx context.Context, runs []Run) error {
	return db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO runs (
				batch_id, experiment, run_index, total, repetitions,
				setup_file, script_file, params_json
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare run insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range runs {
			params := r.Params
			if params == nil {
				params = sweep.Combination{}
			}
			data, err := json.Marshal(params)
			if err != nil {
				return fmt.Errorf("failed to marshal run params: %w", err)
			}
			if _, err := stmt.ExecContext(ctx,
				r.BatchID, r.Experiment, r.Index, r.Total, r.Repetitions,
				r.SetupFile, nullableString(r.ScriptFile), string(data),
			); err != nil {
				return fmt.Errorf("failed to insert run %s/%d: %w", r.Experiment, r.Index, err)
			}
		}
		return nil
	})
}

// ListRuns returns runs matching filter ordered by experiment and index.
func (db *DB) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	var (
		where []string
		args  []any
	)
	if filter.BatchID != "" {
		where = append(where, "batch_id = ?")
		args = append(args, filter.BatchID)
	}
	if filter.Experiment != "" {
		where = append(where, "experiment = ?")
		args = append(args, filter.Experiment)
	}
	if filter.Index != nil {
		where = append(where, "run_index = ?")
		args = append(args, *filter.Index)
	}

	query := `SELECT batch_id, experiment, run_index, total, repetitions, setup_file, script_file, params_json FROM runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY experiment, run_index"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r          Run
			scriptFile sql.NullString
			params     string
		)
		if err := rows.Scan(&r.BatchID, &r.Experiment, &r.Index, &r.Total, &r.Repetitions, &r.SetupFile, &scriptFile, &params); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.ScriptFile = scriptFile.String
		if err := json.Unmarshal([]byte(params), &r.Params); err != nil {
			return nil, fmt.Errorf("failed to decode params of run %s/%d: %w", r.Experiment, r.Index, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
