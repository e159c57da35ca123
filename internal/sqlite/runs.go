package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mesh-intelligence/manifold/pkg/types"
)

// SaveRun inserts run with its results and trials in one transaction. An
// empty RunID is replaced by a new UUID v7 and a zero CreatedAt by the
// current time. Returns the run ID.
func (s *Store) SaveRun(run *types.Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return "", types.ErrStoreDetached
	}
	if run.RunID == "" {
		run.RunID = generateUUID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs (run_id, model, trials, seed, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.Model, run.Trials, int64(run.Seed), run.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, res := range run.Results {
		_, err = tx.Exec(`INSERT INTO results (run_id, variant, projected, feasible, mean_iterations, duration_ns) VALUES (?, ?, ?, ?, ?, ?)`,
			run.RunID, res.Variant, res.Projected, res.Feasible, res.MeanIterations, int64(res.Duration))
		if err != nil {
			return "", fmt.Errorf("insert result %s: %w", res.Variant, err)
		}
		for _, t := range res.Trials {
			_, err = tx.Exec(`INSERT INTO trials (run_id, variant, idx, converged, feasible, iterations, residual) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				run.RunID, res.Variant, t.Index, t.Converged, t.Feasible, t.Iterations, nullableFloat(t.Residual))
			if err != nil {
				return "", fmt.Errorf("insert trial %s/%d: %w", res.Variant, t.Index, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return run.RunID, nil
}

// GetRun returns the run with the given ID including results and trials.
// Returns ErrNotFound if no run exists with that ID.
func (s *Store) GetRun(id string) (*types.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return nil, types.ErrStoreDetached
	}

	row := s.db.QueryRow(`SELECT run_id, model, trials, seed, created_at FROM runs WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if run.Results, err = s.loadResults(run.RunID, true); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns every run, newest first, with result summaries but
// without trials.
func (s *Store) ListRuns() ([]types.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return nil, types.ErrStoreDetached
	}

	rows, err := s.db.Query(`SELECT run_id, model, trials, seed, created_at FROM runs ORDER BY created_at DESC, run_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	var runs []types.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range runs {
		if runs[i].Results, err = s.loadResults(runs[i].RunID, false); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// DeleteRun removes a run with its results and trials.
// Returns ErrNotFound if no run exists with that ID.
func (s *Store) DeleteRun(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return types.ErrStoreDetached
	}
	res, err := s.db.Exec(`DELETE FROM runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (s *Store) loadResults(runID string, withTrials bool) ([]types.RunResult, error) {
	rows, err := s.db.Query(`SELECT variant, projected, feasible, mean_iterations, duration_ns FROM results WHERE run_id = ? ORDER BY variant`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []types.RunResult
	for rows.Next() {
		var r types.RunResult
		var durationNS int64
		if err := rows.Scan(&r.Variant, &r.Projected, &r.Feasible, &r.MeanIterations, &durationNS); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Duration = time.Duration(durationNS)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if withTrials {
		for i := range results {
			if results[i].Trials, err = s.loadTrials(runID, results[i].Variant); err != nil {
				return nil, err
			}
		}
	}
	return results, nil
}

func (s *Store) loadTrials(runID, variant string) ([]types.Trial, error) {
	rows, err := s.db.Query(`SELECT idx, converged, feasible, iterations, residual FROM trials WHERE run_id = ? AND variant = ? ORDER BY idx`, runID, variant)
	if err != nil {
		return nil, fmt.Errorf("query trials: %w", err)
	}
	defer rows.Close()

	var trials []types.Trial
	for rows.Next() {
		var t types.Trial
		var residual sql.NullFloat64
		if err := rows.Scan(&t.Index, &t.Converged, &t.Feasible, &t.Iterations, &residual); err != nil {
			return nil, fmt.Errorf("scan trial: %w", err)
		}
		t.Residual = math.NaN()
		if residual.Valid {
			t.Residual = residual.Float64
		}
		trials = append(trials, t)
	}
	return trials, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*types.Run, error) {
	var run types.Run
	var seed int64
	var createdAt string
	if err := sc.Scan(&run.RunID, &run.Model, &run.Trials, &seed, &createdAt); err != nil {
		return nil, err
	}
	run.Seed = uint64(seed)
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	run.CreatedAt = t
	return &run, nil
}

// nullableFloat stores NaN and infinities as NULL.
func nullableFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
