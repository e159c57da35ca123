// Package sqlite implements the SQLite run store for sampling comparisons.
package sqlite

// Schema DDL for all tables.
const (
	createRuns = `CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    model TEXT NOT NULL,
    trials INTEGER NOT NULL,
    seed INTEGER NOT NULL,
    created_at TEXT NOT NULL
);`

	createResults = `CREATE TABLE IF NOT EXISTS results (
    run_id TEXT NOT NULL,
    variant TEXT NOT NULL,
    projected INTEGER NOT NULL,
    feasible INTEGER NOT NULL,
    mean_iterations REAL NOT NULL,
    duration_ns INTEGER NOT NULL,
    PRIMARY KEY (run_id, variant),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);`

	createTrials = `CREATE TABLE IF NOT EXISTS trials (
    run_id TEXT NOT NULL,
    variant TEXT NOT NULL,
    idx INTEGER NOT NULL,
    converged INTEGER NOT NULL,
    feasible INTEGER NOT NULL,
    iterations INTEGER NOT NULL,
    residual REAL,
    PRIMARY KEY (run_id, variant, idx),
    FOREIGN KEY (run_id, variant) REFERENCES results(run_id, variant) ON DELETE CASCADE
);`

	createRunsCreatedIndex = `CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);`
)

// schemaStatements lists the DDL in execution order.
var schemaStatements = []string{
	createRuns,
	createResults,
	createTrials,
	createRunsCreatedIndex,
}
