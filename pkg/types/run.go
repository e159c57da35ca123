package types

import "time"

// Sampling variants recorded for a run.
const (
	VariantTask            = "task"
	VariantTaskJointLimits = "task+joint_limits"
)

// Run is one batch sampling comparison persisted by the run store.
type Run struct {
	RunID     string      `json:"run_id"`
	Model     string      `json:"model"`
	Trials    int         `json:"trials"`
	Seed      uint64      `json:"seed"`
	CreatedAt time.Time   `json:"created_at"`
	Results   []RunResult `json:"results"`
}

// RunResult summarizes one variant of a run.
type RunResult struct {
	Variant        string        `json:"variant"`
	Projected      int           `json:"projected"`
	Feasible       int           `json:"feasible"`
	MeanIterations float64       `json:"mean_iterations"`
	Duration       time.Duration `json:"duration"`
	Trials         []Trial       `json:"trials,omitempty"`
}

// Trial is the outcome of projecting one sample.
type Trial struct {
	Index      int     `json:"index"`
	Converged  bool    `json:"converged"`
	Feasible   bool    `json:"feasible"`
	Iterations int     `json:"iterations"`
	Residual   float64 `json:"residual"`
}

// Infeasible returns the number of samples that did not end feasible.
func (r RunResult) Infeasible(trials int) int {
	return trials - r.Feasible
}
