package cli

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/manifold/pkg/types"
)

type projectFlags struct {
	q        string
	random   bool
	seed     uint64
	taskOnly bool
}

// projectOutput is the result of one projection.
type projectOutput struct {
	Model      string    `json:"model"`
	Variant    string    `json:"variant"`
	Start      []float64 `json:"start"`
	Result     []float64 `json:"result"`
	Converged  bool      `json:"converged"`
	Iterations int       `json:"iterations"`
	Residual   *float64  `json:"residual"`
	InBounds   bool      `json:"in_bounds"`
}

func newProjectCmd(flags *rootFlags) *cobra.Command {
	pf := &projectFlags{}
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project a configuration onto the configured constraints",
		Long: `Project runs the Newton projector from a start configuration.

The start is --q (comma-separated joint values), a random configuration
with --random, or the model's default configuration. By default the task
constraints are intersected with the joint limits; --task-only projects
onto the task constraints alone.

Example:
  manifold project --q 0.3,-0.2,0.1
  manifold project --random --seed 7 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProject(cmd, flags, pf)
		},
	}
	cmd.Flags().StringVar(&pf.q, "q", "", "start configuration, comma-separated")
	cmd.Flags().BoolVar(&pf.random, "random", false, "start from a random configuration within the joint bounds")
	cmd.Flags().Uint64Var(&pf.seed, "seed", 1, "seed for --random")
	cmd.Flags().BoolVar(&pf.taskOnly, "task-only", false, "ignore joint limits")
	return cmd
}

func runProject(cmd *cobra.Command, flags *rootFlags, pf *projectFlags) error {
	e, err := loadEnv(cmd, flags)
	if err != nil {
		return err
	}

	var q []float64
	switch {
	case pf.q != "" && pf.random:
		return userError("--q and --random are mutually exclusive")
	case pf.q != "":
		if q, err = parseConfiguration(pf.q, e.chain.DOF()); err != nil {
			return userError("--q: %w", err)
		}
	case pf.random:
		q = e.chain.RandomPositions(rand.New(rand.NewPCG(pf.seed, pf.seed)))
	default:
		q = e.chain.DefaultPositions()
	}

	c, variant := e.set.Full, types.VariantTaskJointLimits
	if pf.taskOnly || e.set.JointLimits == nil {
		c, variant = e.set.Task, types.VariantTask
	}

	start := append([]float64(nil), q...)
	res, err := c.ProjectResult(q)
	if err != nil {
		return userError("project: %w", err)
	}
	e.log.Info("projection finished",
		zap.String("variant", variant),
		zap.Bool("converged", res.Converged),
		zap.Int("iterations", res.Iterations))

	out := projectOutput{
		Model:      e.chain.Name(),
		Variant:    variant,
		Start:      start,
		Result:     q,
		Converged:  res.Converged,
		Iterations: res.Iterations,
		Residual:   finite(res.Residual),
		InBounds:   inBounds(e.chain.Bounds(), q),
	}
	if flags.jsonMode {
		return writeJSON(cmd, out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "model:      %s\n", out.Model)
	fmt.Fprintf(w, "variant:    %s\n", out.Variant)
	fmt.Fprintf(w, "start:      %s\n", formatVector(out.Start))
	fmt.Fprintf(w, "result:     %s\n", formatVector(out.Result))
	fmt.Fprintf(w, "converged:  %t\n", out.Converged)
	fmt.Fprintf(w, "iterations: %d\n", out.Iterations)
	fmt.Fprintf(w, "residual:   %.3g\n", res.Residual)
	fmt.Fprintf(w, "in bounds:  %t\n", out.InBounds)
	if !res.Converged {
		return userError("projection did not converge within %d iterations", c.MaxIterations())
	}
	return nil
}

func inBounds(bounds []types.JointBounds, q []float64) bool {
	for i, b := range bounds {
		if !b.Contains(q[i]) {
			return false
		}
	}
	return true
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func formatVector(q []float64) string {
	parts := make([]string, len(q))
	for i, v := range q {
		parts[i] = fmt.Sprintf("%.6f", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
