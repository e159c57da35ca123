package cli

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/manifold/pkg/constraints"
	"github.com/mesh-intelligence/manifold/pkg/types"
)

// jacobianThreshold is the largest accepted L1 distance between analytic
// and finite-difference Jacobians.
const jacobianThreshold = 1e-4

type checkFlags struct {
	samples int
	seed    uint64
}

// checkRow is the Jacobian check of one constraint.
type checkRow struct {
	Kind    string  `json:"kind"`
	Link    string  `json:"link,omitempty"`
	Dim     int     `json:"dim"`
	Samples int     `json:"samples"`
	Skipped int     `json:"skipped"`
	MaxL1   float64 `json:"max_l1"`
	Pass    bool    `json:"pass"`
}

func newCheckCmd(flags *rootFlags) *cobra.Command {
	cf := &checkFlags{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare analytic constraint Jacobians with finite differences",
		Long: `Check evaluates every configured constraint at random configurations and
compares its analytic Jacobian with a central-difference estimate. Position
and orientation constraints are compared on their raw error, before the
tolerance deadband. Configurations whose orientation deviation is close to
π, where the rotation log is not differentiable, are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, flags, cf)
		},
	}
	cmd.Flags().IntVar(&cf.samples, "samples", 100, "number of random configurations")
	cmd.Flags().Uint64Var(&cf.seed, "seed", 1, "random seed")
	return cmd
}

func runCheck(cmd *cobra.Command, flags *rootFlags, cf *checkFlags) error {
	if cf.samples <= 0 {
		return userError("--samples must be positive")
	}
	e, err := loadEnv(cmd, flags)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(cf.seed, cf.seed))
	configs := make([][]float64, cf.samples)
	for i := range configs {
		configs[i] = e.chain.RandomPositions(rng)
	}

	var rows []checkRow
	failed := 0
	for _, c := range constraints.Leaves(e.set.Full) {
		row := checkRow{Kind: c.Kind().String(), Link: c.LinkName(), Dim: c.Dim(), Samples: cf.samples}
		for _, q := range configs {
			d, err := constraints.JacobianError(c, q, constraints.DefaultStep)
			if errors.Is(err, types.ErrNearSingularity) {
				row.Skipped++
				continue
			}
			if err != nil {
				return userError("check %s: %w", row.Kind, err)
			}
			row.MaxL1 = max(row.MaxL1, d)
		}
		row.Pass = row.MaxL1 < jacobianThreshold
		if !row.Pass {
			failed++
		}
		rows = append(rows, row)
	}

	if flags.jsonMode {
		if err := writeJSON(cmd, rows); err != nil {
			return err
		}
	} else {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KIND\tLINK\tDIM\tSAMPLES\tSKIPPED\tMAX L1\tRESULT")
		for _, r := range rows {
			result := "ok"
			if !r.Pass {
				result = "FAIL"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%.3g\t%s\n", r.Kind, r.Link, r.Dim, r.Samples, r.Skipped, r.MaxL1, result)
		}
		tw.Flush()
	}

	if failed > 0 {
		return userError("%d constraint Jacobian(s) exceed %g", failed, jacobianThreshold)
	}
	return nil
}
