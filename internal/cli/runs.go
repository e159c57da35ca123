package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/manifold/pkg/types"
)

// trialOutput is a Trial with a JSON-safe residual.
type trialOutput struct {
	Index      int      `json:"index"`
	Converged  bool     `json:"converged"`
	Feasible   bool     `json:"feasible"`
	Iterations int      `json:"iterations"`
	Residual   *float64 `json:"residual"`
}

type resultOutput struct {
	types.RunResult
	Trials []trialOutput `json:"trials,omitempty"`
}

type runOutput struct {
	types.Run
	Results []resultOutput `json:"results"`
}

func newRunsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored sampling runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd, flags)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one stored run with its trials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsShow(cmd, flags, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsDelete(cmd, flags, args[0])
		},
	})
	return cmd
}

// storeDataDir resolves the data directory without building constraints, so
// stored runs stay readable when config.yaml no longer validates.
func storeDataDir(flags *rootFlags) (string, error) {
	s, err := loadConfig(flags)
	if err != nil {
		return "", sysError("%w", err)
	}
	return s.dirs.Data, nil
}

func runRuns(cmd *cobra.Command, flags *rootFlags) error {
	dataDir, err := storeDataDir(flags)
	if err != nil {
		return err
	}
	store, err := attachStore(dataDir)
	if err != nil {
		return err
	}
	defer store.Detach()

	runs, err := store.ListRuns()
	if err != nil {
		return sysError("list runs: %w", err)
	}
	if flags.jsonMode {
		if runs == nil {
			runs = []types.Run{}
		}
		return writeJSON(cmd, runs)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tMODEL\tTRIALS\tSEED\tTASK FEASIBLE\tJOINT FEASIBLE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.RunID, r.CreatedAt.Local().Format(time.DateTime), r.Model, r.Trials, r.Seed,
			feasibleOf(r, types.VariantTask), feasibleOf(r, types.VariantTaskJointLimits))
	}
	return tw.Flush()
}

func runRunsShow(cmd *cobra.Command, flags *rootFlags, id string) error {
	dataDir, err := storeDataDir(flags)
	if err != nil {
		return err
	}
	store, err := attachStore(dataDir)
	if err != nil {
		return err
	}
	defer store.Detach()

	run, err := store.GetRun(id)
	if isNotFound(err) {
		return userError("run %q not found", id)
	}
	if err != nil {
		return sysError("get run: %w", err)
	}
	if flags.jsonMode {
		return writeJSON(cmd, toRunOutput(run))
	}
	printRun(cmd, run)
	return nil
}

func runRunsDelete(cmd *cobra.Command, flags *rootFlags, id string) error {
	dataDir, err := storeDataDir(flags)
	if err != nil {
		return err
	}
	store, err := attachStore(dataDir)
	if err != nil {
		return err
	}
	defer store.Detach()

	err = store.DeleteRun(id)
	if isNotFound(err) {
		return userError("run %q not found", id)
	}
	if err != nil {
		return sysError("delete run: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
	return nil
}

func feasibleOf(r types.Run, variant string) string {
	for _, res := range r.Results {
		if res.Variant == variant {
			return fmt.Sprintf("%d/%d", res.Feasible, r.Trials)
		}
	}
	return "-"
}

func toRunOutput(run *types.Run) runOutput {
	out := runOutput{Run: *run}
	for _, res := range run.Results {
		ro := resultOutput{RunResult: res}
		for _, t := range res.Trials {
			ro.Trials = append(ro.Trials, trialOutput{
				Index:      t.Index,
				Converged:  t.Converged,
				Feasible:   t.Feasible,
				Iterations: t.Iterations,
				Residual:   finite(t.Residual),
			})
		}
		out.Results = append(out.Results, ro)
	}
	return out
}
