package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/manifold/internal/sampler"
	"github.com/mesh-intelligence/manifold/pkg/types"
)

type sampleFlags struct {
	trials      int
	seed        uint64
	workers     int
	metricsFile string
	noStore     bool
}

func newSampleCmd(flags *rootFlags) *cobra.Command {
	sf := &sampleFlags{}
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Compare task-only and joint-limited projection over a sample batch",
		Long: `Sample draws seeded configurations uniformly within the joint bounds and
projects each twice: onto the task constraints alone, and onto the task
constraints intersected with the joint limits. Converged results are clamped
to the joint bounds; a sample is feasible when the task constraints still
hold afterwards.

Flags override the sampling section of config.yaml. Unless --no-store is
given the run is saved to the run store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(cmd, flags, sf)
		},
	}
	cmd.Flags().IntVar(&sf.trials, "trials", 0, "number of samples (default from config)")
	cmd.Flags().Uint64Var(&sf.seed, "seed", 0, "random seed (default from config)")
	cmd.Flags().IntVar(&sf.workers, "workers", 0, "concurrent projections (default from config, 0 = GOMAXPROCS)")
	cmd.Flags().StringVar(&sf.metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file")
	cmd.Flags().BoolVar(&sf.noStore, "no-store", false, "do not save the run")
	return cmd
}

func runSample(cmd *cobra.Command, flags *rootFlags, sf *sampleFlags) error {
	e, err := loadEnv(cmd, flags)
	if err != nil {
		return err
	}
	if e.set.JointLimits == nil {
		return userError("sample compares against joint limits; enable constraints.joint_limits")
	}

	spec := e.config.Sampling
	if cmd.Flags().Changed("trials") {
		spec.Trials = sf.trials
	}
	if cmd.Flags().Changed("seed") {
		spec.Seed = sf.seed
	}
	if cmd.Flags().Changed("workers") {
		spec.Workers = sf.workers
	}
	if err := spec.Validate(); err != nil {
		return userError("sampling: %w", err)
	}

	reg := prometheus.NewRegistry()
	s, err := sampler.New(e.chain.Bounds(),
		sampler.WithWorkers(spec.Workers),
		sampler.WithMetrics(sampler.NewMetrics(reg)),
		sampler.WithLogger(e.log))
	if err != nil {
		return userError("sampler: %w", err)
	}

	cmp, err := s.Compare(cmd.Context(), e.set.Task, e.set.Full, spec.Trials, spec.Seed)
	if err != nil {
		return sysError("sample: %w", err)
	}

	run := &types.Run{
		Model:     e.chain.Name(),
		Trials:    spec.Trials,
		Seed:      spec.Seed,
		CreatedAt: time.Now().UTC(),
		Results:   []types.RunResult{cmp.Task, cmp.Joint},
	}

	if sf.metricsFile != "" {
		if err := prometheus.WriteToTextfile(sf.metricsFile, reg); err != nil {
			return sysError("write metrics: %w", err)
		}
	}

	if !sf.noStore {
		store, err := attachStore(e.dirs.Data)
		if err != nil {
			return err
		}
		defer store.Detach()
		if _, err := store.SaveRun(run); err != nil {
			return sysError("save run: %w", err)
		}
		e.log.Info("run saved", zap.String("run_id", run.RunID))
	}

	if flags.jsonMode {
		summary := *run
		summary.Results = []types.RunResult{withoutTrials(cmp.Task), withoutTrials(cmp.Joint)}
		return writeJSON(cmd, summary)
	}
	printRun(cmd, run)
	return nil
}

func withoutTrials(r types.RunResult) types.RunResult {
	r.Trials = nil
	return r
}

// printRun writes a run summary table.
func printRun(cmd *cobra.Command, run *types.Run) {
	w := cmd.OutOrStdout()
	if run.RunID != "" {
		fmt.Fprintf(w, "run:    %s\n", run.RunID)
	}
	fmt.Fprintf(w, "model:  %s\n", run.Model)
	fmt.Fprintf(w, "trials: %d  seed: %d\n\n", run.Trials, run.Seed)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIANT\tPROJECTED\tFEASIBLE\tINFEASIBLE\tMEAN ITER\tDURATION")
	for _, r := range run.Results {
		fmt.Fprintf(tw, "%s\t%d/%d\t%d/%d\t%d\t%.2f\t%s\n",
			r.Variant, r.Projected, run.Trials, r.Feasible, run.Trials,
			r.Infeasible(run.Trials), r.MeanIterations, r.Duration.Round(time.Microsecond))
	}
	tw.Flush()
}
