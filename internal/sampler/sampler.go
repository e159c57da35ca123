// Package sampler runs batches of projections from uniformly drawn joint
// configurations and reports how many end on the constraint manifold and
// inside the joint bounds. It is the harness used to compare task-only
// projection followed by bound clamping against projection onto the
// intersection of the task constraint with the joint limits.
package sampler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/mesh-intelligence/manifold/pkg/constraints"
	"github.com/mesh-intelligence/manifold/pkg/types"
)

// Sampler draws and projects configurations for one kinematic model.
type Sampler struct {
	bounds  []types.JointBounds
	workers int
	metrics *Metrics
	log     *zap.Logger
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithWorkers bounds the number of concurrent projections. Zero means
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Sampler) { s.workers = n }
}

// WithMetrics records every projection in m.
func WithMetrics(m *Metrics) Option {
	return func(s *Sampler) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sampler) { s.log = l }
}

// New returns a Sampler drawing within bounds.
func New(bounds []types.JointBounds, opts ...Option) (*Sampler, error) {
	if len(bounds) == 0 {
		return nil, fmt.Errorf("sampler: %w: no joint bounds", types.ErrDimensionMismatch)
	}
	s := &Sampler{bounds: append([]types.JointBounds(nil), bounds...)}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers < 0 {
		return nil, types.ErrInvalidWorkers
	}
	if s.workers == 0 {
		s.workers = runtime.GOMAXPROCS(0)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s, nil
}

// Draw returns n configurations drawn uniformly within the bounds from a
// PCG source seeded with seed. The same seed always yields the same samples.
func (s *Sampler) Draw(n int, seed uint64) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	samples := make([][]float64, n)
	for i := range samples {
		q := make([]float64, len(s.bounds))
		for j, b := range s.bounds {
			q[j] = b.Lower + rng.Float64()*(b.Upper-b.Lower)
		}
		samples[i] = q
	}
	return samples
}

// Clamp limits q to the joint bounds in place.
func (s *Sampler) Clamp(q []float64) {
	for i, b := range s.bounds {
		q[i] = b.Clamp(q[i])
	}
}

// Run projects a copy of every sample with c, clamps converged results to
// the joint bounds and counts the ones on which check still holds. Samples
// are not modified.
func (s *Sampler) Run(ctx context.Context, variant string, c, check constraints.Constraint, samples [][]float64) (types.RunResult, error) {
	start := time.Now()
	trials := make([]types.Trial, len(samples))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, sample := range samples {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			trial, err := s.trial(c, check, sample)
			if err != nil {
				return fmt.Errorf("sample %d: %w", i, err)
			}
			trial.Index = i
			trials[i] = trial
			s.metrics.record(variant, trial.Converged, trial.Feasible, trial.Iterations)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return types.RunResult{}, err
	}

	result := types.RunResult{
		Variant:  variant,
		Duration: time.Since(start),
		Trials:   trials,
	}
	totalIter := 0
	for _, t := range trials {
		totalIter += t.Iterations
		if t.Converged {
			result.Projected++
		}
		if t.Feasible {
			result.Feasible++
		}
	}
	if len(trials) > 0 {
		result.MeanIterations = float64(totalIter) / float64(len(trials))
	}

	s.log.Info("sampling run finished",
		zap.String("variant", variant),
		zap.Int("trials", len(trials)),
		zap.Int("projected", result.Projected),
		zap.Int("feasible", result.Feasible),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func (s *Sampler) trial(c, check constraints.Constraint, sample []float64) (types.Trial, error) {
	q := append([]float64(nil), sample...)
	res, err := c.ProjectResult(q)
	if err != nil {
		return types.Trial{}, err
	}
	trial := types.Trial{
		Converged:  res.Converged,
		Iterations: res.Iterations,
		Residual:   res.Residual,
	}
	if !res.Converged {
		return trial, nil
	}

	s.Clamp(q)
	e, err := check.Evaluate(q)
	if err != nil {
		return types.Trial{}, err
	}
	trial.Feasible = mat.Norm(e, 2) < check.Tolerance()
	return trial, nil
}

// Comparison holds the two variants of a sampling run.
type Comparison struct {
	Seed  uint64
	Task  types.RunResult
	Joint types.RunResult
}

// Compare projects the same samples with the task constraint alone and with
// full, the task constraint intersected with the joint limits. Feasibility of
// both is judged by task after clamping to the joint bounds.
func (s *Sampler) Compare(ctx context.Context, task, full constraints.Constraint, trials int, seed uint64) (Comparison, error) {
	if trials <= 0 {
		return Comparison{}, types.ErrInvalidTrials
	}
	samples := s.Draw(trials, seed)

	taskRes, err := s.Run(ctx, types.VariantTask, task, task, samples)
	if err != nil {
		return Comparison{}, fmt.Errorf("run %s: %w", types.VariantTask, err)
	}
	jointRes, err := s.Run(ctx, types.VariantTaskJointLimits, full, task, samples)
	if err != nil {
		return Comparison{}, fmt.Errorf("run %s: %w", types.VariantTaskJointLimits, err)
	}
	return Comparison{Seed: seed, Task: taskRes, Joint: jointRes}, nil
}
