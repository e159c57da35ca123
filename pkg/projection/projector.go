// Package projection implements the Newton-type manifold projection used to
// pull configurations onto a constraint manifold.
//
// Each iteration evaluates the constraint error e and Jacobian J at q and
// applies the damped least-squares step Δq = -J⁺e with
// J⁺ = V·diag(σ/(σ²+λ²))·Uᵀ from a thin SVD of J. Damping keeps the step
// bounded where J loses rank; a rank-deficient Jacobian only slows or stalls
// convergence and never produces an error.
package projection

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mesh-intelligence/manifold/pkg/types"
)

// Function is the constraint map the projector drives to zero.
type Function interface {
	// Dim returns the length of the error vector.
	Dim() int
	// AmbientDim returns the configuration length.
	AmbientDim() int
	// Evaluate returns the error vector at q.
	Evaluate(q []float64) (*mat.VecDense, error)
	// Jacobian returns the Dim×AmbientDim derivative of Evaluate at q.
	Jacobian(q []float64) (*mat.Dense, error)
}

// Options configure a Projector.
type Options struct {
	Tolerance     float64
	MaxIterations int
	// Damping is the damped least-squares factor λ. Zero gives the plain
	// pseudo-inverse with near-zero singular values dropped.
	Damping float64
	// MaxStep limits the Euclidean length of each update. Zero disables it.
	MaxStep float64
	Logger  *zap.Logger
}

// OptionsFromSpec converts a projector specification into Options.
func OptionsFromSpec(spec types.ProjectorSpec, logger *zap.Logger) Options {
	return Options{
		Tolerance:     spec.Tolerance,
		MaxIterations: spec.MaxIterations,
		Damping:       spec.Damping,
		MaxStep:       spec.MaxStep,
		Logger:        logger,
	}
}

// Result reports the outcome of one projection.
type Result struct {
	Converged bool
	// Iterations is the number of Newton updates applied to q.
	Iterations int
	// Residual is the error norm at the returned configuration.
	Residual float64
}

// Projector runs damped Newton projections. The zero value is not usable;
// construct with New. A Projector holds no per-call state and may be shared
// across goroutines.
type Projector struct {
	opts Options
	log  *zap.Logger
}

// singularCutoff is the relative singular value below which an undamped
// pseudo-inverse treats a direction as null.
const singularCutoff = 1e-12

// New validates opts and returns a Projector.
func New(opts Options) (*Projector, error) {
	if opts.Tolerance <= 0 {
		return nil, types.ErrInvalidTolerance
	}
	if opts.MaxIterations <= 0 {
		return nil, types.ErrInvalidIterations
	}
	if opts.Damping < 0 {
		return nil, types.ErrInvalidDamping
	}
	if opts.MaxStep < 0 {
		return nil, types.ErrInvalidStep
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Projector{opts: opts, log: log}, nil
}

// Project moves q in place towards the zero set of f. On failure q holds the
// last iterate. The error is non-nil only when f cannot be evaluated at q,
// for example because len(q) != f.AmbientDim().
func (p *Projector) Project(f Function, q []float64) (Result, error) {
	if len(q) != f.AmbientDim() {
		return Result{}, fmt.Errorf("project: %w: configuration has %d values, constraint expects %d",
			types.ErrDimensionMismatch, len(q), f.AmbientDim())
	}

	step := make([]float64, len(q))
	for iter := 0; ; iter++ {
		e, err := f.Evaluate(q)
		if err != nil {
			return Result{Iterations: iter}, fmt.Errorf("project: evaluate: %w", err)
		}
		residual := mat.Norm(e, 2)
		if residual < p.opts.Tolerance {
			return Result{Converged: true, Iterations: iter, Residual: residual}, nil
		}
		if iter == p.opts.MaxIterations || math.IsNaN(residual) {
			p.log.Debug("projection did not converge",
				zap.Int("iterations", iter),
				zap.Float64("residual", residual),
				zap.Float64("tolerance", p.opts.Tolerance))
			return Result{Iterations: iter, Residual: residual}, nil
		}

		jac, err := f.Jacobian(q)
		if err != nil {
			return Result{Iterations: iter}, fmt.Errorf("project: jacobian: %w", err)
		}
		if !p.newtonStep(jac, e, step) {
			p.log.Debug("projection jacobian factorization failed", zap.Int("iterations", iter))
			return Result{Iterations: iter, Residual: residual}, nil
		}
		floats.Add(q, step)
	}
}

// newtonStep writes -J⁺e into step. It reports false when the SVD fails.
func (p *Projector) newtonStep(jac *mat.Dense, e *mat.VecDense, step []float64) bool {
	var svd mat.SVD
	if !svd.Factorize(jac, mat.SVDThin) {
		return false
	}
	sigma := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// w = diag(σ/(σ²+λ²))·Uᵀe
	w := mat.NewVecDense(len(sigma), nil)
	w.MulVec(u.T(), e)
	lambda2 := p.opts.Damping * p.opts.Damping
	cutoff := 0.0
	if len(sigma) > 0 {
		cutoff = singularCutoff * sigma[0]
	}
	for i, s := range sigma {
		if s <= cutoff {
			w.SetVec(i, 0)
			continue
		}
		w.SetVec(i, w.AtVec(i)*s/(s*s+lambda2))
	}

	dq := mat.NewVecDense(len(step), step)
	dq.MulVec(&v, w)
	dq.ScaleVec(-1, dq)

	if p.opts.MaxStep > 0 {
		if n := mat.Norm(dq, 2); n > p.opts.MaxStep {
			dq.ScaleVec(p.opts.MaxStep/n, dq)
		}
	}
	return true
}

// Project is a convenience wrapper building a Projector from opts and
// projecting q once.
func Project(f Function, q []float64, opts Options) (Result, error) {
	p, err := New(opts)
	if err != nil {
		return Result{}, err
	}
	return p.Project(f, q)
}
