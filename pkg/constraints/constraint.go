package constraints

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/manifold/pkg/projection"
	"github.com/mesh-intelligence/manifold/pkg/types"
)

// Kind tags the constraint variant.
type Kind int

// Constraint variants.
const (
	KindPosition Kind = iota + 1
	KindOrientation
	KindJointLimit
	KindIntersection
)

func (k Kind) String() string {
	switch k {
	case KindPosition:
		return "position"
	case KindOrientation:
		return "orientation"
	case KindJointLimit:
		return "joint_limit"
	case KindIntersection:
		return "intersection"
	default:
		return "unknown"
	}
}

// Constraint is the capability set shared by every variant.
type Constraint interface {
	projection.Function

	// Kind returns the variant tag.
	Kind() Kind

	// LinkName returns the constrained link, or "" for joint-space and
	// composite constraints.
	LinkName() string

	Tolerance() float64
	SetTolerance(tol float64) error
	MaxIterations() int
	SetMaxIterations(k int) error

	// Project moves q in place onto the constraint manifold and reports
	// whether the error norm dropped below the tolerance.
	Project(q []float64) bool

	// ProjectResult is Project with the full projection outcome.
	ProjectResult(q []float64) (projection.Result, error)

	sealed()
}

// Option adjusts the projection settings of a constraint at construction.
type Option func(*settings)

// WithTolerance sets the projection tolerance.
func WithTolerance(tol float64) Option {
	return func(s *settings) { s.tolerance = tol }
}

// WithMaxIterations sets the projection iteration budget.
func WithMaxIterations(k int) Option {
	return func(s *settings) { s.maxIterations = k }
}

// WithDamping sets the damped least-squares factor.
func WithDamping(lambda float64) Option {
	return func(s *settings) { s.damping = lambda }
}

// WithMaxStep limits the length of each Newton update.
func WithMaxStep(step float64) Option {
	return func(s *settings) { s.maxStep = step }
}

// WithLogger routes projection diagnostics to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithProjectorSpec applies every field of a projector specification.
func WithProjectorSpec(spec types.ProjectorSpec) Option {
	return func(s *settings) {
		s.tolerance = spec.Tolerance
		s.maxIterations = spec.MaxIterations
		s.damping = spec.Damping
		s.maxStep = spec.MaxStep
	}
}

// settings is the mutable part of a constraint.
type settings struct {
	mu            sync.RWMutex
	tolerance     float64
	maxIterations int
	damping       float64
	maxStep       float64
	logger        *zap.Logger
}

func newSettings(opts []Option) (*settings, error) {
	s := &settings{
		tolerance:     types.DefaultTolerance,
		maxIterations: types.DefaultMaxIterations,
		damping:       types.DefaultDamping,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	spec := types.ProjectorSpec{
		Tolerance:     s.tolerance,
		MaxIterations: s.maxIterations,
		Damping:       s.damping,
		MaxStep:       s.maxStep,
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Tolerance returns the projection tolerance.
func (s *settings) Tolerance() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tolerance
}

// SetTolerance changes the projection tolerance for subsequent projections.
func (s *settings) SetTolerance(tol float64) error {
	if tol <= 0 {
		return types.ErrInvalidTolerance
	}
	s.mu.Lock()
	s.tolerance = tol
	s.mu.Unlock()
	return nil
}

// MaxIterations returns the projection iteration budget.
func (s *settings) MaxIterations() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxIterations
}

// SetMaxIterations changes the iteration budget for subsequent projections.
func (s *settings) SetMaxIterations(k int) error {
	if k <= 0 {
		return types.ErrInvalidIterations
	}
	s.mu.Lock()
	s.maxIterations = k
	s.mu.Unlock()
	return nil
}

func (s *settings) options() projection.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return projection.Options{
		Tolerance:     s.tolerance,
		MaxIterations: s.maxIterations,
		Damping:       s.damping,
		MaxStep:       s.maxStep,
		Logger:        s.logger,
	}
}

// project runs the projector on f with the current settings.
func (s *settings) project(f Constraint, q []float64) (projection.Result, error) {
	res, err := projection.Project(f, q, s.options())
	if err != nil {
		s.logger.Debug("projection aborted", zap.Stringer("kind", f.Kind()), zap.Error(err))
	}
	return res, err
}

func (*settings) sealed() {}
