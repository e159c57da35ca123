package types

import "fmt"

// Unconstrained marks a box axis that contributes no error row. Any negative
// half-extent is treated the same way.
const Unconstrained = -1.0

// Default projector settings, matching the usual constrained state space
// defaults of sampling-based planners.
const (
	DefaultTolerance     = 1e-4
	DefaultMaxIterations = 50
	DefaultDamping       = 1e-3
)

// PositionSpec describes a box the origin of Link must stay inside.
// The box is centred at Position with orientation Orientation (w, x, y, z)
// in the root frame; HalfExtents holds one half-width per box axis.
type PositionSpec struct {
	Link        string    `json:"link" yaml:"link" mapstructure:"link"`
	FrameID     string    `json:"frame_id,omitempty" yaml:"frame_id,omitempty" mapstructure:"frame_id"`
	HalfExtents []float64 `json:"half_extents" yaml:"half_extents" mapstructure:"half_extents"`
	Position    []float64 `json:"position" yaml:"position" mapstructure:"position"`
	Orientation []float64 `json:"orientation,omitempty" yaml:"orientation,omitempty" mapstructure:"orientation"`
}

// ConstrainedAxes returns the indices of the box axes with a non-negative
// half-extent.
func (s PositionSpec) ConstrainedAxes() []int {
	var axes []int
	for i, h := range s.HalfExtents {
		if h >= 0 {
			axes = append(axes, i)
		}
	}
	return axes
}

// Validate checks the field shapes. Link existence is checked
// against a Kinematics when the constraint is built.
func (s PositionSpec) Validate() error {
	if s.Link == "" {
		return fmt.Errorf("position constraint: %w: empty link name", ErrUnknownLink)
	}
	if len(s.HalfExtents) != 3 {
		return fmt.Errorf("position constraint %q: %w: want 3 half-extents, got %d", s.Link, ErrDimensionMismatch, len(s.HalfExtents))
	}
	if len(s.ConstrainedAxes()) == 0 {
		return fmt.Errorf("position constraint %q: %w", s.Link, ErrEmptyRegion)
	}
	if len(s.Position) != 3 {
		return fmt.Errorf("position constraint %q: %w: want 3 position values, got %d", s.Link, ErrDimensionMismatch, len(s.Position))
	}
	if err := validateQuaternion(s.Orientation, true); err != nil {
		return fmt.Errorf("position constraint %q: %w", s.Link, err)
	}
	return nil
}

// OrientationSpec keeps the orientation of Link within per-axis tolerances
// of Target (w, x, y, z).
type OrientationSpec struct {
	Link       string    `json:"link" yaml:"link" mapstructure:"link"`
	FrameID    string    `json:"frame_id,omitempty" yaml:"frame_id,omitempty" mapstructure:"frame_id"`
	Target     []float64 `json:"target" yaml:"target" mapstructure:"target"`
	Tolerances []float64 `json:"tolerances" yaml:"tolerances" mapstructure:"tolerances"`
}

// Validate checks the field shapes.
func (s OrientationSpec) Validate() error {
	if s.Link == "" {
		return fmt.Errorf("orientation constraint: %w: empty link name", ErrUnknownLink)
	}
	if err := validateQuaternion(s.Target, false); err != nil {
		return fmt.Errorf("orientation constraint %q: %w", s.Link, err)
	}
	if len(s.Tolerances) != 3 {
		return fmt.Errorf("orientation constraint %q: %w: want 3 tolerances, got %d", s.Link, ErrDimensionMismatch, len(s.Tolerances))
	}
	for _, tol := range s.Tolerances {
		if tol < 0 {
			return fmt.Errorf("orientation constraint %q: %w", s.Link, ErrInvalidOrientation)
		}
	}
	return nil
}

// JointLimitSpec enables the joint-limit constraint. An empty Bounds slice
// means the bounds of the kinematic model.
type JointLimitSpec struct {
	Enabled bool          `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Bounds  []JointBounds `json:"bounds,omitempty" yaml:"bounds,omitempty" mapstructure:"bounds"`
}

// Validate checks that every bound pair is ordered.
func (s JointLimitSpec) Validate() error {
	for i, b := range s.Bounds {
		if b.Lower > b.Upper {
			return fmt.Errorf("joint limit %d: %w: [%g, %g]", i, ErrInvalidBounds, b.Lower, b.Upper)
		}
	}
	return nil
}

// ProjectorSpec holds the Newton projection settings.
type ProjectorSpec struct {
	Tolerance     float64 `json:"tolerance" yaml:"tolerance" mapstructure:"tolerance"`
	MaxIterations int     `json:"max_iterations" yaml:"max_iterations" mapstructure:"max_iterations"`
	Damping       float64 `json:"damping" yaml:"damping" mapstructure:"damping"`
	MaxStep       float64 `json:"max_step" yaml:"max_step" mapstructure:"max_step"`
}

// DefaultProjectorSpec returns the projector defaults.
func DefaultProjectorSpec() ProjectorSpec {
	return ProjectorSpec{
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
		Damping:       DefaultDamping,
	}
}

// Validate checks the projector settings.
func (s ProjectorSpec) Validate() error {
	if s.Tolerance <= 0 {
		return ErrInvalidTolerance
	}
	if s.MaxIterations <= 0 {
		return ErrInvalidIterations
	}
	if s.Damping < 0 {
		return ErrInvalidDamping
	}
	if s.MaxStep < 0 {
		return ErrInvalidStep
	}
	return nil
}

// ConstraintsSpec groups the task constraints and the optional joint limits.
type ConstraintsSpec struct {
	Position    []PositionSpec    `json:"position,omitempty" yaml:"position,omitempty" mapstructure:"position"`
	Orientation []OrientationSpec `json:"orientation,omitempty" yaml:"orientation,omitempty" mapstructure:"orientation"`
	JointLimits JointLimitSpec    `json:"joint_limits" yaml:"joint_limits" mapstructure:"joint_limits"`
}

// Validate checks every member specification. At least one task constraint
// is required.
func (s ConstraintsSpec) Validate() error {
	if len(s.Position) == 0 && len(s.Orientation) == 0 {
		return ErrNoConstraints
	}
	for _, p := range s.Position {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	for _, o := range s.Orientation {
		if err := o.Validate(); err != nil {
			return err
		}
	}
	return s.JointLimits.Validate()
}

func validateQuaternion(q []float64, optional bool) error {
	if len(q) == 0 && optional {
		return nil
	}
	if len(q) != 4 {
		return fmt.Errorf("%w: want 4 quaternion values, got %d", ErrDimensionMismatch, len(q))
	}
	if q[0] == 0 && q[1] == 0 && q[2] == 0 && q[3] == 0 {
		return ErrInvalidQuaternion
	}
	return nil
}
