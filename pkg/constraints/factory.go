package constraints

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/manifold/pkg/types"
)

// Set is the constraint collection built from a ConstraintsSpec.
type Set struct {
	// Task is the single task constraint, or the intersection of several.
	Task Constraint
	// JointLimits is nil when joint limits are disabled.
	JointLimits *JointLimitConstraint
	// Full is Task intersected with JointLimits, or Task when they are
	// disabled.
	Full Constraint
}

// FromSpec builds every constraint of spec against kin. All constraints use
// the projector settings of proj.
func FromSpec(kin types.Kinematics, spec types.ConstraintsSpec, proj types.ProjectorSpec, logger *zap.Logger) (*Set, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := proj.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []Option{WithProjectorSpec(proj), WithLogger(logger)}

	var task []Constraint
	for _, ps := range spec.Position {
		c, err := NewPositionConstraint(kin, ps, opts...)
		if err != nil {
			return nil, err
		}
		task = append(task, c)
	}
	for _, oc := range spec.Orientation {
		c, err := NewOrientationConstraint(kin, oc, opts...)
		if err != nil {
			return nil, err
		}
		task = append(task, c)
	}

	set := &Set{}
	if len(task) == 1 {
		set.Task = task[0]
	} else {
		ci, err := NewIntersection(task, opts...)
		if err != nil {
			return nil, err
		}
		set.Task = ci
	}
	set.Full = set.Task

	if spec.JointLimits.Enabled {
		bounds := spec.JointLimits.Bounds
		if len(bounds) == 0 {
			bounds = kin.Bounds()
		}
		if len(bounds) != kin.DOF() {
			return nil, fmt.Errorf("joint limits: %w: %d bounds for %d joints", types.ErrDimensionMismatch, len(bounds), kin.DOF())
		}
		jl, err := NewJointLimitConstraint(bounds, opts...)
		if err != nil {
			return nil, err
		}
		full, err := NewIntersection([]Constraint{set.Task, jl}, opts...)
		if err != nil {
			return nil, err
		}
		set.JointLimits = jl
		set.Full = full
	}

	logger.Debug("constraints built",
		zap.Stringer("task", set.Task.Kind()),
		zap.Int("task_dim", set.Task.Dim()),
		zap.Int("full_dim", set.Full.Dim()),
		zap.Bool("joint_limits", set.JointLimits != nil))
	return set, nil
}
