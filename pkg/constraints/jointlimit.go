package constraints

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/mesh-intelligence/manifold/pkg/projection"
	"github.com/mesh-intelligence/manifold/pkg/types"
)

// JointLimitConstraint penalizes joint values outside their bounds. It has
// one error row per joint: zero within bounds, otherwise the signed excess
// beyond the violated bound. It is meant to be intersected with a task
// constraint so projection pulls samples back into the joint box.
type JointLimitConstraint struct {
	*settings
	bounds []types.JointBounds
}

// NewJointLimitConstraint builds a joint-limit constraint with one bound pair
// per joint.
func NewJointLimitConstraint(bounds []types.JointBounds, opts ...Option) (*JointLimitConstraint, error) {
	if len(bounds) == 0 {
		return nil, fmt.Errorf("joint limit constraint: %w: no bounds", types.ErrDimensionMismatch)
	}
	if err := (types.JointLimitSpec{Bounds: bounds}).Validate(); err != nil {
		return nil, err
	}
	s, err := newSettings(opts)
	if err != nil {
		return nil, fmt.Errorf("joint limit constraint: %w", err)
	}
	return &JointLimitConstraint{
		settings: s,
		bounds:   append([]types.JointBounds(nil), bounds...),
	}, nil
}

// Kind returns KindJointLimit.
func (c *JointLimitConstraint) Kind() Kind { return KindJointLimit }

// LinkName returns "".
func (c *JointLimitConstraint) LinkName() string { return "" }

// Dim returns the number of joints.
func (c *JointLimitConstraint) Dim() int { return len(c.bounds) }

// AmbientDim returns the number of joints.
func (c *JointLimitConstraint) AmbientDim() int { return len(c.bounds) }

// Bounds returns a copy of the joint bounds.
func (c *JointLimitConstraint) Bounds() []types.JointBounds {
	return append([]types.JointBounds(nil), c.bounds...)
}

func (c *JointLimitConstraint) checkLen(q []float64) error {
	if len(q) != len(c.bounds) {
		return fmt.Errorf("%w: configuration has %d values, joint limits cover %d joints",
			types.ErrDimensionMismatch, len(q), len(c.bounds))
	}
	return nil
}

// Evaluate returns max(0, q-upper) + min(0, q-lower) per joint.
func (c *JointLimitConstraint) Evaluate(q []float64) (*mat.VecDense, error) {
	if err := c.checkLen(q); err != nil {
		return nil, err
	}
	out := mat.NewVecDense(len(q), nil)
	for i, b := range c.bounds {
		out.SetVec(i, max(0, q[i]-b.Upper)+min(0, q[i]-b.Lower))
	}
	return out, nil
}

// Jacobian returns the diagonal matrix with 1 for joints outside their
// bounds and 0 elsewhere.
func (c *JointLimitConstraint) Jacobian(q []float64) (*mat.Dense, error) {
	if err := c.checkLen(q); err != nil {
		return nil, err
	}
	n := len(q)
	out := mat.NewDense(n, n, nil)
	for i, b := range c.bounds {
		if !b.Contains(q[i]) {
			out.Set(i, i, 1)
		}
	}
	return out, nil
}

// Project moves q into the joint bounds and reports success.
func (c *JointLimitConstraint) Project(q []float64) bool {
	res, err := c.ProjectResult(q)
	return err == nil && res.Converged
}

// ProjectResult projects q and returns the projection outcome.
func (c *JointLimitConstraint) ProjectResult(q []float64) (projection.Result, error) {
	return c.project(c, q)
}
