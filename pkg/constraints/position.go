package constraints

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mesh-intelligence/manifold/internal/spatial"
	"github.com/mesh-intelligence/manifold/pkg/projection"
	"github.com/mesh-intelligence/manifold/pkg/types"
)

// PositionConstraint keeps the origin of a link inside an oriented box.
// Only axes with a non-negative half-extent contribute an error row.
type PositionConstraint struct {
	*settings
	kin    types.Kinematics
	link   string
	center r3.Vec
	box    quat.Number
	boxT   *mat.Dense // rotation from root frame to box frame
	axes   []int
	band   deadband
}

// NewPositionConstraint builds a position constraint on kin from spec.
func NewPositionConstraint(kin types.Kinematics, spec types.PositionSpec, opts ...Option) (*PositionConstraint, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if !kin.HasLink(spec.Link) {
		return nil, fmt.Errorf("position constraint: %w: %q", types.ErrUnknownLink, spec.Link)
	}
	if spec.FrameID != "" && spec.FrameID != kin.RootLink() {
		return nil, fmt.Errorf("position constraint %q: %w: %q (root is %q)", spec.Link, types.ErrUnsupportedFrame, spec.FrameID, kin.RootLink())
	}
	s, err := newSettings(opts)
	if err != nil {
		return nil, fmt.Errorf("position constraint %q: %w", spec.Link, err)
	}

	box := spatial.Identity
	if len(spec.Orientation) == 4 {
		box = quatFromSlice(spec.Orientation)
	}
	axes := spec.ConstrainedAxes()
	half := make([]float64, len(axes))
	for i, a := range axes {
		half[i] = spec.HalfExtents[a]
	}

	return &PositionConstraint{
		settings: s,
		kin:      kin,
		link:     spec.Link,
		center:   r3.Vec{X: spec.Position[0], Y: spec.Position[1], Z: spec.Position[2]},
		box:      box,
		boxT:     spatial.Matrix(quat.Conj(box)),
		axes:     axes,
		band:     symmetricBand(half),
	}, nil
}

// Kind returns KindPosition.
func (c *PositionConstraint) Kind() Kind { return KindPosition }

// LinkName returns the constrained link.
func (c *PositionConstraint) LinkName() string { return c.link }

// Dim returns the number of constrained axes.
func (c *PositionConstraint) Dim() int { return len(c.axes) }

// AmbientDim returns the configuration length.
func (c *PositionConstraint) AmbientDim() int { return c.kin.DOF() }

// Axes returns the box axes (0=x, 1=y, 2=z) in error-row order.
func (c *PositionConstraint) Axes() []int {
	return append([]int(nil), c.axes...)
}

// rawError returns the link position in the box frame, constrained axes only.
func (c *PositionConstraint) rawError(pose types.Pose) []float64 {
	local := spatial.RotateInverse(c.box, r3.Sub(pose.Position, c.center))
	all := [3]float64{local.X, local.Y, local.Z}
	raw := make([]float64, len(c.axes))
	for i, a := range c.axes {
		raw[i] = all[a]
	}
	return raw
}

// errorJacobian rotates the linear block of jac into the box frame and keeps
// the constrained rows.
func (c *PositionConstraint) errorJacobian(jac *mat.Dense) *mat.Dense {
	n := c.kin.DOF()
	var rotated mat.Dense
	rotated.Mul(c.boxT, jac.Slice(0, 3, 0, n))
	out := mat.NewDense(len(c.axes), n, nil)
	for i, a := range c.axes {
		out.SetRow(i, rotated.RawRowView(a))
	}
	return out
}

// RawError returns the link position in the box frame for the constrained
// axes, before the deadband is applied.
func (c *PositionConstraint) RawError(q []float64) (*mat.VecDense, error) {
	pose, _, err := c.kin.ForwardKinematics(q, c.link)
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(len(c.axes), c.rawError(pose)), nil
}

// Evaluate returns the distance outside the box along each constrained axis.
func (c *PositionConstraint) Evaluate(q []float64) (*mat.VecDense, error) {
	pose, _, err := c.kin.ForwardKinematics(q, c.link)
	if err != nil {
		return nil, err
	}
	return c.band.apply(c.rawError(pose)), nil
}

// ErrorJacobian returns the derivative of RawError.
func (c *PositionConstraint) ErrorJacobian(q []float64) (*mat.Dense, error) {
	_, jac, err := c.kin.ForwardKinematics(q, c.link)
	if err != nil {
		return nil, err
	}
	return c.errorJacobian(jac), nil
}

// Jacobian returns the derivative of Evaluate: ErrorJacobian with the rows
// of axes inside the box zeroed.
func (c *PositionConstraint) Jacobian(q []float64) (*mat.Dense, error) {
	pose, jac, err := c.kin.ForwardKinematics(q, c.link)
	if err != nil {
		return nil, err
	}
	out := c.errorJacobian(jac)
	c.band.mask(c.rawError(pose), out)
	return out, nil
}

// Project moves q onto the box and reports success.
func (c *PositionConstraint) Project(q []float64) bool {
	res, err := c.ProjectResult(q)
	return err == nil && res.Converged
}

// ProjectResult projects q and returns the projection outcome.
func (c *PositionConstraint) ProjectResult(q []float64) (projection.Result, error) {
	return c.project(c, q)
}

// quatFromSlice builds a unit quaternion from (w, x, y, z).
func quatFromSlice(v []float64) quat.Number {
	return spatial.Normalize(quat.Number{Real: v[0], Imag: v[1], Jmag: v[2], Kmag: v[3]})
}
