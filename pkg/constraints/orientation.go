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

// OrientationConstraint keeps the orientation of a link within per-axis
// tolerances of a target orientation.
//
// The raw error is the rotation vector r = log(R_targetᵀ·R_link), expressed
// in the target frame. Its Jacobian is J_l⁻¹(r)·R_targetᵀ·J_angular where
// J_l⁻¹ is the inverse left Jacobian of SO(3).
type OrientationConstraint struct {
	*settings
	kin        types.Kinematics
	link       string
	target     quat.Number
	targetT    *mat.Dense // rotation from root frame to target frame
	tolerances [3]float64
	band       deadband
}

// NewOrientationConstraint builds an orientation constraint on kin.
func NewOrientationConstraint(kin types.Kinematics, spec types.OrientationSpec, opts ...Option) (*OrientationConstraint, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if !kin.HasLink(spec.Link) {
		return nil, fmt.Errorf("orientation constraint: %w: %q", types.ErrUnknownLink, spec.Link)
	}
	if spec.FrameID != "" && spec.FrameID != kin.RootLink() {
		return nil, fmt.Errorf("orientation constraint %q: %w: %q (root is %q)", spec.Link, types.ErrUnsupportedFrame, spec.FrameID, kin.RootLink())
	}
	s, err := newSettings(opts)
	if err != nil {
		return nil, fmt.Errorf("orientation constraint %q: %w", spec.Link, err)
	}

	target := quatFromSlice(spec.Target)
	var tol [3]float64
	copy(tol[:], spec.Tolerances)

	return &OrientationConstraint{
		settings:   s,
		kin:        kin,
		link:       spec.Link,
		target:     target,
		targetT:    spatial.Matrix(quat.Conj(target)),
		tolerances: tol,
		band:       symmetricBand(tol[:]),
	}, nil
}

// Kind returns KindOrientation.
func (c *OrientationConstraint) Kind() Kind { return KindOrientation }

// LinkName returns the constrained link.
func (c *OrientationConstraint) LinkName() string { return c.link }

// Dim returns 3.
func (c *OrientationConstraint) Dim() int { return 3 }

// AmbientDim returns the configuration length.
func (c *OrientationConstraint) AmbientDim() int { return c.kin.DOF() }

// Target returns the target orientation.
func (c *OrientationConstraint) Target() quat.Number { return c.target }

func (c *OrientationConstraint) deviation(pose types.Pose) r3.Vec {
	return spatial.Log(quat.Mul(quat.Conj(c.target), pose.Orientation))
}

func (c *OrientationConstraint) errorJacobian(r r3.Vec, jac *mat.Dense) *mat.Dense {
	n := c.kin.DOF()
	var local mat.Dense
	local.Mul(c.targetT, jac.Slice(3, 6, 0, n))
	out := mat.NewDense(3, n, nil)
	out.Mul(spatial.InvLeftJacobian(r), &local)
	return out
}

// RawError returns the rotation vector from the target to the link
// orientation, before the tolerances are applied.
func (c *OrientationConstraint) RawError(q []float64) (*mat.VecDense, error) {
	pose, _, err := c.kin.ForwardKinematics(q, c.link)
	if err != nil {
		return nil, err
	}
	r := c.deviation(pose)
	return mat.NewVecDense(3, []float64{r.X, r.Y, r.Z}), nil
}

// Evaluate returns the per-axis deviation in excess of the tolerances.
func (c *OrientationConstraint) Evaluate(q []float64) (*mat.VecDense, error) {
	pose, _, err := c.kin.ForwardKinematics(q, c.link)
	if err != nil {
		return nil, err
	}
	r := c.deviation(pose)
	return c.band.apply([]float64{r.X, r.Y, r.Z}), nil
}

// ErrorJacobian returns the derivative of RawError.
func (c *OrientationConstraint) ErrorJacobian(q []float64) (*mat.Dense, error) {
	pose, jac, err := c.kin.ForwardKinematics(q, c.link)
	if err != nil {
		return nil, err
	}
	return c.errorJacobian(c.deviation(pose), jac), nil
}

// Jacobian returns the derivative of Evaluate.
func (c *OrientationConstraint) Jacobian(q []float64) (*mat.Dense, error) {
	pose, jac, err := c.kin.ForwardKinematics(q, c.link)
	if err != nil {
		return nil, err
	}
	r := c.deviation(pose)
	out := c.errorJacobian(r, jac)
	c.band.mask([]float64{r.X, r.Y, r.Z}, out)
	return out, nil
}

// Project moves q into the orientation tolerance and reports success.
func (c *OrientationConstraint) Project(q []float64) bool {
	res, err := c.ProjectResult(q)
	return err == nil && res.Converged
}

// ProjectResult projects q and returns the projection outcome.
func (c *OrientationConstraint) ProjectResult(q []float64) (projection.Result, error) {
	return c.project(c, q)
}

// AxisTolerances returns the allowed deviation about each target-frame axis.
func (c *OrientationConstraint) AxisTolerances() [3]float64 { return c.tolerances }
