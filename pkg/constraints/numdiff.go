package constraints

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mesh-intelligence/manifold/pkg/types"
)

// DefaultStep is the finite-difference step used to check Jacobians.
const DefaultStep = 1e-6

// SingularMargin is how close to π an orientation deviation may get before
// JacobianError refuses to compare derivatives there.
const SingularMargin = 0.05

// NumericalJacobian approximates the Jacobian of f at q by central
// differences with step h. q is not modified.
func NumericalJacobian(f func(q []float64) (*mat.VecDense, error), q []float64, h float64) (*mat.Dense, error) {
	x := append([]float64(nil), q...)
	var out *mat.Dense
	for j := range x {
		x[j] = q[j] + h
		plus, err := f(x)
		if err != nil {
			return nil, err
		}
		x[j] = q[j] - h
		minus, err := f(x)
		if err != nil {
			return nil, err
		}
		x[j] = q[j]

		if out == nil {
			out = mat.NewDense(plus.Len(), len(q), nil)
		}
		for i := 0; i < plus.Len(); i++ {
			out.Set(i, j, (plus.AtVec(i)-minus.AtVec(i))/(2*h))
		}
	}
	return out, nil
}

// L1Distance returns the sum of absolute element differences of a and b,
// the matrix entrywise L1 norm of a-b.
func L1Distance(a, b mat.Matrix) float64 {
	var d mat.Dense
	d.Sub(a, b)
	r, c := d.Dims()
	sum := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := d.At(i, j)
			if v < 0 {
				v = -v
			}
			sum += v
		}
	}
	return sum
}

// smoothError is implemented by constraints whose deadband is applied on
// top of a smooth raw error.
type smoothError interface {
	RawError(q []float64) (*mat.VecDense, error)
	ErrorJacobian(q []float64) (*mat.Dense, error)
}

// JacobianError returns the L1 distance between the analytic Jacobian of c
// at q and its central-difference estimate with step h. Constraints with a
// smooth raw error are compared on that error, since the deadband derivative
// does not exist on the region boundary. For an orientation deviation within
// SingularMargin of π it returns ErrNearSingularity.
func JacobianError(c Constraint, q []float64, h float64) (float64, error) {
	eval, jacobian := c.Evaluate, c.Jacobian
	if s, ok := c.(smoothError); ok {
		eval, jacobian = s.RawError, s.ErrorJacobian
	}
	if o, ok := c.(*OrientationConstraint); ok {
		r, err := o.RawError(q)
		if err != nil {
			return 0, err
		}
		if mat.Norm(r, 2) > math.Pi-SingularMargin {
			return 0, types.ErrNearSingularity
		}
	}
	analytic, err := jacobian(q)
	if err != nil {
		return 0, err
	}
	numeric, err := NumericalJacobian(eval, q, h)
	if err != nil {
		return 0, err
	}
	return L1Distance(analytic, numeric), nil
}

// Leaves returns the non-intersection constraints reachable from c in
// stacking order.
func Leaves(c Constraint) []Constraint {
	ci, ok := c.(*Intersection)
	if !ok {
		return []Constraint{c}
	}
	var out []Constraint
	for _, m := range ci.members {
		out = append(out, Leaves(m)...)
	}
	return out
}
