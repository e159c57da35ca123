// Package spatial holds the rotation helpers shared by the kinematics chain
// and the task-space constraints. Rotations are unit quaternions
// (gonum num/quat) and vectors are gonum r3.Vec values.
package spatial

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Identity is the unit quaternion of the null rotation.
var Identity = quat.Number{Real: 1}

// smallAngle is the rotation angle below which series expansions replace
// the closed forms that divide by the angle.
const smallAngle = 1e-4

// AxisAngle returns the unit quaternion rotating by angle radians about axis.
// A zero axis yields Identity.
func AxisAngle(axis r3.Vec, angle float64) quat.Number {
	n := r3.Norm(axis)
	if n == 0 {
		return Identity
	}
	s, c := math.Sincos(angle / 2)
	s /= n
	return quat.Number{Real: c, Imag: s * axis.X, Jmag: s * axis.Y, Kmag: s * axis.Z}
}

// FromRPY returns the rotation Rz(yaw)·Ry(pitch)·Rx(roll), the URDF
// fixed-axis convention.
func FromRPY(roll, pitch, yaw float64) quat.Number {
	qx := AxisAngle(r3.Vec{X: 1}, roll)
	qy := AxisAngle(r3.Vec{Y: 1}, pitch)
	qz := AxisAngle(r3.Vec{Z: 1}, yaw)
	return Normalize(quat.Mul(quat.Mul(qz, qy), qx))
}

// Normalize scales q to unit length. The zero quaternion maps to Identity.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return Identity
	}
	return quat.Scale(1/n, q)
}

// Rotate applies the unit quaternion q to v.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// RotateInverse applies the inverse of the unit quaternion q to v.
func RotateInverse(q quat.Number, v r3.Vec) r3.Vec {
	return Rotate(quat.Conj(q), v)
}

// Log returns the rotation vector (unit axis scaled by angle) of q. The
// angle lies in [0, π]; q and -q give the same result.
func Log(q quat.Number) r3.Vec {
	q = Normalize(q)
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	v := r3.Vec{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	s := r3.Norm(v)
	if s == 0 {
		return r3.Vec{}
	}
	return r3.Scale(2*math.Atan2(s, q.Real)/s, v)
}

// Exp is the inverse of Log.
func Exp(r r3.Vec) quat.Number {
	return AxisAngle(r, r3.Norm(r))
}

// Matrix returns the 3×3 rotation matrix of the unit quaternion q.
func Matrix(q quat.Number) *mat.Dense {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	})
}

// Skew returns the cross-product matrix [v]× so that [v]×·u = v × u.
func Skew(v r3.Vec) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -v.Z, v.Y,
		v.Z, 0, -v.X,
		-v.Y, v.X, 0,
	})
}

// InvLeftJacobian returns the inverse of the SO(3) left Jacobian at the
// rotation vector r. It maps the spatial angular velocity of a rotation
// exp(r) to the time derivative of r. Singular as |r| approaches π.
func InvLeftJacobian(r r3.Vec) *mat.Dense {
	theta := r3.Norm(r)
	var c float64
	if theta < smallAngle {
		c = 1.0/12 + theta*theta/720
	} else {
		s, co := math.Sincos(theta / 2)
		c = 1/(theta*theta) - co/(2*theta*s)
	}

	k := Skew(r)
	var k2 mat.Dense
	k2.Mul(k, k)

	out := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	k.Scale(-0.5, k)
	out.Add(out, k)
	k2.Scale(c, &k2)
	out.Add(out, &k2)
	return out
}

// Equal reports whether a and b describe the same rotation within tol,
// treating q and -q as equal.
func Equal(a, b quat.Number, tol float64) bool {
	d := quat.Abs(quat.Sub(a, b))
	s := quat.Abs(quat.Add(a, b))
	return math.Min(d, s) <= tol
}
