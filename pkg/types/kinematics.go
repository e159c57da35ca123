package types

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pose is a rigid transform: a position and a unit-quaternion orientation,
// both expressed in the kinematic model's root frame.
type Pose struct {
	Position    r3.Vec
	Orientation quat.Number
}

// JointBounds is the closed interval [Lower, Upper] a joint may occupy.
type JointBounds struct {
	Lower float64 `json:"lower" yaml:"lower" mapstructure:"lower"`
	Upper float64 `json:"upper" yaml:"upper" mapstructure:"upper"`
}

// Contains reports whether v lies within the bounds.
func (b JointBounds) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

// Clamp returns v limited to the bounds.
func (b JointBounds) Clamp(v float64) float64 {
	if v < b.Lower {
		return b.Lower
	}
	if v > b.Upper {
		return b.Upper
	}
	return v
}

// Kinematics is the forward-kinematics service the constraints consume.
// Implementations must be safe for concurrent use when each call passes its
// own configuration slice.
type Kinematics interface {
	// DOF returns the number of active joints n.
	DOF() int

	// RootLink returns the name of the fixed frame poses are expressed in.
	RootLink() string

	// HasLink reports whether the model contains a link with the given name.
	HasLink(name string) bool

	// Bounds returns one JointBounds per active joint, in configuration order.
	Bounds() []JointBounds

	// ForwardKinematics returns the pose of link at configuration q and its
	// 6×n geometric Jacobian. Rows 0-2 are linear velocity, rows 3-5 angular
	// velocity, both in the root frame.
	ForwardKinematics(q []float64, link string) (Pose, *mat.Dense, error)
}
