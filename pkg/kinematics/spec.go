package kinematics

import (
	"fmt"
	"math"

	"github.com/mesh-intelligence/manifold/pkg/types"
)

// JointType is the kind of motion a joint allows.
type JointType string

// Supported joint types.
const (
	Revolute  JointType = "revolute"
	Prismatic JointType = "prismatic"
	Fixed     JointType = "fixed"
)

// JointSpec describes one joint and the link it moves. The joint frame is
// the parent link frame translated by Origin and rotated by RPY; the child
// link frame is the joint frame moved along or about Axis by the joint value.
type JointSpec struct {
	Name   string    `yaml:"name"`
	Type   JointType `yaml:"type"`
	Child  string    `yaml:"child"`
	Origin []float64 `yaml:"origin,omitempty"`
	RPY    []float64 `yaml:"rpy,omitempty"`
	Axis   []float64 `yaml:"axis,omitempty"`
	Lower  float64   `yaml:"lower"`
	Upper  float64   `yaml:"upper"`
}

// ModelSpec is a serial chain rooted at Root. Joints are listed from the
// root outwards; each joint's parent is the previous joint's child.
type ModelSpec struct {
	Name   string      `yaml:"name"`
	Root   string      `yaml:"root"`
	Joints []JointSpec `yaml:"joints"`
}

// active reports whether the joint contributes a configuration value.
func (j JointSpec) active() bool {
	return j.Type == Revolute || j.Type == Prismatic
}

// bounds returns the joint's limits. A revolute joint with no limits set is
// given one full turn.
func (j JointSpec) bounds() types.JointBounds {
	if j.Type == Revolute && j.Lower == 0 && j.Upper == 0 {
		return types.JointBounds{Lower: -math.Pi, Upper: math.Pi}
	}
	return types.JointBounds{Lower: j.Lower, Upper: j.Upper}
}

func (j JointSpec) validate() error {
	switch j.Type {
	case Revolute, Prismatic, Fixed:
	default:
		return fmt.Errorf("joint %q: %w: %q", j.Name, types.ErrInvalidJointType, j.Type)
	}
	if j.Child == "" {
		return fmt.Errorf("joint %q: %w: empty child link", j.Name, types.ErrUnknownLink)
	}
	if len(j.Origin) != 0 && len(j.Origin) != 3 {
		return fmt.Errorf("joint %q origin: %w", j.Name, types.ErrDimensionMismatch)
	}
	if len(j.RPY) != 0 && len(j.RPY) != 3 {
		return fmt.Errorf("joint %q rpy: %w", j.Name, types.ErrDimensionMismatch)
	}
	if j.active() {
		if len(j.Axis) != 3 {
			return fmt.Errorf("joint %q axis: %w", j.Name, types.ErrDimensionMismatch)
		}
		if j.Axis[0] == 0 && j.Axis[1] == 0 && j.Axis[2] == 0 {
			return fmt.Errorf("joint %q: %w", j.Name, types.ErrInvalidAxis)
		}
		if b := j.bounds(); b.Lower > b.Upper {
			return fmt.Errorf("joint %q: %w", j.Name, types.ErrInvalidBounds)
		}
	}
	return nil
}

func vec3(v []float64) [3]float64 {
	var out [3]float64
	copy(out[:], v)
	return out
}
