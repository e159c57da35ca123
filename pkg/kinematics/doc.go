// Package kinematics provides a serial-chain kinematic model implementing
// types.Kinematics: forward kinematics by quaternion composition and the
// geometric Jacobian of any link on the chain.
//
// Models are described URDF-style (joint origin xyz/rpy, axis, limits) either
// in Go through ModelSpec, through one of the built-in models, or in a YAML
// file loaded with LoadFile. A Chain is immutable after New and safe for
// concurrent use.
package kinematics
