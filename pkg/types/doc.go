// Package types defines the Kinematics interface, pose and joint-bound
// value types, the constraint specifications decoded from configuration, the
// sampling run entities, and the standard error types for manifold.
//
// Constraint implementations live in package constraints and the projector in
// package projection; both build on the definitions here.
package types
