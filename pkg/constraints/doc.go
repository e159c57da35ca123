// Package constraints implements the task-space and joint-space constraints
// a sampling-based planner projects configurations onto.
//
// The variant set is closed: PositionConstraint, OrientationConstraint,
// JointLimitConstraint and Intersection. All satisfy Constraint, which adds
// tolerance and iteration bookkeeping and in-place projection on top of
// projection.Function.
//
// Position and orientation errors use a deadband: the raw task-space error is
// zero anywhere inside the allowed region and grows linearly outside it. The
// error is therefore not differentiable exactly at a box face or tolerance
// boundary, and the orientation error is additionally discontinuous at a
// deviation angle of π.
package constraints
