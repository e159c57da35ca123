package types

import "errors"

// Constraint construction errors.
var (
	ErrEmptyRegion        = errors.New("constraint region has no constrained axes")
	ErrDimensionMismatch  = errors.New("dimension mismatch")
	ErrInvalidTolerance   = errors.New("tolerance must be positive")
	ErrInvalidIterations  = errors.New("max iterations must be positive")
	ErrInvalidQuaternion  = errors.New("quaternion must be non-zero")
	ErrInvalidBounds      = errors.New("lower bound exceeds upper bound")
	ErrUnknownLink        = errors.New("unknown link")
	ErrUnsupportedFrame   = errors.New("unsupported reference frame")
	ErrNoMembers          = errors.New("intersection needs at least one member")
	ErrNoConstraints      = errors.New("no task constraints configured")
	ErrInvalidDamping     = errors.New("damping must not be negative")
	ErrInvalidStep        = errors.New("max step must not be negative")
	ErrInvalidOrientation = errors.New("orientation tolerances must be non-negative")
	ErrNearSingularity    = errors.New("configuration near a non-differentiable point")
)

// Kinematic model errors.
var (
	ErrUnknownModel     = errors.New("unknown robot model")
	ErrInvalidJointType = errors.New("invalid joint type")
	ErrInvalidAxis      = errors.New("joint axis must be non-zero")
	ErrEmptyChain       = errors.New("kinematic chain has no active joints")
	ErrDuplicateLink    = errors.New("duplicate link name")
)

// Run store errors.
var (
	ErrNotFound         = errors.New("run not found")
	ErrStoreDetached    = errors.New("store is not attached")
	ErrAlreadyAttached  = errors.New("store is already attached")
	ErrInvalidTrials    = errors.New("trial count must be positive")
	ErrInvalidWorkers   = errors.New("worker count must not be negative")
	ErrInvalidLogFormat = errors.New("unknown log format")
)
