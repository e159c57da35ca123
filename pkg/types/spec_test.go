package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validPosition() PositionSpec {
	return PositionSpec{
		Link:        "tool0",
		HalfExtents: []float64{0.1, Unconstrained, 0},
		Position:    []float64{0.5, 0, 0.5},
	}
}

func validOrientation() OrientationSpec {
	return OrientationSpec{
		Link:       "tool0",
		Target:     []float64{1, 0, 0, 0},
		Tolerances: []float64{0.1, 0.1, 0.1},
	}
}

func TestPositionSpec_ConstrainedAxes(t *testing.T) {
	assert.Equal(t, []int{0, 2}, validPosition().ConstrainedAxes(), "zero half-extent is constrained, negative is not")
	assert.Empty(t, PositionSpec{HalfExtents: []float64{-1, -0.5, -2}}.ConstrainedAxes())
}

func TestPositionSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PositionSpec)
		wantErr error
	}{
		{name: "valid", mutate: func(*PositionSpec) {}},
		{name: "valid with orientation", mutate: func(s *PositionSpec) { s.Orientation = []float64{0, 0, 0, 2} }},
		{name: "empty link", mutate: func(s *PositionSpec) { s.Link = "" }, wantErr: ErrUnknownLink},
		{name: "two half-extents", mutate: func(s *PositionSpec) { s.HalfExtents = []float64{1, 1} }, wantErr: ErrDimensionMismatch},
		{name: "no constrained axis", mutate: func(s *PositionSpec) { s.HalfExtents = []float64{-1, -1, -1} }, wantErr: ErrEmptyRegion},
		{name: "short position", mutate: func(s *PositionSpec) { s.Position = []float64{1} }, wantErr: ErrDimensionMismatch},
		{name: "zero quaternion", mutate: func(s *PositionSpec) { s.Orientation = []float64{0, 0, 0, 0} }, wantErr: ErrInvalidQuaternion},
		{name: "three-element quaternion", mutate: func(s *PositionSpec) { s.Orientation = []float64{1, 0, 0} }, wantErr: ErrDimensionMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validPosition()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOrientationSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*OrientationSpec)
		wantErr error
	}{
		{name: "valid", mutate: func(*OrientationSpec) {}},
		{name: "empty link", mutate: func(s *OrientationSpec) { s.Link = "" }, wantErr: ErrUnknownLink},
		{name: "missing target", mutate: func(s *OrientationSpec) { s.Target = nil }, wantErr: ErrDimensionMismatch},
		{name: "zero target", mutate: func(s *OrientationSpec) { s.Target = []float64{0, 0, 0, 0} }, wantErr: ErrInvalidQuaternion},
		{name: "two tolerances", mutate: func(s *OrientationSpec) { s.Tolerances = []float64{0.1, 0.1} }, wantErr: ErrDimensionMismatch},
		{name: "negative tolerance", mutate: func(s *OrientationSpec) { s.Tolerances = []float64{0.1, -0.1, 0.1} }, wantErr: ErrInvalidOrientation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validOrientation()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProjectorSpec_Validate(t *testing.T) {
	assert.NoError(t, DefaultProjectorSpec().Validate())

	tests := []struct {
		name    string
		spec    ProjectorSpec
		wantErr error
	}{
		{name: "zero tolerance", spec: ProjectorSpec{MaxIterations: 1}, wantErr: ErrInvalidTolerance},
		{name: "zero iterations", spec: ProjectorSpec{Tolerance: 1}, wantErr: ErrInvalidIterations},
		{name: "negative damping", spec: ProjectorSpec{Tolerance: 1, MaxIterations: 1, Damping: -1}, wantErr: ErrInvalidDamping},
		{name: "negative step", spec: ProjectorSpec{Tolerance: 1, MaxIterations: 1, MaxStep: -1}, wantErr: ErrInvalidStep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.spec.Validate(), tt.wantErr)
		})
	}
}

func TestConstraintsSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		spec    ConstraintsSpec
		wantErr error
	}{
		{name: "position only", spec: ConstraintsSpec{Position: []PositionSpec{validPosition()}}},
		{name: "orientation only", spec: ConstraintsSpec{Orientation: []OrientationSpec{validOrientation()}}},
		{name: "joint limits only", spec: ConstraintsSpec{JointLimits: JointLimitSpec{Enabled: true}}, wantErr: ErrNoConstraints},
		{name: "empty", wantErr: ErrNoConstraints},
		{
			name: "bad member",
			spec: ConstraintsSpec{
				Position:    []PositionSpec{validPosition()},
				Orientation: []OrientationSpec{{Link: "tool0"}},
			},
			wantErr: ErrDimensionMismatch,
		},
		{
			name: "reversed joint bounds",
			spec: ConstraintsSpec{
				Position:    []PositionSpec{validPosition()},
				JointLimits: JointLimitSpec{Enabled: true, Bounds: []JointBounds{{Lower: 0, Upper: 1}, {Lower: 1, Upper: 0}}},
			},
			wantErr: ErrInvalidBounds,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestJointBounds(t *testing.T) {
	b := JointBounds{Lower: -1, Upper: 2}
	assert.True(t, b.Contains(-1))
	assert.True(t, b.Contains(2))
	assert.False(t, b.Contains(2.0001))
	assert.Equal(t, -1.0, b.Clamp(-5))
	assert.Equal(t, 2.0, b.Clamp(5))
	assert.Equal(t, 0.5, b.Clamp(0.5))
}
