package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		Robot:     RobotSpec{Model: "planar3"},
		Projector: DefaultProjectorSpec(),
		Constraints: ConstraintsSpec{
			Position: []PositionSpec{{
				Link:        "tip",
				HalfExtents: []float64{Unconstrained, 0.05, Unconstrained},
				Position:    []float64{0, 2, 0},
			}},
		},
		Sampling: SamplingSpec{Trials: 100, Seed: 1},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "model file only", mutate: func(c *Config) { c.Robot = RobotSpec{File: "arm.yaml"} }},
		{name: "no robot", mutate: func(c *Config) { c.Robot = RobotSpec{} }, wantErr: ErrRobotEmpty},
		{name: "bad projector", mutate: func(c *Config) { c.Projector.Tolerance = 0 }, wantErr: ErrInvalidTolerance},
		{name: "no constraints", mutate: func(c *Config) { c.Constraints = ConstraintsSpec{} }, wantErr: ErrNoConstraints},
		{name: "zero trials", mutate: func(c *Config) { c.Sampling.Trials = 0 }, wantErr: ErrInvalidTrials},
		{name: "negative workers", mutate: func(c *Config) { c.Sampling.Workers = -2 }, wantErr: ErrInvalidWorkers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRunResult_Infeasible(t *testing.T) {
	r := RunResult{Feasible: 37}
	assert.Equal(t, 63, r.Infeasible(100))
}
