package types

import "errors"

// Config is the decoded config.yaml of the manifold CLI.
type Config struct {
	DataDir     string          `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	Robot       RobotSpec       `json:"robot" yaml:"robot" mapstructure:"robot"`
	Projector   ProjectorSpec   `json:"projector" yaml:"projector" mapstructure:"projector"`
	Constraints ConstraintsSpec `json:"constraints" yaml:"constraints" mapstructure:"constraints"`
	Sampling    SamplingSpec    `json:"sampling" yaml:"sampling" mapstructure:"sampling"`
}

// RobotSpec selects the kinematic model: a built-in model name or a YAML
// model file. File wins when both are set.
type RobotSpec struct {
	Model string `json:"model,omitempty" yaml:"model,omitempty" mapstructure:"model"`
	File  string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`
}

// SamplingSpec configures batch sampling runs.
type SamplingSpec struct {
	Trials  int    `json:"trials" yaml:"trials" mapstructure:"trials"`
	Seed    uint64 `json:"seed" yaml:"seed" mapstructure:"seed"`
	Workers int    `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// Config validation errors.
var (
	ErrRobotEmpty = errors.New("robot model or file must be set")
)

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Robot.Model == "" && c.Robot.File == "" {
		return ErrRobotEmpty
	}
	if err := c.Projector.Validate(); err != nil {
		return err
	}
	if err := c.Constraints.Validate(); err != nil {
		return err
	}
	return c.Sampling.Validate()
}

// Validate checks the sampling settings.
func (s SamplingSpec) Validate() error {
	if s.Trials <= 0 {
		return ErrInvalidTrials
	}
	if s.Workers < 0 {
		return ErrInvalidWorkers
	}
	return nil
}
