package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/manifold/internal/logging"
	"github.com/mesh-intelligence/manifold/internal/paths"
	"github.com/mesh-intelligence/manifold/pkg/kinematics"
	"github.com/mesh-intelligence/manifold/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyDataDir = "data_dir"
	cfgKeyLog     = "log"
)

// configFile is the structure written to config.yaml.
type configFile struct {
	types.Config `yaml:",inline"`
	Log          logging.Config `yaml:"log"`
}

// defaultConfigFile keeps the tip of the planar arm in a slab around y = 2
// and intersects that with the joint limits.
func defaultConfigFile(dataDir string) configFile {
	return configFile{
		Config: types.Config{
			DataDir:   dataDir,
			Robot:     types.RobotSpec{Model: kinematics.ModelPlanar3},
			Projector: types.DefaultProjectorSpec(),
			Constraints: types.ConstraintsSpec{
				Position: []types.PositionSpec{{
					Link:        "tip",
					Position:    []float64{0, 2, 0},
					HalfExtents: []float64{types.Unconstrained, 0.05, types.Unconstrained},
				}},
				JointLimits: types.JointLimitSpec{Enabled: true},
			},
			Sampling: types.SamplingSpec{Trials: 100, Seed: 1},
		},
		Log: logging.NewDefaultConfig(),
	}
}

// settings is the fully resolved CLI configuration.
type settings struct {
	dirs   paths.Dirs
	config types.Config
	log    logging.Config
}

// loadConfig reads config.yaml from the resolved config directory using
// Viper. It creates the config directory and a default config.yaml on first
// run. A missing config.yaml is not an error.
func loadConfig(flags *rootFlags) (*settings, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	s := &settings{}
	if err := v.Unmarshal(&s.config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := v.UnmarshalKey(cfgKeyLog, &s.log); err != nil {
		return nil, fmt.Errorf("decode log config: %w", err)
	}

	// A relative model file is relative to the config directory.
	if f := s.config.Robot.File; f != "" && !filepath.IsAbs(f) {
		s.config.Robot.File = filepath.Join(configDir, f)
	}

	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	s.dirs = paths.Dirs{Config: configDir, Data: dataDir}
	s.config.DataDir = dataDir
	return s, nil
}

func setDefaults(v *viper.Viper) {
	proj := types.DefaultProjectorSpec()
	v.SetDefault("robot.model", kinematics.ModelPlanar3)
	v.SetDefault("projector.tolerance", proj.Tolerance)
	v.SetDefault("projector.max_iterations", proj.MaxIterations)
	v.SetDefault("projector.damping", proj.Damping)
	v.SetDefault("projector.max_step", proj.MaxStep)
	v.SetDefault("sampling.trials", 100)
	v.SetDefault("sampling.seed", 1)
	v.SetDefault("sampling.workers", 0)

	lc := logging.NewDefaultConfig()
	v.SetDefault("log.level", lc.Level)
	v.SetDefault("log.format", lc.Format)
}

// ensureDefaultConfigFile creates the config directory and a default
// config.yaml if the file does not exist.
func ensureDefaultConfigFile(configDir string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}
	return writeConfigIfMissing(filepath.Join(configDir, configFileExt), "")
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil (idempotent).
func writeConfigIfMissing(path, dataDir string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	cfg := defaultConfigFile(dataDir)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
