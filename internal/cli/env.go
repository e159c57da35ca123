package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/manifold/internal/logging"
	"github.com/mesh-intelligence/manifold/internal/sqlite"
	"github.com/mesh-intelligence/manifold/pkg/constraints"
	"github.com/mesh-intelligence/manifold/pkg/kinematics"
	"github.com/mesh-intelligence/manifold/pkg/types"
)

// env is everything a projection command needs, built from config.yaml.
type env struct {
	*settings
	log   *zap.Logger
	chain *kinematics.Chain
	set   *constraints.Set
}

// loadEnv loads the configuration and builds the logger, the kinematic
// model and the constraint set.
func loadEnv(cmd *cobra.Command, flags *rootFlags) (*env, error) {
	s, err := loadConfig(flags)
	if err != nil {
		return nil, sysError("%w", err)
	}
	if err := s.config.Validate(); err != nil {
		return nil, userError("invalid config: %w", err)
	}

	log, err := logging.New(s.log, cmd.ErrOrStderr())
	if err != nil {
		return nil, userError("%w", err)
	}

	chain, err := kinematics.Load(s.config.Robot.Model, s.config.Robot.File)
	if err != nil {
		return nil, userError("load robot: %w", err)
	}

	set, err := constraints.FromSpec(chain, s.config.Constraints, s.config.Projector, log)
	if err != nil {
		return nil, userError("build constraints: %w", err)
	}

	log.Debug("environment loaded",
		zap.String("model", chain.Name()),
		zap.Int("dof", chain.DOF()),
		zap.String("config_dir", s.dirs.Config),
		zap.String("data_dir", s.dirs.Data))
	return &env{settings: s, log: log, chain: chain, set: set}, nil
}

// attachStore opens the run store in the resolved data directory. The
// caller must defer store.Detach().
func attachStore(dataDir string) (*sqlite.Store, error) {
	store := sqlite.NewStore()
	if err := store.Attach(dataDir); err != nil {
		return nil, sysError("attach store: %w", err)
	}
	return store, nil
}

// parseConfiguration parses a comma-separated joint vector of length n.
func parseConfiguration(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("%w: want %d joint values, got %d", types.ErrDimensionMismatch, n, len(parts))
	}
	q := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("joint %d: %w", i, err)
		}
		q[i] = v
	}
	return q, nil
}

// writeJSON writes v as indented JSON.
func writeJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError("marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// isNotFound returns true if the error wraps ErrNotFound.
func isNotFound(err error) bool {
	return errors.Is(err, types.ErrNotFound)
}
