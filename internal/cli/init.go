package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/manifold/internal/paths"
)

func newInitCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize manifold configuration and run store",
		Long:  "Create configuration and data directories, write a default config.yaml\nif missing, then initialize the run store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, flags)
		},
	}
}

func runInit(cmd *cobra.Command, flags *rootFlags) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return sysError("resolve config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return sysError("write config: %w", err)
	}

	s, err := loadConfig(flags)
	if err != nil {
		return sysError("%w", err)
	}

	store, err := attachStore(s.dirs.Data)
	if err != nil {
		return err
	}
	if err := store.Detach(); err != nil {
		return sysError("finalize store: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "manifold initialized successfully")
	fmt.Fprintf(out, "config: %s\n", filepath.Join(s.dirs.Config, configFileExt))
	fmt.Fprintf(out, "data:   %s\n", s.dirs.Data)
	return nil
}
