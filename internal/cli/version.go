package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/manifold/pkg/manifold"
)

const modulePath = "github.com/mesh-intelligence/manifold"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the manifold version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "manifold v%s\nmodule: %s\n", manifold.Version, modulePath)
			return nil
		},
	}
}
