// Package topology implements the topology lifecycle subcommands.
package topology

import (
	"github.com/fleetdb/topoctl/pkg/di"
	"github.com/spf13/cobra"
)

// NewTopologyCmd groups the topology lifecycle commands.
func NewTopologyCmd(runtime *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Provision, launch and tear down database topologies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The err can safely be ignored, as it can never fail at runtime.
			_ = cmd.Help()

			return nil
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(NewProvisionCmd(runtime))
	cmd.AddCommand(NewUpCmd(runtime))
	cmd.AddCommand(NewDownCmd(runtime))
	cmd.AddCommand(NewDestroyCmd(runtime))

	return cmd
}
