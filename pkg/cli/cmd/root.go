// Package cmd assembles the topoctl command tree.
package cmd

import (
	"fmt"

	topologycmd "github.com/fleetdb/topoctl/pkg/cli/cmd/topology"
	"github.com/fleetdb/topoctl/pkg/di"
	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root command with version info and subcommands.
func NewRootCmd(version, commit, date string) *cobra.Command {
	runtimeContainer := di.NewRuntime()

	cmd := &cobra.Command{
		Use:   "topoctl",
		Short: "topoctl provisions and drives distributed database topologies",
		Long: "topoctl provisions, launches, confirms and tears down distributed " +
			"database topologies (standalone nodes, replica sets and sharded clusters) " +
			"from a resolved topology descriptor.",
		RunE:         handleRootRunE,
		SilenceUsage: true,
	}

	cmd.Version = fmt.Sprintf("%s (Built on %s from Git SHA %s)", version, date, commit)

	cmd.AddCommand(topologycmd.NewTopologyCmd(runtimeContainer))

	return cmd
}

// Execute runs the provided root command and handles errors.
func Execute(cmd *cobra.Command) error {
	err := cmd.Execute()
	if err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}

	return nil
}

// handleRootRunE handles the root command.
func handleRootRunE(cmd *cobra.Command, _ []string) error {
	// The err can safely be ignored, as it can never fail at runtime.
	_ = cmd.Help()

	return nil
}
