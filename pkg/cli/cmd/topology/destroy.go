package topology

import (
	"github.com/fleetdb/topoctl/pkg/di"
	"github.com/fleetdb/topoctl/pkg/ui/notify"
	"github.com/fleetdb/topoctl/pkg/ui/timer"
	"github.com/spf13/cobra"
)

// NewDestroyCmd creates the destroy command: kill every process of a topology
// and clear its lock files.
func NewDestroyCmd(runtime *di.Runtime) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "destroy",
		Short:        "Force-kill every process of the topology and remove lock files",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return invoke(runtime, cmd,
				func(cmd *cobra.Command, injector di.Injector, tmr timer.Timer) error {
					return runDestroy(cmd, injector, tmr, opts)
				})
		},
	}

	addCommonFlags(cmd, opts)

	return cmd
}

func runDestroy(
	cmd *cobra.Command,
	injector di.Injector,
	tmr timer.Timer,
	opts *options,
) error {
	tmr.Start()

	out := cmd.OutOrStdout()
	notify.Titlef(out, "💥", "Destroy topology...")

	tree, descriptor, err := buildTree(cmd, injector, opts, tmr)
	if err != nil {
		return err
	}

	defer func() { _ = tree.Close() }()

	destroyed, err := tree.Destroy(cmd.Context(), opts.maxTime)
	if err != nil {
		return err
	}

	if !destroyed {
		return ErrDestroyFailed
	}

	notify.SuccessWithTimerf(out, tmr, "'%s' topology is destroyed", descriptor.Kind)

	return nil
}
