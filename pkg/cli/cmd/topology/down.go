package topology

import (
	"github.com/fleetdb/topoctl/pkg/di"
	"github.com/fleetdb/topoctl/pkg/ui/notify"
	"github.com/fleetdb/topoctl/pkg/ui/timer"
	"github.com/spf13/cobra"
)

// NewDownCmd creates the down command: gracefully shut down a topology.
func NewDownCmd(runtime *di.Runtime) *cobra.Command {
	opts := &options{}

	var auth bool

	cmd := &cobra.Command{
		Use:          "down",
		Short:        "Shut down every process of the topology gracefully",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return invoke(runtime, cmd,
				func(cmd *cobra.Command, injector di.Injector, tmr timer.Timer) error {
					return runDown(cmd, injector, tmr, opts, auth)
				})
		},
	}

	addCommonFlags(cmd, opts)
	cmd.Flags().BoolVar(&auth, "auth", false,
		"Authenticate administrative shells with the descriptor's credentials")

	return cmd
}

func runDown(
	cmd *cobra.Command,
	injector di.Injector,
	tmr timer.Timer,
	opts *options,
	auth bool,
) error {
	tmr.Start()

	out := cmd.OutOrStdout()
	notify.Titlef(out, "🔥", "Shut down topology...")

	tree, descriptor, err := buildTree(cmd, injector, opts, tmr)
	if err != nil {
		return err
	}

	defer func() { _ = tree.Close() }()

	if !tree.Shutdown(cmd.Context(), opts.maxTime, auth) {
		return ErrShutdownFailed
	}

	notify.SuccessWithTimerf(out, tmr, "'%s' topology is down", descriptor.Kind)

	return nil
}
