package topology

import (
	"github.com/fleetdb/topoctl/pkg/di"
	"github.com/fleetdb/topoctl/pkg/svc/orchestrator"
	"github.com/fleetdb/topoctl/pkg/ui/notify"
	"github.com/fleetdb/topoctl/pkg/ui/timer"
	"github.com/spf13/cobra"
)

// NewUpCmd creates the up command: prepare, launch and confirm a topology.
func NewUpCmd(runtime *di.Runtime) *cobra.Command {
	opts := &options{}

	var (
		initialize bool
		usePinning bool
		enableAuth bool
	)

	cmd := &cobra.Command{
		Use:          "up",
		Short:        "Prepare hosts, launch the topology and confirm it is up",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return invoke(runtime, cmd,
				func(cmd *cobra.Command, injector di.Injector, tmr timer.Timer) error {
					return runUp(cmd, injector, tmr, opts, orchestrator.LaunchOptions{
						Initialize:        initialize,
						UseProcessPinning: usePinning,
					}, enableAuth)
				})
		},
	}

	addCommonFlags(cmd, opts)
	cmd.Flags().BoolVar(&initialize, "initialize", true,
		"Initialize replica sets and register shards after launching")
	cmd.Flags().BoolVar(&usePinning, "process-pinning", false,
		"Prepend the descriptor's process-pinning prefix to data-node launches")
	cmd.Flags().BoolVar(&enableAuth, "enable-auth", false,
		"Create default users and switch admin shells to authenticated connections")

	return cmd
}

func runUp(
	cmd *cobra.Command,
	injector di.Injector,
	tmr timer.Timer,
	opts *options,
	launchOpts orchestrator.LaunchOptions,
	enableAuth bool,
) error {
	tmr.Start()

	out := cmd.OutOrStdout()
	notify.Titlef(out, "🚀", "Launch topology...")

	tree, descriptor, err := buildTree(cmd, injector, opts, tmr)
	if err != nil {
		return err
	}

	defer func() { _ = tree.Close() }()

	ctx := cmd.Context()

	tmr.NewStage()
	notify.Activityf(out, "preparing hosts")

	if !tree.Prepare(ctx) {
		return ErrPrepareFailed
	}

	tmr.NewStage()
	notify.Activityf(out, "launching processes")

	if !tree.Launch(ctx, launchOpts) {
		return ErrLaunchFailed
	}

	if enableAuth {
		tmr.NewStage()
		notify.Activityf(out, "creating default users")

		if !tree.AddDefaultUsers(ctx) {
			return ErrCreateUsersFailed
		}

		if toggler, ok := tree.(orchestrator.AuthToggler); ok {
			toggler.EnableAuth()
		}
	}

	notify.SuccessWithTimerf(out, tmr, "'%s' topology is up", descriptor.Kind)

	return nil
}
