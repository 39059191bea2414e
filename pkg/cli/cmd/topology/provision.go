package topology

import (
	"context"
	"fmt"

	"github.com/fleetdb/topoctl/pkg/cli/parallel"
	"github.com/fleetdb/topoctl/pkg/di"
	"github.com/fleetdb/topoctl/pkg/svc/orchestrator"
	"github.com/fleetdb/topoctl/pkg/ui/notify"
	"github.com/fleetdb/topoctl/pkg/ui/timer"
	"github.com/spf13/cobra"
)

// NewProvisionCmd creates the provision command: prepare every host of a
// topology without launching anything.
func NewProvisionCmd(runtime *di.Runtime) *cobra.Command {
	opts := &options{}

	var concurrency int64

	cmd := &cobra.Command{
		Use:          "provision",
		Short:        "Clear stray processes and prepare directories on every host",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return invoke(runtime, cmd,
				func(cmd *cobra.Command, injector di.Injector, tmr timer.Timer) error {
					return runProvision(cmd, injector, tmr, opts, concurrency)
				})
		},
	}

	addCommonFlags(cmd, opts)
	cmd.Flags().Int64Var(&concurrency, "concurrency", parallel.DefaultMaxConcurrency(),
		"Maximum number of hosts prepared at once")

	return cmd
}

func runProvision(
	cmd *cobra.Command,
	injector di.Injector,
	tmr timer.Timer,
	opts *options,
	concurrency int64,
) error {
	tmr.Start()

	out := parallel.NewSyncWriter(cmd.OutOrStdout())
	notify.Titlef(out, "🗄", "Provision hosts...")

	tree, descriptor, err := buildTree(cmd, injector, opts, tmr)
	if err != nil {
		return err
	}

	defer func() { _ = tree.Close() }()

	lister, ok := tree.(orchestrator.NodeLister)
	if !ok {
		return fmt.Errorf("%w: topology cannot enumerate its nodes", ErrPrepareFailed)
	}

	executor := parallel.NewExecutor(concurrency)
	group := notify.NewProgressGroup("preparing hosts", "🗄", out, tmr,
		notify.WithTaskRunner(func(ctx context.Context, fns []func(context.Context) error) error {
			tasks := make([]parallel.Task, len(fns))
			for i, fn := range fns {
				tasks[i] = parallel.Task(fn)
			}

			return executor.Execute(ctx, tasks...)
		}))

	tasks := make([]notify.ProgressTask, 0, len(lister.Nodes()))

	for _, node := range lister.Nodes() {
		tasks = append(tasks, notify.ProgressTask{
			Name: node.Name(),
			Fn: func(ctx context.Context) error {
				if !node.Prepare(ctx) {
					return fmt.Errorf("%w: %s", ErrPrepareFailed, node.Name())
				}

				return nil
			},
		})
	}

	err = group.Run(cmd.Context(), tasks...)
	if err != nil {
		return err
	}

	notify.SuccessWithTimerf(out, tmr, "'%s' topology hosts are provisioned", descriptor.Kind)

	return nil
}
