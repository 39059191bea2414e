package topology

import (
	"fmt"
	"os"
	"time"

	"github.com/fleetdb/topoctl/pkg/apis/topology/v1alpha1"
	"github.com/fleetdb/topoctl/pkg/di"
	"github.com/fleetdb/topoctl/pkg/fsutil"
	"github.com/fleetdb/topoctl/pkg/io/configmanager"
	"github.com/fleetdb/topoctl/pkg/svc/orchestrator"
	"github.com/fleetdb/topoctl/pkg/svc/session"
	"github.com/fleetdb/topoctl/pkg/svc/session/dockersession"
	"github.com/fleetdb/topoctl/pkg/svc/session/sshsession"
	"github.com/fleetdb/topoctl/pkg/ui/timer"
	"github.com/spf13/cobra"
)

// Transport names accepted by --transport.
const (
	transportSSH    = "ssh"
	transportDocker = "docker"
)

// options carries the flags shared by every lifecycle command.
type options struct {
	topologyFile string
	transport    string
	sshUser      string
	sshKeyPath   string
	sshPort      int
	maxTime      time.Duration
}

func addCommonFlags(cmd *cobra.Command, opts *options) {
	flags := cmd.Flags()

	flags.StringVarP(&opts.topologyFile, "topology-file", "f",
		configmanager.DefaultTopologyFile, "Path to the resolved topology descriptor")
	flags.StringVar(&opts.transport, "transport", transportSSH,
		"Transport for node sessions (ssh or docker)")
	flags.StringVar(&opts.sshUser, "ssh-user", defaultSSHUser(),
		"User for SSH sessions")
	flags.StringVar(&opts.sshKeyPath, "ssh-key", "~/.ssh/id_rsa",
		"Private key for SSH sessions")
	flags.IntVar(&opts.sshPort, "ssh-port", 22,
		"SSH port on the nodes")
	flags.DurationVar(&opts.maxTime, "max-time", 5*time.Minute,
		"Budget for shutdown and destroy operations")
}

func defaultSSHUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}

	return "root"
}

// invoke runs a timed handler through the runtime container.
func invoke(
	runtime *di.Runtime,
	cmd *cobra.Command,
	handler func(*cobra.Command, di.Injector, timer.Timer) error,
) error {
	return runtime.Invoke(func(injector di.Injector) error {
		return di.WithTimer(handler)(cmd, injector)
	})
}

func loadDescriptor(
	cmd *cobra.Command, opts *options, tmr timer.Timer,
) (*v1alpha1.Topology, error) {
	path, err := fsutil.ExpandHomePath(opts.topologyFile)
	if err != nil {
		return nil, err
	}

	manager := configmanager.NewTopologyManager(cmd.OutOrStdout())
	manager.Viper.Set("topology-file", path)

	return manager.Load(configmanager.LoadOptions{Timer: tmr})
}

func newSessionFactory(opts *options) (session.Factory, error) {
	switch opts.transport {
	case transportSSH:
		keyPath, err := fsutil.ExpandHomePath(opts.sshKeyPath)
		if err != nil {
			return nil, err
		}

		return sshsession.NewFactory(
			opts.sshUser, keyPath, sshsession.WithPort(opts.sshPort),
		), nil
	case transportDocker:
		api, err := dockersession.GetDockerClient()
		if err != nil {
			return nil, fmt.Errorf("failed to create docker client: %w", err)
		}

		return dockersession.NewFactory(api), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTransport, opts.transport)
	}
}

// buildTree loads the descriptor and assembles the topology tree for it.
func buildTree(
	cmd *cobra.Command, injector di.Injector, opts *options, tmr timer.Timer,
) (orchestrator.Topology, *v1alpha1.Topology, error) {
	descriptor, err := loadDescriptor(cmd, opts, tmr)
	if err != nil {
		return nil, nil, err
	}

	factory, err := newSessionFactory(opts)
	if err != nil {
		return nil, nil, err
	}

	logger, err := di.ResolveLogger(injector)
	if err != nil {
		return nil, nil, err
	}

	tree := orchestrator.Build(descriptor, orchestrator.Deps{
		Sessions: factory,
		Logger:   logger,
	})

	return tree, descriptor, nil
}
