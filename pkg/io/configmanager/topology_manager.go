package configmanager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fleetdb/topoctl/pkg/apis/topology/v1alpha1"
	"github.com/fleetdb/topoctl/pkg/envvar"
	yamlmarshaller "github.com/fleetdb/topoctl/pkg/io/marshaller/yaml"
	"github.com/fleetdb/topoctl/pkg/ui/notify"
	"github.com/spf13/viper"
)

// DefaultTopologyFile is the descriptor read when no path is given.
const DefaultTopologyFile = "topology.yaml"

// ErrTopologyFileNotFound is returned when the descriptor file does not exist.
var ErrTopologyFileNotFound = errors.New("topology descriptor file not found")

// TopologyManager loads v1alpha1.Topology descriptors. Load settings (the
// descriptor path) resolve through Viper so they can come from flags or
// TOPOCTL_* environment variables; the descriptor itself is decoded with the
// YAML marshaller because process config sections must pass through with key
// case intact, which Viper's case-folding Unmarshal cannot guarantee.
type TopologyManager struct {
	Viper  *viper.Viper
	Config *v1alpha1.Topology
	Writer io.Writer

	loaded bool
}

var _ ConfigManager[v1alpha1.Topology] = (*TopologyManager)(nil)

// NewTopologyManager creates a manager writing notifications to writer.
func NewTopologyManager(writer io.Writer) *TopologyManager {
	viperInstance := viper.New()
	viperInstance.SetEnvPrefix("TOPOCTL")
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viperInstance.AutomaticEnv()
	viperInstance.SetDefault("topology-file", DefaultTopologyFile)

	return &TopologyManager{
		Viper:  viperInstance,
		Writer: writer,
	}
}

// TopologyFile returns the resolved descriptor path.
func (m *TopologyManager) TopologyFile() string {
	return m.Viper.GetString("topology-file")
}

// Load reads, decodes and validates the descriptor. The result is cached;
// subsequent calls return the same descriptor.
func (m *TopologyManager) Load(opts LoadOptions) (*v1alpha1.Topology, error) {
	if m.loaded {
		return m.Config, nil
	}

	path := m.TopologyFile()

	if !opts.Silent {
		notify.Activityf(m.Writer, "loading topology descriptor from '%s'", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTopologyFileNotFound, path)
		}

		return nil, fmt.Errorf("failed to read topology descriptor: %w", err)
	}

	data = envvar.ExpandBytes(data)

	var topo v1alpha1.Topology

	err = yamlmarshaller.NewMarshaller[v1alpha1.Topology]().Unmarshal(data, &topo)
	if err != nil {
		return nil, fmt.Errorf("failed to decode topology descriptor: %w", err)
	}

	if !opts.SkipValidation {
		err = topo.Validate()
		if err != nil {
			return nil, fmt.Errorf("invalid topology descriptor: %w", err)
		}
	}

	m.Config = &topo
	m.loaded = true

	if !opts.Silent {
		notify.SuccessWithTimerf(m.Writer, opts.Timer,
			"'%s' topology loaded", topo.Kind)
	}

	return m.Config, nil
}
