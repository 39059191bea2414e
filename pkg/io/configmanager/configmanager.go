// Package configmanager loads resolved topology descriptors from disk.
package configmanager

import (
	"github.com/fleetdb/topoctl/pkg/ui/timer"
)

// LoadOptions configures how a descriptor is loaded.
type LoadOptions struct {
	// Timer enables timing output in notifications when provided.
	Timer timer.Timer
	// Silent suppresses all loading notifications when true.
	Silent bool
	// SkipValidation skips descriptor validation when true.
	SkipValidation bool
}

// ConfigManager provides configuration management functionality.
type ConfigManager[T any] interface {
	// Load loads the configuration with the specified options.
	// Returns the loaded config, either freshly loaded or previously cached.
	Load(opts LoadOptions) (*T, error)
}
