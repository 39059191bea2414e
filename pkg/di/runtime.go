// Package di wires shared command dependencies through a samber/do container.
package di

import (
	"fmt"

	"github.com/samber/do/v2"
)

// Injector aliases the container handle handed to modules and handlers.
type Injector = do.Injector

// Module registers one dependency family with the injector.
type Module func(Injector) error

// Runtime is the shared dependency container used by the root command and tests.
type Runtime struct {
	injector  do.Injector
	moduleErr error
}

// New creates a runtime and applies the given modules in order. A failing
// module is remembered and surfaced on the first Invoke.
func New(modules ...Module) *Runtime {
	runtime := &Runtime{injector: do.New()}

	for _, module := range modules {
		err := module(runtime.injector)
		if err != nil {
			runtime.moduleErr = err

			break
		}
	}

	return runtime
}

// Invoke runs a handler against the container.
func (r *Runtime) Invoke(handler func(Injector) error) error {
	if r.moduleErr != nil {
		return fmt.Errorf("initialize runtime: %w", r.moduleErr)
	}

	return handler(r.injector)
}
