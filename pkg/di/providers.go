package di

import (
	"os"

	"github.com/fleetdb/topoctl/pkg/ui/timer"
	"github.com/samber/do/v2"
	"github.com/sirupsen/logrus"
)

// Dependency providers.

// NewRuntime constructs the shared runtime container used by the root command
// and tests. It registers default implementations for the timer and the
// orchestrator logger.
func NewRuntime() *Runtime {
	return New(
		provideTimer,
		provideLogger,
	)
}

// provideTimer registers the timer dependency with the injector.
func provideTimer(i Injector) error {
	do.Provide(i, func(Injector) (timer.Timer, error) {
		return timer.New(), nil
	})

	return nil
}

// provideLogger registers the structured logger used by orchestrator trees.
// The level follows TOPOCTL_LOG_LEVEL when set and parseable.
func provideLogger(i Injector) error {
	do.Provide(i, func(Injector) (*logrus.Logger, error) {
		logger := logrus.New()
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

		if raw := os.Getenv("TOPOCTL_LOG_LEVEL"); raw != "" {
			level, err := logrus.ParseLevel(raw)
			if err == nil {
				logger.SetLevel(level)
			}
		}

		return logger, nil
	})

	return nil
}
