package orchestrator

import (
	"errors"
	"sync"
)

// FanOut runs every operation on its own goroutine and blocks until all of
// them finish. Results are returned in input order, not completion order.
// This layer provides no timeout or cancellation: operations bound themselves
// through their own session budgets.
func FanOut[T any](ops []func() T) []T {
	results := make([]T, len(ops))

	var group sync.WaitGroup

	for i, op := range ops {
		group.Add(1)

		go func() {
			defer group.Done()

			results[i] = op()
		}()
	}

	group.Wait()

	return results
}

// AllOf reports whether every fanned-out result succeeded.
func AllOf(results []bool) bool {
	for _, ok := range results {
		if !ok {
			return false
		}
	}

	return true
}

// destroyOutcome pairs one child's destroy result with its propagated error.
type destroyOutcome struct {
	ok  bool
	err error
}

// collectDestroy aggregates fanned-out destroy outcomes: the boolean is the
// AND of all children, the error joins every propagated kill-probe failure.
func collectDestroy(outcomes []destroyOutcome) (bool, error) {
	ok := true

	var errs []error

	for _, outcome := range outcomes {
		ok = ok && outcome.ok

		if outcome.err != nil {
			errs = append(errs, outcome.err)
		}
	}

	return ok, errors.Join(errs...)
}
