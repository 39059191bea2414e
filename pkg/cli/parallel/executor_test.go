package parallel_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fleetdb/topoctl/pkg/cli/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTask = errors.New("task failed")

func TestExecuteRunsAllTasks(t *testing.T) {
	t.Parallel()

	var completed atomic.Int32

	tasks := make([]parallel.Task, 10)
	for i := range tasks {
		tasks[i] = func(context.Context) error {
			completed.Add(1)

			return nil
		}
	}

	executor := parallel.NewExecutor(4)

	require.NoError(t, executor.Execute(context.Background(), tasks...))
	assert.Equal(t, int32(10), completed.Load())
}

func TestExecuteReturnsTaskError(t *testing.T) {
	t.Parallel()

	executor := parallel.NewExecutor(2)

	err := executor.Execute(context.Background(),
		func(context.Context) error { return nil },
		func(context.Context) error { return errTask },
	)

	require.ErrorIs(t, err, errTask)
}

func TestExecuteBoundsConcurrency(t *testing.T) {
	t.Parallel()

	const limit = 3

	var (
		running atomic.Int32
		peak    atomic.Int32
	)

	tasks := make([]parallel.Task, 12)
	for i := range tasks {
		tasks[i] = func(context.Context) error {
			current := running.Add(1)
			defer running.Add(-1)

			for {
				observed := peak.Load()
				if current <= observed || peak.CompareAndSwap(observed, current) {
					break
				}
			}

			return nil
		}
	}

	executor := parallel.NewExecutor(limit)

	require.NoError(t, executor.Execute(context.Background(), tasks...))
	assert.LessOrEqual(t, peak.Load(), int32(limit))
}

func TestExecuteEmptyAndSingle(t *testing.T) {
	t.Parallel()

	executor := parallel.NewExecutor(0)

	require.NoError(t, executor.Execute(context.Background()))

	called := false

	require.NoError(t, executor.Execute(context.Background(), func(context.Context) error {
		called = true

		return nil
	}))
	assert.True(t, called)
}

func TestSyncWriterSerializesWrites(t *testing.T) {
	t.Parallel()

	var buffer strings.Builder

	writer := parallel.NewSyncWriter(&buffer)

	var group sync.WaitGroup

	for range 8 {
		group.Add(1)

		go func() {
			defer group.Done()

			_, _ = writer.Write([]byte("line\n"))
		}()
	}

	group.Wait()

	assert.Len(t, strings.Split(strings.TrimSpace(buffer.String()), "\n"), 8)
}
