package notify_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fleetdb/topoctl/pkg/ui/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errProgressTask = errors.New("host unreachable")

func TestProgressGroupRunsAllTasks(t *testing.T) {
	t.Parallel()

	var out strings.Builder

	ran := make(chan string, 2)

	group := notify.NewProgressGroup("Preparing hosts", "", &out, nil)
	err := group.Run(context.Background(),
		notify.ProgressTask{Name: "10.0.0.1:27017", Fn: func(context.Context) error {
			ran <- "10.0.0.1:27017"

			return nil
		}},
		notify.ProgressTask{Name: "10.0.0.2:27017", Fn: func(context.Context) error {
			ran <- "10.0.0.2:27017"

			return nil
		}},
	)

	require.NoError(t, err)
	assert.Len(t, ran, 2)
	assert.Contains(t, out.String(), "Preparing hosts")
	assert.Contains(t, out.String(), "10.0.0.1:27017")
}

func TestProgressGroupReportsFailedTask(t *testing.T) {
	t.Parallel()

	var out strings.Builder

	group := notify.NewProgressGroup("Preparing hosts", "", &out, nil)
	err := group.Run(context.Background(),
		notify.ProgressTask{Name: "10.0.0.1:27017", Fn: func(context.Context) error {
			return errProgressTask
		}},
	)

	require.ErrorIs(t, err, errProgressTask)
	assert.Contains(t, err.Error(), "10.0.0.1:27017")
	assert.Contains(t, out.String(), "failed")
}

func TestProgressGroupRunsTasksThroughCustomRunner(t *testing.T) {
	t.Parallel()

	var out strings.Builder

	runnerUsed := false
	ran := 0

	group := notify.NewProgressGroup("Preparing hosts", "", &out, nil,
		notify.WithTaskRunner(func(ctx context.Context, fns []func(context.Context) error) error {
			runnerUsed = true

			for _, fn := range fns {
				if err := fn(ctx); err != nil {
					return err
				}
			}

			return nil
		}))

	err := group.Run(context.Background(),
		notify.ProgressTask{Name: "10.0.0.1:27017", Fn: func(context.Context) error {
			ran++

			return nil
		}},
		notify.ProgressTask{Name: "10.0.0.2:27017", Fn: func(context.Context) error {
			ran++

			return nil
		}},
	)

	require.NoError(t, err)
	assert.True(t, runnerUsed)
	assert.Equal(t, 2, ran)
	assert.Contains(t, out.String(), "10.0.0.2:27017")
}

func TestProgressGroupWithNoTasksIsNoOp(t *testing.T) {
	t.Parallel()

	var out strings.Builder

	group := notify.NewProgressGroup("Preparing hosts", "", &out, nil)

	require.NoError(t, group.Run(context.Background()))
	assert.Empty(t, out.String())
}
