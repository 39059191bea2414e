package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fleetdb/topoctl/pkg/ui/timer"
	fcolor "github.com/fatih/color"
	"golang.org/x/sync/errgroup"
)

// ProgressTask is a named unit of work executed with progress tracking, such
// as preparing one host of a topology.
type ProgressTask struct {
	// Name is the display name of the task (e.g., "10.0.0.1:27017").
	Name string
	// Fn is the function to execute. It receives a context for cancellation.
	Fn func(ctx context.Context) error
}

// ProgressGroup runs tasks in parallel with a synchronized single-line
// progress display and a final status message.
type ProgressGroup struct {
	title  string
	emoji  string
	writer io.Writer
	timer  timer.Timer

	mu          sync.Mutex
	taskStatus  map[string]taskState
	spinnerIdx  int
	stopSpinner chan struct{}
	spinnerDone chan struct{}

	runTasks TaskRunner
}

// TaskRunner executes the wrapped task functions. The default runner uses an
// errgroup with unbounded parallelism; callers with a concurrency budget can
// substitute their own executor via WithTaskRunner.
type TaskRunner func(ctx context.Context, tasks []func(context.Context) error) error

// GroupOption customizes a ProgressGroup.
type GroupOption func(*ProgressGroup)

// WithTaskRunner replaces the default unbounded runner.
func WithTaskRunner(run TaskRunner) GroupOption {
	return func(pg *ProgressGroup) {
		pg.runTasks = run
	}
}

type taskState int

const (
	taskPending taskState = iota
	taskRunning
	taskComplete
	taskFailed
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewProgressGroup creates a progress group. The writer defaults to stdout
// and the emoji to 🗄 when empty; the timer is optional.
func NewProgressGroup(
	title, emoji string, writer io.Writer, tmr timer.Timer, opts ...GroupOption,
) *ProgressGroup {
	if writer == nil {
		writer = os.Stdout
	}

	if emoji == "" {
		emoji = "🗄"
	}

	group := &ProgressGroup{
		title:       title,
		emoji:       emoji,
		writer:      writer,
		timer:       tmr,
		taskStatus:  make(map[string]taskState),
		stopSpinner: make(chan struct{}),
		spinnerDone: make(chan struct{}),
		runTasks:    runUnbounded,
	}

	for _, opt := range opts {
		opt(group)
	}

	return group
}

// runUnbounded is the default runner: every task in its own goroutine,
// canceled together on the first failure.
func runUnbounded(ctx context.Context, tasks []func(context.Context) error) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for _, task := range tasks {
		group.Go(func() error {
			return task(groupCtx)
		})
	}

	return group.Wait()
}

// Run executes all tasks in parallel with live progress updates and returns
// an error if any task fails.
func (pg *ProgressGroup) Run(ctx context.Context, tasks ...ProgressTask) error {
	if len(tasks) == 0 {
		return nil
	}

	taskNames := make([]string, 0, len(tasks))

	for _, task := range tasks {
		pg.taskStatus[task.Name] = taskPending
		taskNames = append(taskNames, task.Name)
	}

	if pg.timer != nil {
		pg.timer.NewStage()
	}

	pg.printProgress(taskNames)

	go pg.runSpinner(taskNames)

	fns := make([]func(context.Context) error, 0, len(tasks))

	for _, task := range tasks {
		fns = append(fns, func(ctx context.Context) error {
			pg.setTaskState(task.Name, taskRunning)

			taskErr := task.Fn(ctx)
			if taskErr != nil {
				pg.setTaskState(task.Name, taskFailed)

				return fmt.Errorf("%s: %w", task.Name, taskErr)
			}

			pg.setTaskState(task.Name, taskComplete)

			return nil
		})
	}

	err := pg.runTasks(ctx, fns)

	close(pg.stopSpinner)
	<-pg.spinnerDone

	pg.clearLine()
	pg.printFinalStatus(taskNames, err)

	return err
}

func (pg *ProgressGroup) setTaskState(name string, state taskState) {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	pg.taskStatus[name] = state
}

func (pg *ProgressGroup) runSpinner(taskNames []string) {
	defer close(pg.spinnerDone)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-pg.stopSpinner:
			return
		case <-ticker.C:
			pg.mu.Lock()
			pg.spinnerIdx = (pg.spinnerIdx + 1) % len(spinnerFrames)
			pg.mu.Unlock()
			pg.printProgress(taskNames)
		}
	}
}

func (pg *ProgressGroup) printProgress(taskNames []string) {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	parts := make([]string, 0, len(taskNames))
	for _, name := range taskNames {
		parts = append(parts, pg.formatTaskStatus(name, pg.taskStatus[name]))
	}

	pg.clearLineNoLock()
	_, _ = fmt.Fprintf(pg.writer, "%s %s %s", pg.emoji, pg.title, strings.Join(parts, " "))
}

func (pg *ProgressGroup) formatTaskStatus(name string, state taskState) string {
	switch state {
	case taskPending:
		return fcolor.New(fcolor.FgHiBlack).Sprintf("[%s ○]", name)
	case taskRunning:
		return fcolor.New(fcolor.FgCyan).Sprintf("[%s %s]", name, spinnerFrames[pg.spinnerIdx])
	case taskComplete:
		return fcolor.New(fcolor.FgGreen).Sprintf("[%s ✔]", name)
	case taskFailed:
		return fcolor.New(fcolor.FgRed).Sprintf("[%s ✗]", name)
	default:
		return fmt.Sprintf("[%s ?]", name)
	}
}

func (pg *ProgressGroup) clearLine() {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	pg.clearLineNoLock()
}

func (pg *ProgressGroup) clearLineNoLock() {
	_, _ = fmt.Fprint(pg.writer, "\r\033[K")
}

func (pg *ProgressGroup) printFinalStatus(taskNames []string, err error) {
	if err != nil {
		WriteMessage(Message{
			Type:    ErrorType,
			Content: fmt.Sprintf("%s failed: %v", pg.title, err),
			Writer:  pg.writer,
		})

		return
	}

	WriteMessage(Message{
		Type:    SuccessType,
		Content: fmt.Sprintf("%s: %s", pg.title, strings.Join(taskNames, ", ")),
		Timer:   pg.timer,
		Writer:  pg.writer,
	})
}
