// Package timer tracks command runtime split into stages, for timing blocks
// in user-facing notifications.
package timer

import "time"

// Timer tracks the total runtime of a command and the runtime of its current
// stage.
type Timer interface {
	// Start begins tracking total time and opens the first stage.
	Start()
	// NewStage resets the stage clock while total time keeps running.
	NewStage()
	// GetTiming returns the elapsed total and current-stage durations.
	GetTiming() (time.Duration, time.Duration)
	// Stop freezes the timer; later GetTiming calls report the frozen values.
	Stop()
}

// New creates a timer. It does not start running until Start is called.
func New() Timer {
	return &clockTimer{}
}

type clockTimer struct {
	start   time.Time
	stage   time.Time
	stopped time.Time
}

func (t *clockTimer) Start() {
	now := time.Now()
	t.start = now
	t.stage = now
	t.stopped = time.Time{}
}

func (t *clockTimer) NewStage() {
	t.stage = time.Now()
}

func (t *clockTimer) GetTiming() (time.Duration, time.Duration) {
	if t.start.IsZero() {
		return 0, 0
	}

	now := time.Now()
	if !t.stopped.IsZero() {
		now = t.stopped
	}

	return now.Sub(t.start), now.Sub(t.stage)
}

func (t *clockTimer) Stop() {
	if t.start.IsZero() {
		return
	}

	t.stopped = time.Now()
}
