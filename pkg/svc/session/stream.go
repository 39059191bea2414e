package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"
)

// PollInterval bounds one read-and-forward pass over the output streams.
const PollInterval = 100 * time.Millisecond

const lineBufferSize = 1024 * 1024

// Process is the transport-side view of one running remote command.
// Transports start the command, then hand the handles to Stream which
// drives it to completion.
type Process interface {
	// Stdout returns the remote stdout stream. May be nil when the transport
	// has no such stream.
	Stdout() io.Reader

	// Stderr returns the remote stderr stream. May be nil.
	Stderr() io.Reader

	// Wait blocks until the remote side signals completion and returns the
	// real exit status. A nonzero exit is reported as a code, not an error;
	// errors are reserved for transport failures.
	Wait() (int, error)

	// Close releases all channel handles. It must be safe to call on every
	// exit path, including after Wait has returned.
	Close() error
}

type waitResult struct {
	code int
	err  error
}

// Stream drives one remote command: it repeatedly performs a bounded
// read-and-forward pass over stdout/stderr, checks for completion, and
// enforces the two independent budgets. Completion observed during a pass wins
// over an already-expired budget. The inactivity clock resets only when a pass
// actually forwarded at least one line.
func Stream(
	ctx context.Context,
	proc Process,
	stdout, stderr io.Writer,
	opts ExecOptions,
	command string,
) (int, error) {
	defer func() { _ = proc.Close() }()

	// stop aborts the pump goroutines on the timeout paths, where nothing
	// receives from the line channels again.
	stop := make(chan struct{})
	defer close(stop)

	str := &streamer{
		outLines: pumpLines(proc.Stdout(), stop),
		errLines: pumpLines(proc.Stderr(), stop),
		stdout:   stdout,
		stderr:   stderr,
	}

	done := make(chan waitResult, 1)

	go func() {
		code, waitErr := proc.Wait()
		done <- waitResult{code: code, err: waitErr}
	}()

	started := time.Now()
	idleSince := started

	for {
		forwarded, completed := str.forwardPass(done)
		if forwarded {
			idleSince = time.Now()
		}

		if completed != nil {
			str.drain()

			if completed.err != nil {
				return -1, fmt.Errorf("wait for %q: %w", command, completed.err)
			}

			return completed.code, nil
		}

		if ctx.Err() != nil {
			return -1, fmt.Errorf("execute %q: %w", command, ctx.Err())
		}

		if opts.MaxTime > 0 && time.Since(started) > opts.MaxTime {
			return -1, fmt.Errorf(
				"%w: %q ran longer than %s", ErrMaxTimeExceeded, command, opts.MaxTime,
			)
		}

		if opts.NoOutput > 0 && time.Since(idleSince) > opts.NoOutput {
			return -1, fmt.Errorf(
				"%w: %q silent for %s", ErrNoOutputTimeout, command, opts.NoOutput,
			)
		}
	}
}

// streamer forwards buffered remote output lines into the caller's sinks.
type streamer struct {
	outLines <-chan string
	errLines <-chan string
	stdout   io.Writer
	stderr   io.Writer
}

// forwardPass performs one bounded read-and-forward pass. It returns whether
// any line was forwarded and, when the remote signaled completion during the
// pass, the completion result.
func (s *streamer) forwardPass(done <-chan waitResult) (bool, *waitResult) {
	forwarded := false
	deadline := time.NewTimer(PollInterval)

	defer deadline.Stop()

	for {
		select {
		case line, ok := <-s.outLines:
			if !ok {
				s.outLines = nil

				continue
			}

			_, _ = fmt.Fprintln(s.stdout, line)
			forwarded = true
		case line, ok := <-s.errLines:
			if !ok {
				s.errLines = nil

				continue
			}

			_, _ = fmt.Fprintln(s.stderr, line)
			forwarded = true
		case result := <-done:
			return forwarded, &result
		case <-deadline.C:
			return forwarded, nil
		}
	}
}

// drain forwards the remaining output after completion, blocking until both
// pumps close their channels. The remote command has already finished, so the
// streams reach EOF and the pumps terminate on their own.
func (s *streamer) drain() {
	for s.outLines != nil || s.errLines != nil {
		select {
		case line, ok := <-s.outLines:
			if !ok {
				s.outLines = nil

				continue
			}

			_, _ = fmt.Fprintln(s.stdout, line)
		case line, ok := <-s.errLines:
			if !ok {
				s.errLines = nil

				continue
			}

			_, _ = fmt.Fprintln(s.stderr, line)
		}
	}
}

// pumpLines reads a stream line by line into a buffered channel until EOF or
// stop closes. Read errors end the pump silently; the wait path reports the
// real outcome.
func pumpLines(reader io.Reader, stop <-chan struct{}) <-chan string {
	lines := make(chan string, 64)

	go func() {
		defer close(lines)

		if reader == nil {
			return
		}

		scanner := bufio.NewScanner(reader)
		scanner.Buffer(make([]byte, 0, 64*1024), lineBufferSize)

		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
	}()

	return lines
}
