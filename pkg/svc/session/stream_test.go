package session_test

import (
	"bytes"
	"context"
	"io"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fleetdb/topoctl/pkg/svc/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProcess scripts a remote command: fixed output streams plus a
// completion signal that fires after a configurable delay.
type fakeProcess struct {
	stdout     io.Reader
	stderr     io.Reader
	exitCode   int
	exitAfter  time.Duration
	waitErr    error
	closeCalls int
	onClose    func()
}

func (p *fakeProcess) Stdout() io.Reader { return p.stdout }

func (p *fakeProcess) Stderr() io.Reader { return p.stderr }

func (p *fakeProcess) Wait() (int, error) {
	if p.exitAfter > 0 {
		time.Sleep(p.exitAfter)
	}

	return p.exitCode, p.waitErr
}

func (p *fakeProcess) Close() error {
	p.closeCalls++

	if p.onClose != nil {
		p.onClose()
	}

	return nil
}

// spamReader produces output lines endlessly until closed, like a process
// whose log keeps flowing while its stream handles stay open.
type spamReader struct {
	once   sync.Once
	closed chan struct{}
}

func newSpamReader() *spamReader {
	return &spamReader{closed: make(chan struct{})}
}

func (r *spamReader) Read(p []byte) (int, error) {
	select {
	case <-r.closed:
		return 0, io.EOF
	default:
		return copy(p, "spam\n"), nil
	}
}

func (r *spamReader) Close() {
	r.once.Do(func() { close(r.closed) })
}

func TestStreamProcessReturnsExitCodeOnCompletion(t *testing.T) {
	t.Parallel()

	proc := &fakeProcess{
		stdout:   strings.NewReader("line one\nline two\n"),
		stderr:   strings.NewReader("oops\n"),
		exitCode: 42,
	}

	var stdout, stderr bytes.Buffer

	code, err := session.Stream(
		context.Background(),
		proc,
		&stdout,
		&stderr,
		session.ExecOptions{MaxTime: 5 * time.Second, NoOutput: 5 * time.Second},
		"run-thing",
	)
	require.NoError(t, err)
	assert.Equal(t, 42, code)
	assert.Equal(t, "line one\nline two\n", stdout.String())
	assert.Equal(t, "oops\n", stderr.String())
	assert.Equal(t, 1, proc.closeCalls)
}

func TestStreamProcessCompletionWinsWithoutBudgets(t *testing.T) {
	t.Parallel()

	proc := &fakeProcess{
		stdout:    strings.NewReader(""),
		stderr:    strings.NewReader(""),
		exitCode:  0,
		exitAfter: 2 * session.PollInterval,
	}

	code, err := session.Stream(
		context.Background(),
		proc,
		io.Discard,
		io.Discard,
		session.ExecOptions{},
		"quiet-but-quick",
	)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestStreamProcessNoOutputTimeout(t *testing.T) {
	t.Parallel()

	// Never completes, never produces output.
	proc := &fakeProcess{
		stdout:    strings.NewReader(""),
		stderr:    strings.NewReader(""),
		exitAfter: time.Minute,
	}

	_, err := session.Stream(
		context.Background(),
		proc,
		io.Discard,
		io.Discard,
		session.ExecOptions{NoOutput: 3 * session.PollInterval},
		"silent",
	)
	require.ErrorIs(t, err, session.ErrNoOutputTimeout)
	assert.Contains(t, err.Error(), "silent")
	assert.Equal(t, 1, proc.closeCalls)
}

func TestStreamProcessMaxTimeWinsOverFlowingOutput(t *testing.T) {
	t.Parallel()

	// A pipe fed continuously so the inactivity clock keeps resetting.
	outReader, outWriter := io.Pipe()
	defer func() { _ = outWriter.Close() }()

	go func() {
		for {
			_, writeErr := io.WriteString(outWriter, "still going\n")
			if writeErr != nil {
				return
			}

			time.Sleep(session.PollInterval / 4)
		}
	}()

	proc := &fakeProcess{
		stdout:    outReader,
		stderr:    strings.NewReader(""),
		exitAfter: time.Minute,
	}

	var stdout bytes.Buffer

	_, err := session.Stream(
		context.Background(),
		proc,
		&stdout,
		io.Discard,
		session.ExecOptions{
			MaxTime:  4 * session.PollInterval,
			NoOutput: 20 * session.PollInterval,
		},
		"chatty",
	)
	require.ErrorIs(t, err, session.ErrMaxTimeExceeded)
	assert.NotEmpty(t, stdout.String())
}

func TestStreamProcessDeliversLateOutputOnCompletion(t *testing.T) {
	t.Parallel()

	// Completion is signaled immediately, but the output arrives a few poll
	// intervals later. Nothing may be dropped.
	outReader, outWriter := io.Pipe()

	go func() {
		time.Sleep(3 * session.PollInterval)
		_, _ = io.WriteString(outWriter, "late line\n")
		_ = outWriter.Close()
	}()

	proc := &fakeProcess{
		stdout:   outReader,
		stderr:   strings.NewReader(""),
		exitCode: 0,
	}

	var stdout bytes.Buffer

	code, err := session.Stream(
		context.Background(),
		proc,
		&stdout,
		io.Discard,
		session.ExecOptions{},
		"slow-flush",
	)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "late line\n", stdout.String())
}

func TestStreamProcessTimeoutReleasesPumpGoroutines(t *testing.T) {
	// Not parallel: the assertion compares goroutine counts.
	reader := newSpamReader()
	proc := &fakeProcess{
		stdout:    reader,
		stderr:    strings.NewReader(""),
		exitAfter: time.Minute,
		onClose:   reader.Close,
	}

	before := runtime.NumGoroutine()

	_, err := session.Stream(
		context.Background(),
		proc,
		io.Discard,
		io.Discard,
		session.ExecOptions{MaxTime: 2 * session.PollInterval},
		"chatty-forever",
	)
	require.ErrorIs(t, err, session.ErrMaxTimeExceeded)

	// Only the fake's sleeping Wait goroutine may remain; the pumps must
	// unwind once the stream returns and closes the process.
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStreamProcessPropagatesWaitErrors(t *testing.T) {
	t.Parallel()

	proc := &fakeProcess{
		stdout:  strings.NewReader(""),
		stderr:  strings.NewReader(""),
		waitErr: session.ErrExitStatusUnknown,
	}

	_, err := session.Stream(
		context.Background(),
		proc,
		io.Discard,
		io.Discard,
		session.ExecOptions{},
		"broken",
	)
	require.ErrorIs(t, err, session.ErrExitStatusUnknown)
}
