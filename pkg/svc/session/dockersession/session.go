package dockersession

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/fleetdb/topoctl/pkg/svc/session"
)

// inspectInterval paces exec-status polling after the output stream ends.
const inspectInterval = 50 * time.Millisecond

// Session runs commands inside one container via docker exec.
type Session struct {
	api         client.APIClient
	containerID string
	identity    session.NetworkIdentity
	closed      bool
}

// Execute runs the command through `/bin/sh -c` inside the container and
// streams its demultiplexed output through the shared dual-timeout loop.
func (s *Session) Execute(
	ctx context.Context,
	command string,
	stdout, stderr io.Writer,
	opts session.ExecOptions,
) (int, error) {
	if s.closed {
		return -1, session.ErrSessionClosed
	}

	execConfig := container.ExecOptions{
		Cmd:          []string{"/bin/sh", "-c", command},
		AttachStdout: true,
		AttachStderr: true,
	}

	created, err := s.api.ContainerExecCreate(ctx, s.containerID, execConfig)
	if err != nil {
		return -1, fmt.Errorf("create exec in %s: %w", s.containerID, err)
	}

	attached, err := s.api.ContainerExecAttach(ctx, created.ID, container.ExecStartOptions{})
	if err != nil {
		return -1, fmt.Errorf("attach exec in %s: %w", s.containerID, err)
	}

	return session.Stream(
		ctx, newExecProcess(ctx, s.api, created.ID, attached), stdout, stderr, opts, command,
	)
}

// Put copies a file into the container as a single-entry tar archive.
func (s *Session) Put(ctx context.Context, path string, data []byte, mode os.FileMode) error {
	if s.closed {
		return session.ErrSessionClosed
	}

	var archive bytes.Buffer

	writer := tar.NewWriter(&archive)

	err := writer.WriteHeader(&tar.Header{
		Name: strings.TrimPrefix(path, "/"),
		Mode: int64(mode),
		Size: int64(len(data)),
	})
	if err != nil {
		return fmt.Errorf("tar header for %s: %w", path, err)
	}

	_, err = writer.Write(data)
	if err != nil {
		return fmt.Errorf("tar content for %s: %w", path, err)
	}

	err = writer.Close()
	if err != nil {
		return fmt.Errorf("finish tar for %s: %w", path, err)
	}

	err = s.api.CopyToContainer(ctx, s.containerID, "/", &archive, container.CopyToContainerOptions{})
	if err != nil {
		return fmt.Errorf("copy %s into %s: %w", path, s.containerID, err)
	}

	return nil
}

// Close marks the session closed. The Docker API client is shared by the
// factory and stays open.
func (s *Session) Close() error {
	s.closed = true

	return nil
}

// execProcess adapts one attached docker exec to the streaming loop.
type execProcess struct {
	ctx      context.Context
	api      client.APIClient
	execID   string
	attached types.HijackedResponse
	stdout   *io.PipeReader
	stderr   *io.PipeReader
	copied   chan error
}

func newExecProcess(
	ctx context.Context,
	api client.APIClient,
	execID string,
	attached types.HijackedResponse,
) *execProcess {
	outReader, outWriter := io.Pipe()
	errReader, errWriter := io.Pipe()
	copied := make(chan error, 1)

	go func() {
		_, copyErr := stdcopy.StdCopy(outWriter, errWriter, attached.Reader)
		_ = outWriter.CloseWithError(copyErr)
		_ = errWriter.CloseWithError(copyErr)
		copied <- copyErr
	}()

	return &execProcess{
		ctx:      ctx,
		api:      api,
		execID:   execID,
		attached: attached,
		stdout:   outReader,
		stderr:   errReader,
		copied:   copied,
	}
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }

func (p *execProcess) Stderr() io.Reader { return p.stderr }

// Wait blocks until the output stream ends, then polls the exec status for
// the real exit code.
func (p *execProcess) Wait() (int, error) {
	<-p.copied

	for {
		inspect, err := p.api.ContainerExecInspect(p.ctx, p.execID)
		if err != nil {
			return -1, fmt.Errorf("inspect exec %s: %w", p.execID, err)
		}

		if !inspect.Running {
			return inspect.ExitCode, nil
		}

		select {
		case <-p.ctx.Done():
			return -1, fmt.Errorf("inspect exec %s: %w", p.execID, p.ctx.Err())
		case <-time.After(inspectInterval):
		}
	}
}

func (p *execProcess) Close() error {
	p.attached.Close()
	_ = p.stdout.Close()
	_ = p.stderr.Close()

	return nil
}
