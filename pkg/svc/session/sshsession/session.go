package sshsession

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/fleetdb/topoctl/pkg/svc/session"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Session is an SSH-backed remote execution session for one node.
type Session struct {
	identity session.NetworkIdentity
	client   *ssh.Client
	files    *sftp.Client
}

func newSession(client *ssh.Client, identity session.NetworkIdentity) *Session {
	return &Session{identity: identity, client: client}
}

// Execute runs the command on the remote host without a pseudo-terminal and
// streams its output through the shared dual-timeout loop.
func (s *Session) Execute(
	ctx context.Context,
	command string,
	stdout, stderr io.Writer,
	opts session.ExecOptions,
) (int, error) {
	if s.client == nil {
		return -1, session.ErrSessionClosed
	}

	run, err := s.client.NewSession()
	if err != nil {
		return -1, fmt.Errorf("open channel to %s: %w", s.identity, err)
	}

	outPipe, err := run.StdoutPipe()
	if err != nil {
		_ = run.Close()

		return -1, fmt.Errorf("stdout pipe for %s: %w", s.identity, err)
	}

	errPipe, err := run.StderrPipe()
	if err != nil {
		_ = run.Close()

		return -1, fmt.Errorf("stderr pipe for %s: %w", s.identity, err)
	}

	err = run.Start(command)
	if err != nil {
		_ = run.Close()

		return -1, fmt.Errorf("start %q on %s: %w", command, s.identity, err)
	}

	proc := &sshProcess{run: run, stdout: outPipe, stderr: errPipe}

	return session.Stream(ctx, proc, stdout, stderr, opts, command)
}

// Put uploads a file over SFTP, creating parent directories as needed.
func (s *Session) Put(_ context.Context, filePath string, data []byte, mode os.FileMode) error {
	if s.client == nil {
		return session.ErrSessionClosed
	}

	files, err := s.sftpClient()
	if err != nil {
		return err
	}

	err = files.MkdirAll(path.Dir(filePath))
	if err != nil {
		return fmt.Errorf("mkdir %s on %s: %w", path.Dir(filePath), s.identity, err)
	}

	remote, err := files.Create(filePath)
	if err != nil {
		return fmt.Errorf("create %s on %s: %w", filePath, s.identity, err)
	}

	_, err = remote.Write(data)
	if err != nil {
		_ = remote.Close()

		return fmt.Errorf("write %s on %s: %w", filePath, s.identity, err)
	}

	err = remote.Close()
	if err != nil {
		return fmt.Errorf("close %s on %s: %w", filePath, s.identity, err)
	}

	err = files.Chmod(filePath, mode)
	if err != nil {
		return fmt.Errorf("chmod %s on %s: %w", filePath, s.identity, err)
	}

	return nil
}

// Close releases the SFTP channel and the underlying connection.
func (s *Session) Close() error {
	if s.client == nil {
		return nil
	}

	if s.files != nil {
		_ = s.files.Close()
		s.files = nil
	}

	err := s.client.Close()
	s.client = nil

	if err != nil {
		return fmt.Errorf("close connection to %s: %w", s.identity, err)
	}

	return nil
}

// sftpClient lazily opens the SFTP channel on the existing connection.
func (s *Session) sftpClient() (*sftp.Client, error) {
	if s.files != nil {
		return s.files, nil
	}

	files, err := sftp.NewClient(s.client)
	if err != nil {
		return nil, fmt.Errorf("open sftp channel to %s: %w", s.identity, err)
	}

	s.files = files

	return files, nil
}

// sshProcess adapts one started ssh.Session to the streaming loop.
type sshProcess struct {
	run    *ssh.Session
	stdout io.Reader
	stderr io.Reader
}

func (p *sshProcess) Stdout() io.Reader { return p.stdout }

func (p *sshProcess) Stderr() io.Reader { return p.stderr }

// Wait normalizes SSH completion: nonzero remote exits become codes, a
// missing status becomes ErrExitStatusUnknown, anything else is a transport failure.
func (p *sshProcess) Wait() (int, error) {
	err := p.run.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitStatus(), nil
	}

	var missingErr *ssh.ExitMissingError
	if errors.As(err, &missingErr) {
		return -1, session.ErrExitStatusUnknown
	}

	return -1, fmt.Errorf("wait for remote command: %w", err)
}

func (p *sshProcess) Close() error {
	err := p.run.Close()
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("close channel: %w", err)
	}

	return nil
}
