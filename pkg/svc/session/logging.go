package session

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// LoggingSession wraps a Session and logs a warning, including the offending
// command, whenever a command returns a nonzero exit code. The result is
// passed through unaltered.
type LoggingSession struct {
	inner  Session
	logger *logrus.Entry
}

// NewLoggingSession wraps the given session with nonzero-exit warnings.
func NewLoggingSession(inner Session, logger *logrus.Entry) *LoggingSession {
	return &LoggingSession{inner: inner, logger: logger}
}

// Execute delegates to the wrapped session and warns on nonzero exit codes.
func (s *LoggingSession) Execute(
	ctx context.Context,
	command string,
	stdout, stderr io.Writer,
	opts ExecOptions,
) (int, error) {
	code, err := s.inner.Execute(ctx, command, stdout, stderr, opts)
	if err == nil && code != 0 {
		s.logger.WithFields(logrus.Fields{
			"command":  command,
			"exitCode": code,
		}).Warn("remote command exited nonzero")
	}

	return code, err
}

// Put delegates to the wrapped session.
func (s *LoggingSession) Put(
	ctx context.Context,
	path string,
	data []byte,
	mode os.FileMode,
) error {
	return s.inner.Put(ctx, path, data, mode)
}

// Close delegates to the wrapped session.
func (s *LoggingSession) Close() error {
	return s.inner.Close()
}
