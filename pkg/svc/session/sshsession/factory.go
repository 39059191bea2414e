package sshsession

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/fleetdb/topoctl/pkg/svc/session"
	"golang.org/x/crypto/ssh"
)

const (
	defaultSSHPort     = 22
	defaultDialTimeout = 30 * time.Second
)

// Factory opens SSH sessions with a fixed user and private key. The
// authenticated-transport flag is ignored: SSH authentication is the same
// either way, the flag only matters to database-level transports.
type Factory struct {
	user        string
	keyPath     string
	port        int
	dialTimeout time.Duration
	hostKeys    ssh.HostKeyCallback
}

// Option configures a Factory.
type Option func(*Factory)

// WithPort overrides the SSH port (default 22).
func WithPort(port int) Option {
	return func(f *Factory) { f.port = port }
}

// WithDialTimeout overrides the TCP dial timeout.
func WithDialTimeout(timeout time.Duration) Option {
	return func(f *Factory) { f.dialTimeout = timeout }
}

// WithHostKeyCallback overrides host key verification. The default accepts
// any host key, which matches ephemeral test fleets where hosts are recreated
// per run; pass a known-hosts callback for long-lived fleets.
func WithHostKeyCallback(callback ssh.HostKeyCallback) Option {
	return func(f *Factory) { f.hostKeys = callback }
}

// NewFactory creates an SSH session factory authenticating as user with the
// private key at keyPath.
func NewFactory(user, keyPath string, opts ...Option) *Factory {
	factory := &Factory{
		user:        user,
		keyPath:     keyPath,
		port:        defaultSSHPort,
		dialTimeout: defaultDialTimeout,
		hostKeys:    ssh.InsecureIgnoreHostKey(), //nolint:gosec // See WithHostKeyCallback.
	}

	for _, opt := range opts {
		opt(factory)
	}

	return factory
}

// NewSession dials the node's public address and returns a ready session.
func (f *Factory) NewSession(
	ctx context.Context,
	identity session.NetworkIdentity,
	_ bool,
) (session.Session, error) {
	key, err := os.ReadFile(f.keyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key %s: %w", f.keyPath, err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", f.keyPath, err)
	}

	config := &ssh.ClientConfig{
		User:            f.user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: f.hostKeys,
		Timeout:         f.dialTimeout,
	}

	addr := net.JoinHostPort(identity.PublicAddress, strconv.Itoa(f.port))

	dialer := &net.Dialer{Timeout: f.dialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	sshConn, channels, requests, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}

	return newSession(ssh.NewClient(sshConn, channels, requests), identity), nil
}
