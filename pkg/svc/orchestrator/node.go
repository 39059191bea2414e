package orchestrator

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/fleetdb/topoctl/pkg/apis/topology/v1alpha1"
	yamlmarshaller "github.com/fleetdb/topoctl/pkg/io/marshaller/yaml"
	"github.com/fleetdb/topoctl/pkg/svc/session"
	"github.com/fleetdb/topoctl/pkg/svc/setup"
	"github.com/sirupsen/logrus"
)

// Execution budgets per remote command class. Every remote call carries both
// a hard budget and a no-output budget.
var (
	prepareExecOpts = session.ExecOptions{MaxTime: 10 * time.Minute, NoOutput: 2 * time.Minute}
	launchExecOpts  = session.ExecOptions{MaxTime: 10 * time.Minute, NoOutput: 5 * time.Minute}
	adminExecOpts   = session.ExecOptions{MaxTime: 5 * time.Minute, NoOutput: time.Minute}
	probeExecOpts   = session.ExecOptions{MaxTime: time.Minute, NoOutput: 30 * time.Second}
)

// resetShutdownMaxTime bounds the graceful stop inside a node reset.
const resetShutdownMaxTime = 5 * time.Minute

// sharedConfig is the descriptor-level configuration every node in a tree
// inherits from its root.
type sharedConfig struct {
	setup   v1alpha1.SetupSpec
	auth    *v1alpha1.AuthSpec
	pinning any
}

// Node drives one server process on one host. It owns a lazily opened remote
// session and implements the full topology lifecycle for the standalone case;
// groups compose nodes for the rest.
type Node struct {
	spec   v1alpha1.NodeSpec
	shared sharedConfig
	deps   Deps
	logger *logrus.Entry

	authEnabled bool
	sess        session.Session
}

func newNode(spec v1alpha1.NodeSpec, shared sharedConfig, deps Deps) *Node {
	if spec.Kind == "" {
		spec.Kind = v1alpha1.NodeKindMongod
	}

	node := &Node{
		spec:   spec,
		shared: shared,
		deps:   deps,
	}
	node.logger = deps.logger().WithFields(logrus.Fields{
		"node": node.identity().String(),
		"kind": string(spec.Kind),
	})

	return node
}

func (n *Node) identity() session.NetworkIdentity {
	return session.NetworkIdentity{
		PublicAddress:  n.spec.PublicAddress,
		PrivateAddress: n.spec.PrivateAddress,
		Port:           n.spec.Port,
	}
}

// privateHostPort is how other cluster members address this node.
func (n *Node) privateHostPort() string {
	return fmt.Sprintf("%s:%d", n.spec.PrivateAddress, n.spec.Port)
}

func (n *Node) logDir() string {
	if n.spec.LogDir == "" {
		return "/tmp"
	}

	return n.spec.LogDir
}

// configPath names the uploaded config file. The port keeps co-located
// processes apart, and the path doubles as the pkill match pattern.
func (n *Node) configPath() string {
	return path.Join(n.logDir(), fmt.Sprintf("%s-%d.conf", n.spec.Kind, n.spec.Port))
}

func (n *Node) logPath() string {
	return path.Join(n.logDir(), fmt.Sprintf("%s-%d.log", n.spec.Kind, n.spec.Port))
}

func (n *Node) binaryPath() string {
	if n.spec.BinDir == "" {
		return string(n.spec.Kind)
	}

	return path.Join(n.spec.BinDir, "bin", string(n.spec.Kind))
}

func (n *Node) shellPath() string {
	if n.spec.BinDir == "" {
		return "mongo"
	}

	return path.Join(n.spec.BinDir, "bin", "mongo")
}

// session returns the node's remote session, opening it on first use. The
// session is wrapped so nonzero exits are always logged.
func (n *Node) session(ctx context.Context) (session.Session, error) {
	if n.sess != nil {
		return n.sess, nil
	}

	raw, err := n.deps.Sessions.NewSession(ctx, n.identity(), n.authEnabled)
	if err != nil {
		return nil, fmt.Errorf("open session to %s: %w", n.identity(), err)
	}

	n.sess = session.NewLoggingSession(raw, n.logger)

	return n.sess, nil
}

// run executes one rendered shell command, reporting success as exit zero.
// Transport and timeout errors are logged and folded into false.
func (n *Node) run(ctx context.Context, command string, opts session.ExecOptions) bool {
	sess, err := n.session(ctx)
	if err != nil {
		n.logger.WithError(err).Error("session unavailable")

		return false
	}

	exitCode, err := sess.Execute(ctx, command, n.outputSink(logrus.DebugLevel), n.outputSink(logrus.WarnLevel), opts)
	if err != nil {
		n.logger.WithError(err).WithField("command", command).Error("remote command failed")

		return false
	}

	return exitCode == 0
}

func (n *Node) outputSink(level logrus.Level) lineLogger {
	return lineLogger{entry: n.logger, level: level}
}

// Prepare clears leftover processes and runs the planned filesystem
// preparation commands for this node's role.
func (n *Node) Prepare(ctx context.Context) bool {
	logger := n.logger.WithField("op", "prepare")
	logger.Info("preparing host")

	// A stray process from a previous run holds the port and the dbpath lock.
	if _, err := n.killProcess(ctx, true); err != nil {
		logger.WithError(err).Error("failed to clear stray processes")

		return false
	}

	for _, command := range setup.PlanCommands(n.setupFlags()) {
		if !n.run(ctx, setup.Render(command), prepareExecOpts) {
			logger.Error("host preparation command failed")

			return false
		}
	}

	return true
}

func (n *Node) setupFlags() setup.Flags {
	return setup.Flags{
		CleanDBDir:      n.shared.setup.CleanDBDir,
		CleanLogs:       n.shared.setup.CleanLogs,
		UseJournalMount: n.spec.UseJournalMount,
		Router:          n.spec.Kind.IsRouter(),
		DBDir:           n.spec.DBDir,
		LogDir:          n.logDir(),
		JournalDir:      n.spec.JournalDir,
	}
}

// Launch uploads the rendered config file, starts the process and confirms it
// reports healthy. A failed start dumps the process log tail for diagnosis.
func (n *Node) Launch(ctx context.Context, opts LaunchOptions) bool {
	logger := n.logger.WithField("op", "launch")
	logger.Info("launching process")

	content, err := yamlmarshaller.NewMarshaller[map[string]any]().Marshal(n.configContent())
	if err != nil {
		logger.WithError(err).Error("failed to render config file")

		return false
	}

	sess, err := n.session(ctx)
	if err != nil {
		logger.WithError(err).Error("session unavailable")

		return false
	}

	if err := sess.Put(ctx, n.configPath(), []byte(content), 0o644); err != nil {
		logger.WithError(err).Error("failed to upload config file")

		return false
	}

	// Echo the uploaded file into our logs so a bad render is visible
	// without a round trip to the host.
	_ = n.run(ctx, setup.Render([]string{"cat", n.configPath()}), probeExecOpts)

	if !n.run(ctx, n.launchCommand(opts), launchExecOpts) {
		logger.Error("process failed to start")
		n.dumpLogTail(ctx)

		return false
	}

	return n.ConfirmUp(ctx)
}

// configContent returns the descriptor's config document with the paths this
// node derives filled in when the descriptor leaves them out.
func (n *Node) configContent() map[string]any {
	content := map[string]any{}
	for key, value := range n.spec.ConfigContent {
		content[key] = value
	}

	systemLog, ok := content["systemLog"].(map[string]any)
	if !ok {
		systemLog = map[string]any{}
		content["systemLog"] = systemLog
	}

	if _, ok := systemLog["path"]; !ok {
		systemLog["path"] = n.logPath()
		systemLog["destination"] = "file"
	}

	if n.spec.Kind.IsRouter() || n.spec.DBDir == "" {
		return content
	}

	storage, ok := content["storage"].(map[string]any)
	if !ok {
		storage = map[string]any{}
		content["storage"] = storage
	}

	if _, ok := storage["dbPath"]; !ok {
		storage["dbPath"] = n.spec.DBDir
	}

	return content
}

func (n *Node) launchCommand(opts LaunchOptions) string {
	command := setup.Render([]string{n.binaryPath(), "--config", n.configPath()})

	if opts.UseProcessPinning {
		// The pinning prefix is an operator-provided command; its tokens pass
		// through bare.
		if prefix := PinningTokens(n.shared.pinning); len(prefix) > 0 {
			command = strings.Join(prefix, " ") + " " + command
		}
	}

	return command
}

func (n *Node) dumpLogTail(ctx context.Context) {
	_ = n.run(ctx, setup.Render(
		[]string{"tail", "-n", strconv.Itoa(launchLogTail), n.logPath()},
	), probeExecOpts)
}

// ConfirmUp polls the node until it answers an isMaster health probe.
func (n *Node) ConfirmUp(ctx context.Context) bool {
	logger := n.logger.WithField("op", "confirmUp")

	healthy := waitFor(ctx, nodeUpAttempts, pollDelay, func() bool {
		return n.RunAdminScript(ctx, healthyScript)
	})
	if !healthy {
		logger.Error("node never reported healthy")
	}

	return healthy
}

// RunAdminScript evaluates a script through the administrative shell on this
// node, using authenticated connections once auth has been enabled.
func (n *Node) RunAdminScript(ctx context.Context, script string) bool {
	return n.run(ctx, n.shellCommand(script, n.authEnabled), adminExecOpts)
}

func (n *Node) shellCommand(script string, auth bool) string {
	argv := []string{n.shellPath(), "--quiet"}

	if auth && n.shared.auth != nil {
		argv = append(argv,
			"-u", n.shared.auth.Username,
			"-p", n.shared.auth.Password,
			"--authenticationDatabase", "admin",
		)
	}

	argv = append(argv, fmt.Sprintf("localhost:%d/admin", n.spec.Port), "--eval", script)

	return setup.Render(argv)
}

// Shutdown asks the server to stop and probes until the process is gone,
// retrying the script each round. The server closing the connection mid-stop
// makes the script itself unreliable, so only the probe decides.
func (n *Node) Shutdown(ctx context.Context, maxTime time.Duration, auth bool) bool {
	logger := n.logger.WithField("op", "shutdown")
	logger.Info("shutting down process")

	script := shutdownScript(n.spec.Shutdown)
	execOpts := session.ExecOptions{MaxTime: maxTime, NoOutput: maxTime}

	for attempt := 1; attempt <= shutdownRetries; attempt++ {
		if !n.run(ctx, n.shellCommand(script, auth), execOpts) && attempt <= 2 {
			// Early failures are worth diagnosing; later rounds just repeat.
			n.dumpLogTail(ctx)
		}

		if !n.processPresent(ctx) {
			logger.WithField("attempts", attempt).Info("process stopped")

			return true
		}

		if attempt < shutdownRetries {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(pollDelay):
			}
		}
	}

	logger.Error("process still running after shutdown retries")

	return false
}

// Destroy escalates terminate signals for up to maxTime, then force-kills
// unconditionally. The dbpath lock file is removed afterwards because it
// survives a hard kill and blocks the next launch.
func (n *Node) Destroy(ctx context.Context, maxTime time.Duration) (bool, error) {
	logger := n.logger.WithField("op", "destroy")
	logger.Info("destroying process")

	deadline := time.Now().Add(maxTime)

	for {
		stopped, err := n.killProcess(ctx, false)
		if err != nil {
			return false, err
		}

		if stopped && !n.processPresent(ctx) {
			break
		}

		wait := time.Until(deadline)
		if wait <= 0 {
			break
		}

		if wait > pollDelay {
			wait = pollDelay
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(wait):
		}
	}

	stopped, err := n.killProcess(ctx, true)
	if err != nil {
		return false, err
	}

	if n.spec.DBDir != "" {
		_ = n.run(ctx, setup.Render(
			[]string{"rm", "-rf", path.Join(n.spec.DBDir, "mongod.lock")},
		), probeExecOpts)
	}

	return stopped, nil
}

// killProcess signals any process started from this node's config file.
// pkill exits 1 when nothing matched, which counts as success here.
func (n *Node) killProcess(ctx context.Context, force bool) (bool, error) {
	signal := "-TERM"
	if force {
		signal = "-9"
	}

	sess, err := n.session(ctx)
	if err != nil {
		return false, err
	}

	command := setup.Render([]string{"pkill", signal, "-f", n.configPath()})

	exitCode, err := sess.Execute(ctx, command,
		n.outputSink(logrus.DebugLevel), n.outputSink(logrus.WarnLevel), probeExecOpts)
	if err != nil {
		return false, fmt.Errorf("kill probe for %s: %w", n.identity(), err)
	}

	return exitCode == 0 || exitCode == 1, nil
}

// processPresent reports whether a process started from this node's config
// file is still alive. Probe failures count as present so retry loops keep
// going instead of declaring victory on a broken probe.
func (n *Node) processPresent(ctx context.Context) bool {
	sess, err := n.session(ctx)
	if err != nil {
		return true
	}

	command := setup.Render([]string{"pgrep", "-f", n.configPath()})

	exitCode, err := sess.Execute(ctx, command,
		n.outputSink(logrus.DebugLevel), n.outputSink(logrus.WarnLevel), probeExecOpts)
	if err != nil {
		return true
	}

	return exitCode == 0
}

// AddDefaultUsers creates the root administrative user on this node.
func (n *Node) AddDefaultUsers(ctx context.Context) bool {
	return n.addUsers(ctx, 1)
}

func (n *Node) addUsers(ctx context.Context, writeConcern int) bool {
	logger := n.logger.WithField("op", "addDefaultUsers")

	if n.shared.auth == nil {
		logger.Debug("no authentication settings configured")

		return true
	}

	if n.authEnabled {
		logger.Error("default users must be created while running unauthenticated")

		return false
	}

	return n.RunAdminScript(ctx, createUserScript(*n.shared.auth, writeConcern))
}

// EnableAuth switches this node's administrative-shell calls to authenticated
// connections. Transport credentials are fixed at session creation and are
// not affected.
func (n *Node) EnableAuth() {
	n.authEnabled = true
}

// Reset restarts the process in place: graceful shutdown, then a fresh launch
// against the existing data files.
func (n *Node) Reset(ctx context.Context) bool {
	if !n.Shutdown(ctx, resetShutdownMaxTime, n.authEnabled) {
		return false
	}

	return n.Launch(ctx, LaunchOptions{})
}

// Name is the node's public address and port, used in progress displays.
func (n *Node) Name() string {
	return n.identity().String()
}

// Nodes returns the node itself; groups flatten their members.
func (n *Node) Nodes() []*Node {
	return []*Node{n}
}

// Close releases the node's session if one was opened.
func (n *Node) Close() error {
	if n.sess == nil {
		return nil
	}

	sess := n.sess
	n.sess = nil

	if err := sess.Close(); err != nil {
		return fmt.Errorf("close session to %s: %w", n.identity(), err)
	}

	return nil
}

// lineLogger forwards whole output lines from a remote command into the
// node's structured log.
type lineLogger struct {
	entry *logrus.Entry
	level logrus.Level
}

func (w lineLogger) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	if line != "" {
		w.entry.Log(w.level, line)
	}

	return len(p), nil
}
