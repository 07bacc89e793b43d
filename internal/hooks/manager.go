package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

// Execution errors.
var (
	// ErrTimeout means the hook exceeded its wall-clock bound and was
	// terminated.
	ErrTimeout = errors.New("hook timed out")
	// ErrNonZeroExit means the hook ran to completion but failed.
	ErrNonZeroExit = errors.New("hook exited non-zero")
)

// TimeoutExitCode is the sentinel exit code reported for terminated hooks.
const TimeoutExitCode = -1

// Manager runs hook scripts from a configured directory. It holds no state
// about the scripts themselves; discovery happens per event so scripts can
// be dropped in or removed while the daemon runs.
type Manager struct {
	dir     string
	timeout time.Duration
	logger  *slog.Logger
}

// NewManager creates a hook manager.
func NewManager(dir string, timeout time.Duration, logger *slog.Logger) *Manager {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{dir: dir, timeout: timeout, logger: logger}
}

// Dir returns the hooks directory.
func (m *Manager) Dir() string {
	return m.dir
}

// EnsureDirectory creates the hooks directory if absent. Idempotent.
func (m *Manager) EnsureDirectory() error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create hooks directory %s: %w", m.dir, err)
	}
	return nil
}

// Discover lists executable, non-hidden entries in the hooks directory in
// enumeration order. A missing directory yields an empty list.
func (m *Manager) Discover() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read hooks directory %s: %w", m.dir, err)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name[0] == '.' {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Mode().Perm()&0o111 == 0 {
			continue
		}
		paths = append(paths, filepath.Join(m.dir, name))
	}
	return paths, nil
}

// Execute runs one hook script with the EVENT variable, extra environment
// entries ("KEY=value"), and the payload on standard input. It returns the
// script's exit code; a hook that outlives the timeout is terminated and
// reported as TimeoutExitCode with ErrTimeout.
func (m *Manager) Execute(ctx context.Context, script string, event Event, extraEnv []string, payload []byte) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, script)
	cmd.Env = append(os.Environ(), extraEnv...)
	cmd.Env = append(cmd.Env, "EVENT="+string(event))
	cmd.Stdin = bytes.NewReader(payload)
	// Terminate rather than kill on timeout so scripts get a chance to
	// clean up; the WaitDelay escalates if they ignore it.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 2 * time.Second

	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return TimeoutExitCode, fmt.Errorf("%w: %s after %s", ErrTimeout, script, m.timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), fmt.Errorf("%w: %s: exit %d", ErrNonZeroExit, script, exitErr.ExitCode())
		}
		return TimeoutExitCode, fmt.Errorf("run hook %s: %w", script, err)
	}
	return 0, nil
}

// Fire discovers all hooks and runs each one for the event. Scripts run
// concurrently so one hook's failure or hang never delays the others; the
// call returns once every script has finished or timed out. The payload is
// marshaled once. Failures are logged and counted, never returned.
func (m *Manager) Fire(ctx context.Context, event Event, extraEnv []string, payload any) {
	scripts, err := m.Discover()
	if err != nil {
		m.logger.Error("hook discovery failed", "error", err)
		return
	}
	if len(scripts) == 0 {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		m.logger.Error("hook payload marshal failed", "event", event, "error", err)
		return
	}

	var wg sync.WaitGroup
	for _, script := range scripts {
		wg.Add(1)
		go func(script string) {
			defer wg.Done()

			start := time.Now()
			code, err := m.Execute(ctx, script, event, extraEnv, body)
			duration := time.Since(start)

			switch {
			case errors.Is(err, ErrTimeout):
				recordHookRun(string(event), "timeout", duration)
				m.logger.Warn("hook timed out", "script", script, "event", event, "timeout", m.timeout)
			case err != nil:
				recordHookRun(string(event), "failed", duration)
				m.logger.Warn("hook failed", "script", script, "event", event, "exit_code", code, "error", err)
			default:
				recordHookRun(string(event), "success", duration)
				m.logger.Debug("hook completed", "script", script, "event", event, "duration", duration)
			}
		}(script)
	}
	wg.Wait()
}
