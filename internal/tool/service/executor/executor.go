// Package executor runs shell commands for the shell tool.
package executor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/Cyclone1070/agentcore/internal/config"
)

// Result is what a finished command produced.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Truncated bool
	Duration  time.Duration
}

// Local runs commands on this machine. Each command gets its own process
// group so that stopping it also stops anything it spawned.
type Local struct {
	maxOutput int
	grace     time.Duration
}

func NewLocal(cfg *config.Config) *Local {
	if cfg == nil {
		panic("cfg is required")
	}
	return &Local{
		maxOutput: int(cfg.Tools.DefaultMaxCommandOutputSize),
		grace:     time.Duration(cfg.Tools.GracefulShutdownMs) * time.Millisecond,
	}
}

// Run executes command with no budget beyond ctx.
func (l *Local) Run(ctx context.Context, command []string, dir string, env []string) (*Result, error) {
	return l.RunWithTimeout(ctx, command, dir, env, 0)
}

// RunWithTimeout executes command. When timeout (if non-zero) expires the
// group is interrupted, then killed once the grace period passes, and the
// partial output is returned with ErrTimeout. A non-zero exit returns the
// result together with the *exec.ExitError.
func (l *Local) RunWithTimeout(ctx context.Context, command []string, dir string, env []string, timeout time.Duration) (*Result, error) {
	if len(command) == 0 {
		return nil, os.ErrInvalid
	}

	// exec.CommandContext would only kill the leader, not the group.
	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	stdout, stderr := newCapture(l.maxOutput), newCapture(l.maxOutput)
	cmd.Stdout, cmd.Stderr = stdout, stderr
	// Background children may hold the pipes open after the group dies.
	cmd.WaitDelay = l.grace
	setProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &CommandError{Cmd: command[0], Cause: err}
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	var err error
	select {
	case err = <-done:
		if errors.Is(err, exec.ErrWaitDelay) {
			err = nil
		}
	case <-ctx.Done():
		killGroup(cmd)
		<-done
		err = ctx.Err()
	case <-expired:
		interruptGroup(cmd)
		select {
		case <-done:
		case <-time.After(l.grace):
			killGroup(cmd)
			<-done
		}
		err = ErrTimeout
	}

	return &Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		ExitCode:  exitCode(err),
		Truncated: stdout.Truncated() || stderr.Truncated(),
		Duration:  time.Since(start),
	}, err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
