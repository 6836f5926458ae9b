// Package shell implements the shell tool.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/Cyclone1070/agentcore/internal/config"
	"github.com/Cyclone1070/agentcore/internal/tool"
	"github.com/Cyclone1070/agentcore/internal/tool/service/executor"
	"github.com/Cyclone1070/agentcore/internal/tool/service/path"
)

// Name is the tool name the risk classifier maps to the bash category.
const Name = "shell"

type commandExecutor interface {
	RunWithTimeout(ctx context.Context, command []string, dir string, env []string, timeout time.Duration) (*executor.Result, error)
}

type fileSystem interface {
	envFileReader
	Stat(path string) (os.FileInfo, error)
}

type locator interface {
	Locate(path string) (path.Location, error)
}

type ShellRequest struct {
	Command        []string          `json:"command"`
	WorkingDir     string            `json:"working_dir,omitempty"`
	TimeoutSeconds int               `json:"timeout_seconds,omitempty"`
	Env            map[string]string `json:"env,omitempty"`
	EnvFiles       []string          `json:"env_files,omitempty"`
}

func (r *ShellRequest) Validate() error {
	if len(r.Command) == 0 || strings.TrimSpace(r.Command[0]) == "" {
		return ErrCommandRequired
	}
	if r.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeTimeout, r.TimeoutSeconds)
	}
	return nil
}

// Tool runs commands on the local machine. Policy is enforced by the
// caller before Execute is reached.
type Tool struct {
	fs       fileSystem
	executor commandExecutor
	paths    locator
	config   *config.Config
}

// New creates the shell tool with injected dependencies.
func New(fs fileSystem, exec commandExecutor, paths locator, cfg *config.Config) *Tool {
	if fs == nil {
		panic("fs is required")
	}
	if exec == nil {
		panic("exec is required")
	}
	if paths == nil {
		panic("paths is required")
	}
	if cfg == nil {
		panic("cfg is required")
	}
	return &Tool{fs: fs, executor: exec, paths: paths, config: cfg}
}

// Shell returns the invocable shell tool.
func (t *Tool) Shell() tool.Invocable {
	return tool.NewFunc(tool.Declaration{
		Name:        Name,
		Description: "Run a command. Pass argv as a list, or a single string to run it through the system shell.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"command":         {Type: tool.TypeArray, Items: &tool.Schema{Type: tool.TypeString}, Description: "Command and arguments"},
				"working_dir":     {Type: tool.TypeString, Description: "Working directory (default: workspace root)"},
				"timeout_seconds": {Type: tool.TypeInteger, Description: "Timeout in seconds, capped at the configured default"},
				"env":             {Type: tool.TypeObject, Description: "Extra environment variables"},
				"env_files":       {Type: tool.TypeArray, Items: &tool.Schema{Type: tool.TypeString}, Description: ".env files to load, later files win"},
			},
			Required: []string{"command"},
		},
	}, t.run)
}

func (t *Tool) run(ctx context.Context, req *ShellRequest) (tool.Result, error) {
	wd := req.WorkingDir
	if wd == "" {
		wd = "."
	}
	loc, err := t.paths.Locate(wd)
	if err != nil {
		return tool.Result{}, err
	}
	info, err := t.fs.Stat(loc.Abs)
	if err != nil {
		if os.IsNotExist(err) {
			return tool.Result{}, fmt.Errorf("%w: %s", ErrWorkingDirMissing, loc.Display())
		}
		return tool.Result{}, fmt.Errorf("failed to stat %s: %w", loc.Display(), err)
	}
	if !info.IsDir() {
		return tool.Result{}, fmt.Errorf("%w: %s", ErrNotDirectory, loc.Display())
	}

	env, err := t.environment(req)
	if err != nil {
		return tool.Result{}, err
	}

	timeoutSec := t.config.Tools.DefaultShellTimeout
	if req.TimeoutSeconds > 0 && req.TimeoutSeconds < timeoutSec {
		timeoutSec = req.TimeoutSeconds
	}
	timeout := time.Duration(timeoutSec) * time.Second

	argv := argv(req.Command)
	res, execErr := t.executor.RunWithTimeout(ctx, argv, loc.Abs, env, timeout)
	if res == nil {
		res = &executor.Result{ExitCode: -1}
	}

	timedOut := false
	if execErr != nil {
		switch {
		case errors.Is(execErr, executor.ErrTimeout):
			timedOut = true
		case errors.Is(execErr, context.Canceled), errors.Is(execErr, context.DeadlineExceeded):
			return tool.Result{}, execErr
		default:
			var cmdErr *executor.CommandError
			if errors.As(execErr, &cmdErr) {
				return tool.Result{}, execErr
			}
		}
	}

	cmdline := strings.Join(req.Command, " ")
	return tool.Result{
		Content: format(res, timedOut, timeout),
		Failed:  timedOut || res.ExitCode != 0,
		Display: tool.ShellDisplay{
			Command:    cmdline,
			WorkingDir: loc.Display(),
			ExitCode:   res.ExitCode,
			TimedOut:   timedOut,
		},
	}, nil
}

// environment layers the process env, then env files in order, then req.Env.
func (t *Tool) environment(req *ShellRequest) ([]string, error) {
	env := os.Environ()
	for _, f := range req.EnvFiles {
		loc, err := t.paths.Locate(f)
		if err != nil {
			return nil, err
		}
		vars, err := ParseEnvFile(t.fs, loc.Abs)
		if err != nil {
			return nil, err
		}
		for k, v := range vars {
			env = append(env, k+"="+v)
		}
	}
	for k, v := range req.Env {
		env = append(env, k+"="+v)
	}
	return env, nil
}

// argv runs a single string containing whitespace through the system shell.
func argv(command []string) []string {
	if len(command) != 1 || !strings.ContainsAny(command[0], " \t|&;<>$`") {
		return command
	}
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C", command[0]}
	}
	return []string{"sh", "-c", command[0]}
}

func format(res *executor.Result, timedOut bool, timeout time.Duration) string {
	var b strings.Builder
	if timedOut {
		fmt.Fprintf(&b, "Command timed out after %v and was terminated.\n", timeout)
	} else {
		fmt.Fprintf(&b, "Exit code: %d\n", res.ExitCode)
	}
	if res.Stdout != "" {
		b.WriteString("\n[stdout]\n")
		b.WriteString(res.Stdout)
		if !strings.HasSuffix(res.Stdout, "\n") {
			b.WriteByte('\n')
		}
	}
	if res.Stderr != "" {
		b.WriteString("\n[stderr]\n")
		b.WriteString(res.Stderr)
		if !strings.HasSuffix(res.Stderr, "\n") {
			b.WriteByte('\n')
		}
	}
	if res.Truncated {
		b.WriteString("\n[output truncated]\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
