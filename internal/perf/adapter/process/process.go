package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"
)

type Command struct {
	Name string
	Args []string
	Dir  string
	Env  map[string]string
	// IgnoreExitCode makes a non-zero exit a normal result. Failing to start
	// the process is still an error.
	IgnoreExitCode bool
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

type Result struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// ExitError is returned when a command exits non-zero and IgnoreExitCode is
// not set. It carries the captured streams for diagnostics.
type ExitError struct {
	Command string
	Result  Result
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.Result.ExitCode, strings.TrimSpace(e.Result.StandardError))
}

type Runner struct {
	logger *slog.Logger
}

func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

func (r *Runner) Run(ctx context.Context, c Command) (Result, error) {
	r.logger.Info("exec", "cmd", c.String(), "dir", c.Dir)

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range c.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		StandardOutput: stdout.String(),
		StandardError:  stderr.String(),
	}
	r.logger.Debug("exec output", "cmd", c.Name, "stdout", res.StandardOutput, "stderr", res.StandardError)

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return res, fmt.Errorf("start %s: %w", c.Name, err)
		}
		res.ExitCode = exitErr.ExitCode()
		if !c.IgnoreExitCode {
			return res, &ExitError{Command: c.String(), Result: res}
		}
	}

	return res, nil
}

// SplitArguments splits a configured argument string into argv form using
// shell quoting rules.
func SplitArguments(s string) ([]string, error) {
	args, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("split arguments %q: %w", s, err)
	}
	return args, nil
}
