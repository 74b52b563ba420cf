// Package testrunner executes a generated project's test suite and classifies the result.
package testrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/codex-k8s/autodevctl/internal/env"
	"github.com/codex-k8s/autodevctl/internal/logging"
	"github.com/codex-k8s/autodevctl/internal/templates"
)

// Status is the verdict of a completed test run.
type Status string

const (
	// StatusPassed means the test command exited with status 0.
	StatusPassed Status = "passed"
	// StatusFailed means the test command ran and exited non-zero.
	StatusFailed Status = "failed"
)

// Outcome describes a test run that actually executed.
type Outcome struct {
	Status   Status
	Command  []string
	ExitCode int
	// Output is the combined stdout and stderr of the test command.
	Output   string
	Duration time.Duration
}

// Passed reports whether the suite passed.
func (o Outcome) Passed() bool {
	return o.Status == StatusPassed
}

// InfrastructureError means the tests could not be executed at all.
type InfrastructureError struct {
	Command []string
	Err     error
}

func (e *InfrastructureError) Error() string {
	if len(e.Command) == 0 {
		return fmt.Sprintf("cannot run tests: %v", e.Err)
	}
	return fmt.Sprintf("cannot run tests (%s): %v", strings.Join(e.Command, " "), e.Err)
}

func (e *InfrastructureError) Unwrap() error { return e.Err }

// IsInfrastructureError reports whether err is or wraps an InfrastructureError.
func IsInfrastructureError(err error) bool {
	var target *InfrastructureError
	return errors.As(err, &target)
}

// Runner runs test suites in the project root with the process environment plus Env.
type Runner struct {
	// Command overrides the project's test command when non-empty.
	Command []string
	// Env is added on top of the process environment.
	Env env.Vars
	// Output receives test output as it is produced, in addition to the captured copy.
	Output io.Writer
	// Logger receives progress records; nil disables logging.
	Logger *slog.Logger
}

// Run executes the test suite of project. A failing suite is reported as an Outcome,
// not an error; the error is an *InfrastructureError when the suite could not run.
func (r *Runner) Run(ctx context.Context, project *templates.Project) (Outcome, error) {
	logger := r.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	if project == nil || project.Root == "" {
		return Outcome{}, &InfrastructureError{Err: errors.New("project has no root directory")}
	}

	argv := r.Command
	if len(argv) == 0 {
		argv = project.TestCommand
	}
	if len(argv) == 0 {
		return Outcome{}, &InfrastructureError{Err: errors.New("no test command configured")}
	}
	argv = append([]string(nil), argv...)

	if info, err := os.Stat(project.Root); err != nil {
		return Outcome{}, &InfrastructureError{Command: argv, Err: err}
	} else if !info.IsDir() {
		return Outcome{}, &InfrastructureError{Command: argv, Err: fmt.Errorf("%s is not a directory", project.Root)}
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return Outcome{}, &InfrastructureError{Command: argv, Err: err}
	}

	var captured bytes.Buffer
	var out io.Writer = &captured
	if r.Output != nil {
		out = io.MultiWriter(&captured, r.Output)
	}

	cmd := exec.CommandContext(ctx, path, argv[1:]...)
	cmd.Dir = project.Root
	cmd.Env = env.Merge(env.FromOS(), r.Env).Environ()
	cmd.Stdout = out
	cmd.Stderr = out

	logger.Info("Running tests", "command", strings.Join(argv, " "), "dir", project.Root)
	start := time.Now()
	err = cmd.Run()
	outcome := Outcome{
		Command:  argv,
		Output:   captured.String(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		outcome.Status = StatusPassed
	case ctx.Err() != nil:
		return outcome, &InfrastructureError{Command: argv, Err: ctx.Err()}
	case errors.As(err, &exitErr):
		outcome.Status = StatusFailed
		outcome.ExitCode = exitErr.ExitCode()
	default:
		return outcome, &InfrastructureError{Command: argv, Err: err}
	}

	logger.Info("Tests finished", "status", outcome.Status, "exit_code", outcome.ExitCode, "duration", outcome.Duration.Round(time.Millisecond))
	return outcome, nil
}
