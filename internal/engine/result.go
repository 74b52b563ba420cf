package engine

import (
	"fmt"
	"time"

	"github.com/codex-k8s/autodevctl/internal/deploy"
	"github.com/codex-k8s/autodevctl/internal/templates"
	"github.com/codex-k8s/autodevctl/internal/testrunner"
)

// State is a pipeline state.
type State string

const (
	StateInit       State = "init"
	StateGenerating State = "generating"
	StateTesting    State = "testing"
	StateDeploying  State = "deploying"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Stage names a pipeline stage.
type Stage string

const (
	StageGeneration Stage = "generation"
	StageTesting    Stage = "testing"
	StageDeployment Stage = "deployment"
)

// StageStatus is the outcome of one stage.
type StageStatus string

const (
	StageSucceeded StageStatus = "succeeded"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
	StageNotRun    StageStatus = "not-run"
)

// StageOutcome records how a stage ended.
type StageOutcome struct {
	Stage    Stage
	Status   StageStatus
	Detail   string
	Duration time.Duration
	Err      error
}

// Status summarizes a finished run.
type Status string

const (
	StatusDoneClean            Status = "done-clean"
	StatusDoneWithTestFailures Status = "done-with-test-failures"
	StatusFailedGeneration     Status = "failed-generation"
	StatusFailedTesting        Status = "failed-testing"
	StatusFailedDeployment     Status = "failed-deployment"
)

// Process exit codes for each run status.
const (
	ExitDoneClean            = 0
	ExitUsage                = 1
	ExitDoneWithTestFailures = 2
	ExitFailedGeneration     = 3
	ExitFailedTesting        = 4
	ExitFailedDeployment     = 5
)

// ExitCode maps a run status to the process exit code.
func ExitCode(s Status) int {
	switch s {
	case StatusDoneClean:
		return ExitDoneClean
	case StatusDoneWithTestFailures:
		return ExitDoneWithTestFailures
	case StatusFailedGeneration:
		return ExitFailedGeneration
	case StatusFailedTesting:
		return ExitFailedTesting
	case StatusFailedDeployment:
		return ExitFailedDeployment
	default:
		return ExitUsage
	}
}

// Result is the record of one pipeline run. It is returned even when the run fails.
type Result struct {
	RunID    string
	Template string
	// Project is nil when generation failed.
	Project    *templates.Project
	Generation StageOutcome
	Testing    StageOutcome
	Deployment StageOutcome
	// Tests is set when the test suite executed.
	Tests *testrunner.Outcome
	// Decision is set when the deployment stage completed.
	Decision *deploy.Decision
	State    State
	// FailedStage is set when State is StateFailed.
	FailedStage Stage
	StartedAt   time.Time
	Duration    time.Duration
}

// Status returns the run summary. It is only meaningful once State is Done or Failed.
func (r *Result) Status() Status {
	if r.State == StateFailed {
		switch r.FailedStage {
		case StageTesting:
			return StatusFailedTesting
		case StageDeployment:
			return StatusFailedDeployment
		default:
			return StatusFailedGeneration
		}
	}
	if r.Testing.Status == StageFailed {
		return StatusDoneWithTestFailures
	}
	return StatusDoneClean
}

// ExitCode returns the process exit code for the run.
func (r *Result) ExitCode() int {
	return ExitCode(r.Status())
}

// Stages returns the three stage outcomes in pipeline order.
func (r *Result) Stages() []StageOutcome {
	return []StageOutcome{r.Generation, r.Testing, r.Deployment}
}

// StageError is returned when a stage fails fatally.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
