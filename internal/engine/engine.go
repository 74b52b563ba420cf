// Package engine orchestrates a pipeline run: generate a project from a service specification,
// run its tests, then deploy it or write a deployment plan.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/codex-k8s/autodevctl/internal/deploy"
	"github.com/codex-k8s/autodevctl/internal/logging"
	"github.com/codex-k8s/autodevctl/internal/metrics"
	"github.com/codex-k8s/autodevctl/internal/spec"
	"github.com/codex-k8s/autodevctl/internal/telemetry"
	"github.com/codex-k8s/autodevctl/internal/templates"
	"github.com/codex-k8s/autodevctl/internal/testrunner"
)

// TemplateSource resolves template identifiers. *templates.Registry satisfies it.
type TemplateSource interface {
	Get(name string) (templates.Template, error)
}

// TestRunner runs a project's test suite. *testrunner.Runner satisfies it.
type TestRunner interface {
	Run(ctx context.Context, project *templates.Project) (testrunner.Outcome, error)
}

// Deployer deploys a project. *deploy.Deployer satisfies it.
type Deployer interface {
	Deploy(ctx context.Context, project *templates.Project) (deploy.Decision, error)
}

// Request describes one pipeline run.
type Request struct {
	Spec       *spec.Service
	Template   string
	OutputRoot string
	// SkipTests marks the testing stage skipped; the pipeline continues to deployment.
	SkipTests bool
	// SkipDeploy marks the deployment stage skipped; the pipeline ends after testing.
	SkipDeploy bool
}

// Engine runs pipelines. One Engine may serve concurrent runs.
type Engine struct {
	templates TemplateSource
	runner    TestRunner
	deployer  Deployer

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  *telemetry.Tracer
	now     func() time.Time
	newID   func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger; every run logs with a run_id attribute.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records stage and run observations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer traces runs and stages.
func WithTracer(t *telemetry.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRunIDs overrides run ID generation.
func WithRunIDs(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New constructs an Engine.
func New(source TemplateSource, runner TestRunner, deployer Deployer, opts ...Option) *Engine {
	e := &Engine{
		templates: source,
		runner:    runner,
		deployer:  deployer,
		logger:    logging.Discard(),
		tracer:    telemetry.Noop(),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the pipeline Init → Generating → Testing → Deploying → Done.
//
// A failing test suite does not stop the pipeline; it ends Done with test failures. Fatal stage
// errors end the run Failed and are returned as *StageError next to the partial Result.
// The returned error is nil for Done runs.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{
		RunID:      e.newID(),
		Template:   req.Template,
		State:      StateInit,
		StartedAt:  e.now(),
		Generation: StageOutcome{Stage: StageGeneration, Status: StageNotRun},
		Testing:    StageOutcome{Stage: StageTesting, Status: StageNotRun},
		Deployment: StageOutcome{Stage: StageDeployment, Status: StageNotRun},
	}
	logger := e.logger.With("run_id", res.RunID)
	ctx, span := e.tracer.StartRun(ctx, res.RunID, req.Template)
	defer func() {
		res.Duration = e.now().Sub(res.StartedAt)
		status := res.Status()
		span.SetAttributes(attribute.String("status", string(status)))
		if res.State == StateFailed {
			telemetry.RecordError(span, stageErr(res))
		} else {
			telemetry.RecordSuccess(span)
		}
		span.End()
		e.metrics.ObserveRun(req.Template, string(status), res.Duration, e.now())
		logger.Info("Pipeline finished", "state", res.State, "status", status, "duration", res.Duration.Round(time.Millisecond))
	}()

	if req.Spec != nil {
		logger = logger.With("service", req.Spec.Slug)
	}
	logger.Info("Pipeline started", "template", req.Template, "output", req.OutputRoot)

	e.transition(logger, res, StateGenerating)
	project, err := e.generate(ctx, logger, res, req)
	if err != nil {
		return res, e.fail(logger, res, StageGeneration, err)
	}
	res.Project = project

	e.transition(logger, res, StateTesting)
	if err := e.test(ctx, logger, res, req); err != nil {
		return res, e.fail(logger, res, StageTesting, err)
	}

	e.transition(logger, res, StateDeploying)
	if err := e.deploy(ctx, logger, res, req); err != nil {
		return res, e.fail(logger, res, StageDeployment, err)
	}

	e.transition(logger, res, StateDone)
	return res, nil
}

func (e *Engine) generate(ctx context.Context, logger *slog.Logger, res *Result, req Request) (*templates.Project, error) {
	var project *templates.Project
	err := e.stage(ctx, res, &res.Generation, func(ctx context.Context) (string, StageStatus, error) {
		tpl, err := e.templates.Get(req.Template)
		if err != nil {
			return "", StageFailed, err
		}
		project, err = tpl.Generate(ctx, req.Spec, req.OutputRoot)
		if err != nil {
			return "", StageFailed, err
		}
		logger.Info("Project generated", "path", project.Root)
		return project.Root, StageSucceeded, nil
	})
	return project, err
}

func (e *Engine) test(ctx context.Context, logger *slog.Logger, res *Result, req Request) error {
	return e.stage(ctx, res, &res.Testing, func(ctx context.Context) (string, StageStatus, error) {
		if req.SkipTests {
			logger.Info("Tests skipped")
			return "skipped by request", StageSkipped, nil
		}
		outcome, err := e.runner.Run(ctx, res.Project)
		if err != nil {
			return "", StageFailed, err
		}
		res.Tests = &outcome
		if !outcome.Passed() {
			logger.Warn("Tests failed, continuing to deployment", "exit_code", outcome.ExitCode)
			return fmt.Sprintf("tests failed with exit code %d", outcome.ExitCode), StageFailed, nil
		}
		return "tests passed", StageSucceeded, nil
	})
}

func (e *Engine) deploy(ctx context.Context, logger *slog.Logger, res *Result, req Request) error {
	return e.stage(ctx, res, &res.Deployment, func(ctx context.Context) (string, StageStatus, error) {
		if req.SkipDeploy {
			logger.Info("Deployment skipped")
			return "skipped by request", StageSkipped, nil
		}
		decision, err := e.deployer.Deploy(ctx, res.Project)
		if err != nil {
			return "", StageFailed, err
		}
		res.Decision = &decision
		if decision.Kind == deploy.KindPlanWritten {
			return "plan written to " + decision.PlanPath, StageSucceeded, nil
		}
		return fmt.Sprintf("applied %d manifests", len(decision.Applied)), StageSucceeded, nil
	})
}

// stage runs fn inside a span and records its outcome, duration and metrics.
func (e *Engine) stage(ctx context.Context, res *Result, out *StageOutcome, fn func(context.Context) (string, StageStatus, error)) error {
	ctx, span := e.tracer.StartStage(ctx, string(out.Stage))
	defer span.End()

	start := e.now()
	detail, status, err := fn(ctx)
	out.Duration = e.now().Sub(start)
	out.Detail = detail
	out.Status = status
	out.Err = err
	if err != nil {
		out.Detail = err.Error()
		telemetry.RecordError(span, err)
	} else {
		span.SetAttributes(attribute.String("status", string(status)))
	}
	e.metrics.ObserveStage(string(out.Stage), string(status), out.Duration)
	return err
}

func (e *Engine) transition(logger *slog.Logger, res *Result, next State) {
	logger.Debug("State transition", "from", res.State, "to", next)
	res.State = next
}

func (e *Engine) fail(logger *slog.Logger, res *Result, stage Stage, err error) error {
	logger.Error("Pipeline failed", "stage", stage, "error", err)
	res.State = StateFailed
	res.FailedStage = stage
	return &StageError{Stage: stage, Err: err}
}

func stageErr(res *Result) error {
	for _, s := range res.Stages() {
		if s.Stage == res.FailedStage && s.Err != nil {
			return s.Err
		}
	}
	return errors.New("pipeline failed")
}
