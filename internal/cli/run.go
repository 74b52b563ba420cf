package cli

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/autodevctl/internal/deploy"
	"github.com/codex-k8s/autodevctl/internal/engine"
	"github.com/codex-k8s/autodevctl/internal/ghoutput"
	"github.com/codex-k8s/autodevctl/internal/kube"
	"github.com/codex-k8s/autodevctl/internal/logging"
	"github.com/codex-k8s/autodevctl/internal/metrics"
	"github.com/codex-k8s/autodevctl/internal/telemetry"
	"github.com/codex-k8s/autodevctl/internal/templates"
	"github.com/codex-k8s/autodevctl/internal/testrunner"
)

const runLong = `Generate a project from a service specification, run its test suite and deploy it.

Test failures do not stop the pipeline: the project is still deployed and the run ends with
status done-with-test-failures. When kubectl is not available the manifests are not applied;
a deployment plan is written to k8s/deployment-plan.txt inside the project instead.

Exit status:
  0  done-clean               tests passed (or were skipped) and deployment completed
  2  done-with-test-failures  tests failed, deployment completed
  3  failed-generation        invalid specification, unknown template or existing project directory
  4  failed-testing           the test suite could not be executed
  5  failed-deployment        kubectl apply failed; manifests applied earlier are not rolled back
  1  usage or unexpected errors`

// newRunCommand creates the "run" subcommand that executes the whole pipeline.
func newRunCommand(opts *Options) *cobra.Command {
	var (
		specPath   string
		skipTests  bool
		skipDeploy bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate, test and deploy a service from a specification",
		Long:  runLong,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())
			settings := opts.Settings

			svc, err := loadSpec(specPath)
			if err != nil {
				return err
			}
			vars, err := testVars(opts, flagOr(cmd, "test-env", ""))
			if err != nil {
				return usageError(err)
			}

			metricsFile := flagOr(cmd, "metrics-file", settings.MetricsFile)
			var m *metrics.Metrics
			if metricsFile != "" {
				m = metrics.New()
			}
			tracer, err := telemetry.NewFileTracer(flagOr(cmd, "trace-file", settings.TraceFile), Version)
			if err != nil {
				return usageError(err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tracer.Shutdown(shutdownCtx); err != nil {
					logger.Warn("failed to flush traces", "error", err)
				}
			}()

			testOutput := logging.NewWriter(logger, "test output")
			defer testOutput.Flush()
			runner := &testrunner.Runner{
				Command: settings.TestArgv(),
				Env:     vars,
				Output:  testOutput,
				Logger:  logger,
			}
			client := kube.NewClient(flagOr(cmd, "kubectl", settings.Kubectl), settings.Kubeconfig, settings.KubeContext)
			deployer := deploy.New(client, flagOr(cmd, "namespace", settings.Namespace), logger)

			eng := engine.New(templates.Default(), runner, deployer,
				engine.WithLogger(logger),
				engine.WithMetrics(m),
				engine.WithTracer(tracer),
			)
			res, runErr := eng.Run(cmd.Context(), engine.Request{
				Spec:       svc,
				Template:   flagOr(cmd, "template", settings.Template),
				OutputRoot: flagOr(cmd, "output", settings.OutputDir),
				SkipTests:  skipTests,
				SkipDeploy: skipDeploy,
			})
			testOutput.Flush()

			if err := m.WriteFile(metricsFile); err != nil {
				logger.Warn("failed to write metrics", "error", err)
			}
			printResult(cmd.OutOrStdout(), res)
			if err := ghoutput.Write(runOutputs(res)); err != nil {
				logger.Warn("failed to write GitHub outputs", "error", err)
			}

			if code := res.ExitCode(); code != engine.ExitDoneClean {
				return &ExitError{Code: code, Err: runErr}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&specPath, "spec", "s", "", "Path to the service specification (YAML or JSON)")
	cmd.Flags().StringP("template", "t", "", "Template identifier (default AUTODEV_TEMPLATE or "+templates.PythonServiceName+")")
	cmd.Flags().StringP("output", "o", "", "Directory the project is created in (default AUTODEV_OUTPUT_DIR or .)")
	cmd.Flags().StringP("namespace", "n", "", "Target Kubernetes namespace (default AUTODEV_NAMESPACE)")
	cmd.Flags().BoolVar(&skipTests, "skip-tests", false, "Skip the test stage")
	cmd.Flags().BoolVar(&skipDeploy, "skip-deploy", false, "Skip the deployment stage")
	cmd.Flags().String("kubectl", "", "kubectl executable (default AUTODEV_KUBECTL or kubectl)")
	cmd.Flags().String("test-env", "", "Extra test environment in k=v,k2=v2 format")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this textfile (default AUTODEV_METRICS_FILE)")
	cmd.Flags().String("trace-file", "", "Write trace spans as JSON to this file (default AUTODEV_TRACE_FILE)")
	_ = cmd.MarkFlagRequired("spec")

	return cmd
}

// runOutputs describes a run for GitHub Actions step outputs.
func runOutputs(res *engine.Result) map[string]string {
	out := map[string]string{
		"run_id":    res.RunID,
		"status":    string(res.Status()),
		"exit_code": strconv.Itoa(res.ExitCode()),
	}
	if res.Project != nil {
		out["project_dir"] = res.Project.Root
	}
	if res.Decision != nil {
		out["deployment"] = string(res.Decision.Kind)
		if res.Decision.PlanPath != "" {
			out["plan_path"] = res.Decision.PlanPath
		}
	}
	return out
}
