package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/autodevctl/internal/kube"
	"github.com/codex-k8s/autodevctl/internal/templates"
)

// newDoctorCommand creates the "doctor" subcommand that checks the tools a run depends on.
func newDoctorCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the tools used by the pipeline are available",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())
			settings := opts.Settings

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			testCommand := settings.TestArgv()
			if len(testCommand) == 0 {
				testCommand = templates.PythonTestCommand
			}
			client := kube.NewClient(flagOr(cmd, "kubectl", settings.Kubectl), settings.Kubeconfig, settings.KubeContext)
			return runDoctorChecks(ctx, logger, testCommand[0], client)
		},
	}

	cmd.Flags().String("kubectl", "", "kubectl executable (default AUTODEV_KUBECTL or kubectl)")

	return cmd
}

// runDoctorChecks fails when the test tool is missing; a missing kubectl only means plans are written.
func runDoctorChecks(ctx context.Context, logger *slog.Logger, testTool string, client *kube.Client) error {
	var missing []string

	if path, err := exec.LookPath(testTool); err != nil {
		logger.Error("doctor check failed: missing test tool", "tool", testTool, "error", err)
		missing = append(missing, testTool)
	} else {
		logger.Info("doctor check ok", "tool", testTool, "path", path)
	}

	if !client.Available(ctx) {
		logger.Warn("kubectl not found; deployments will write a plan instead of applying manifests", "tool", client.Binary)
	} else if version, err := client.ClientVersion(ctx); err != nil {
		logger.Warn("kubectl found but version check failed", "error", err)
	} else {
		logger.Info("doctor check ok", "tool", client.Binary, "version", version)
	}

	if len(missing) > 0 {
		return fmt.Errorf("required tools missing from PATH: %s", strings.Join(missing, ", "))
	}
	return nil
}
