package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/autodevctl/internal/engine"
	"github.com/codex-k8s/autodevctl/internal/templates"
)

// newGenerateCommand creates the "generate" subcommand that only materializes a project.
func newGenerateCommand(opts *Options) *cobra.Command {
	var specPath string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a project from a specification without testing or deploying it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())
			settings := opts.Settings

			svc, err := loadSpec(specPath)
			if err != nil {
				return err
			}
			name := flagOr(cmd, "template", settings.Template)
			tpl, err := templates.Default().Get(name)
			if err != nil {
				return &ExitError{Code: engine.ExitFailedGeneration, Err: err}
			}
			project, err := tpl.Generate(cmd.Context(), svc, flagOr(cmd, "output", settings.OutputDir))
			if err != nil {
				return &ExitError{Code: engine.ExitFailedGeneration, Err: err}
			}

			logger.Info("project generated", "template", name, "path", project.Root)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), project.Root)
			return err
		},
	}

	cmd.Flags().StringVarP(&specPath, "spec", "s", "", "Path to the service specification (YAML or JSON)")
	cmd.Flags().StringP("template", "t", "", "Template identifier (default AUTODEV_TEMPLATE or "+templates.PythonServiceName+")")
	cmd.Flags().StringP("output", "o", "", "Directory the project is created in (default AUTODEV_OUTPUT_DIR or .)")
	_ = cmd.MarkFlagRequired("spec")

	return cmd
}
