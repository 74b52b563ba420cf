package cli

import (
	"github.com/spf13/cobra"

	"github.com/codex-k8s/autodevctl/internal/deploy"
	"github.com/codex-k8s/autodevctl/internal/templates"
)

// newPlanCommand creates the "plan" subcommand that renders the deployment plan of a generated project.
func newPlanCommand(_ *Options) *cobra.Command {
	var (
		projectDir string
		write      bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Render the deployment plan of a generated project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			project, err := templates.Open(projectDir)
			if err != nil {
				return usageError(err)
			}
			if write {
				path, err := deploy.WritePlan(project)
				if err != nil {
					return err
				}
				logger.Info("deployment plan written", "path", path)
				return nil
			}

			plan, err := deploy.RenderPlan(project.Root, project.Manifests)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(plan)
			return err
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "Generated project directory")
	cmd.Flags().BoolVar(&write, "write", false, "Write the plan to "+templates.PlanFile+" instead of stdout")

	return cmd
}
