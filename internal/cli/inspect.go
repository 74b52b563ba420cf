package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/autodevctl/internal/manifest"
	"github.com/codex-k8s/autodevctl/internal/templates"
)

// newInspectCommand creates the "inspect" subcommand that summarizes a generated project's manifests.
func newInspectCommand(_ *Options) *cobra.Command {
	var projectDir string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the resources declared by a generated project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, err := templates.Open(projectDir)
			if err != nil {
				return usageError(err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "project:  %s\n", project.Root)
			_, _ = fmt.Fprintf(out, "template: %s\n", project.Template)
			if project.Service != nil {
				_, _ = fmt.Fprintf(out, "service:  %s (%d routes)\n", project.Service.Slug, len(project.Service.Routes))
			}

			var all []manifest.Document
			for _, rel := range project.Manifests {
				docs, err := manifest.LoadFile(project.Path(rel))
				if err != nil {
					return err
				}
				for _, doc := range docs {
					line := fmt.Sprintf("%s: %s/%s", rel, doc.Kind(), doc.Name())
					if images := doc.Images(); len(images) > 0 {
						line += " images=" + strings.Join(images, ",")
					}
					_, _ = fmt.Fprintln(out, line)
				}
				all = append(all, docs...)
			}

			if project.Service != nil {
				err := manifest.Verify(all, manifest.Expectation{
					Name:  project.Service.Slug,
					Image: project.Service.ContainerImage,
					Kinds: []string{"Deployment", "Service"},
				})
				if err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "Generated project directory")

	return cmd
}
