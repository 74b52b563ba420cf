package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/autodevctl/internal/templates"
)

// newTemplatesCommand creates the "templates" subcommand that lists registered templates.
func newTemplatesCommand(_ *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List available project templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tVERSION\tDESCRIPTION")
			for _, info := range templates.Default().List() {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Name, info.Version, info.Description)
			}
			return tw.Flush()
		},
	}
}
