package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newValidateCommand creates the "validate" subcommand that prints the normalized specification.
func newValidateCommand(_ *Options) *cobra.Command {
	var specPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a specification and print it with defaults applied",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := loadSpec(specPath)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(svc); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	cmd.Flags().StringVarP(&specPath, "spec", "s", "", "Path to the service specification (YAML or JSON)")
	_ = cmd.MarkFlagRequired("spec")

	return cmd
}
