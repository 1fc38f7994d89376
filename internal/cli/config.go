package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/landscape/pkg/pipeline"
)

// configCommand creates the config command, which prints the effective
// options as TOML.
func (c *CLI) configCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the default options, or validate an options file",
		Example: `  # Start a config from the defaults
  landscape config > landscape.toml

  # Check a config and see the merged result
  landscape config --file landscape.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.DefaultOptions()
			if file != "" {
				var err error
				if opts, err = pipeline.LoadOptionsFile(file); err != nil {
					return err
				}
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			return opts.WriteTOML(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "options file to load and validate")
	return cmd
}
