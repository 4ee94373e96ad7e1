package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/zel/internal/app"
)

func (c *CLI) newValidateCmd() *cobra.Command {
	var opts app.ValidateOptions

	cmd := &cobra.Command{
		Use:   "validate [repos...]",
		Short: "Check that repositories and their dependencies expose a readable manifest",
		Long: "Validates the given repositories, or the dependencies of the local .zel file,\n" +
			"and every repository they depend on. Prints one line per repository.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Repos = args
			_, err := c.app.Validate(cmd.Context(), opts)
			return err
		},
	}

	addSourceFlags(cmd, &opts.SourceOptions)

	return cmd
}
