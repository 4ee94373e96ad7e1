package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the manifest cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clean [repos...]",
		Short: "Remove cached manifests",
		Long:  "Removes the cached manifests of the given repositories, or the whole cache when none are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.CleanCache(cmd.Context(), args)
		},
	})

	return cmd
}
