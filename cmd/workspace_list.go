package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/cask/internal/presentation"
)

var workspaceListCmd = &cobra.Command{
	Use:   "workspace:list",
	Short: "List workspaces",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		workspaces, err := app.workspaces.List()
		if err != nil {
			return err
		}
		return app.formatter().FormatWorkspaces(presentation.FromWorkspaces(workspaces))
	},
}

func init() {
	rootCmd.AddCommand(workspaceListCmd)
}
