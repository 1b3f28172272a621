package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var workspaceRemoveCmd = &cobra.Command{
	Use:   "workspace:remove <name>",
	Short: "Remove a workspace and its bindings",
	Long: `Remove a workspace: its bindings, its bin/ directory, and its row.
The global workspace cannot be removed. Pool entries the workspace
referenced stay until 'cask gc'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.workspaces.Remove(args[0]); err != nil {
			return err
		}
		fmt.Printf("removed workspace %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workspaceRemoveCmd)
}
