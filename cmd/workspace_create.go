package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var workspaceCreateCmd = &cobra.Command{
	Use:   "workspace:create <name>",
	Short: "Create a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.workspaces.Create(args[0]); err != nil {
			return err
		}
		fmt.Printf("created workspace %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workspaceCreateCmd)
}
