package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/cask/internal/presentation"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update every bound package in the active workspace",
	Long: `Update every package bound in the active workspace to the latest known
version of its name. Packages already at the latest version are skipped.
The old version's symlinks are replaced only after the new version
installs, so a failed update leaves the workspace working.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		ctx := cmd.Context()
		app.refreshRegistries(ctx)

		ws, err := app.workspaceName()
		if err != nil {
			return err
		}

		bound, err := app.db.Workspaces().ListBindings(ws)
		if err != nil {
			return err
		}

		plan, err := app.engine.Update(ws, bound)
		if err != nil {
			return err
		}
		if plan.Empty() {
			if !jsonOutput {
				fmt.Println("everything up to date")
			}
			return nil
		}

		stop := app.streamProgress(ctx)
		logs, err := app.orch.Execute(ctx, plan)
		stop()
		if err != nil {
			return err
		}
		return app.formatter().FormatInstallLogs(presentation.FromInstallLogs(logs))
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
