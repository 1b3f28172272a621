package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/cask/internal/presentation"
)

var removeCmd = &cobra.Command{
	Use:   "remove <package>...",
	Short: "Remove packages from the active workspace",
	Long: `Remove one or more packages from the active workspace.

Every named package must currently be bound in the workspace; otherwise
the command fails before removing anything. Removal drops the binding and
its bin/ symlinks but keeps the pool entry until 'cask gc'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		ws, err := app.workspaceName()
		if err != nil {
			return err
		}

		bound, err := app.db.Workspaces().ListBindings(ws)
		if err != nil {
			return err
		}

		plan, err := app.engine.Remove(ws, args, bound)
		if err != nil {
			return err
		}

		stop := app.streamProgress(cmd.Context())
		logs, err := app.orch.Execute(cmd.Context(), plan)
		stop()
		if err != nil {
			return err
		}
		return app.formatter().FormatInstallLogs(presentation.FromInstallLogs(logs))
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
