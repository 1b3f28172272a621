package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/cask/internal/presentation"
	"github.com/zjrosen/cask/internal/version"
)

var installCmd = &cobra.Command{
	Use:   "install <package>[@version]...",
	Short: "Install packages into the active workspace",
	Long: `Install one or more packages into the active workspace.

A bare name resolves to the highest known version. An @-suffix constrains
the version: an exact string, a ~prefix, or * for any.

Packages already in the shared pool are bound without rebuilding. A
package that fails to build is reported individually; the others still
install.

Examples:
  cask install ripgrep
  cask install ripgrep@14.1.0 jq@~1.7
  cask install -w dev ripgrep`,
	Args: cobra.MinimumNArgs(1),
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

		plan, err := app.engine.Install(ws, version.ParseRequests(args), bound)
		if err != nil {
			return err
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
	rootCmd.AddCommand(installCmd)
}
