package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/cask/internal/presentation"
)

var listKnown bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the active workspace's packages",
	Long: `List the packages bound in the active workspace as
name@version (resolved from <request>).

With --known, list every package version the registries declare instead.

Examples:
  cask list
  cask list --known
  cask list --json | jq '.[].version'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		if listKnown {
			pkgs, err := app.db.KnownPackages().List()
			if err != nil {
				return err
			}
			return app.formatter().FormatKnownPackages(presentation.FromKnownPackages(pkgs))
		}

		ws, err := app.workspaceName()
		if err != nil {
			return err
		}
		bound, err := app.db.Workspaces().ListBindings(ws)
		if err != nil {
			return err
		}
		return app.formatter().FormatBindings(presentation.FromBindings(bound))
	},
}

func init() {
	listCmd.Flags().BoolVar(&listKnown, "known", false, "list known packages from all registries")
	rootCmd.AddCommand(listCmd)
}
