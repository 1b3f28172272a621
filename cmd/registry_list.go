package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/cask/internal/presentation"
)

var registryListCmd = &cobra.Command{
	Use:   "registry:list",
	Short: "List configured registries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		regs, err := app.db.Registries().List()
		if err != nil {
			return err
		}
		return app.formatter().FormatRegistries(presentation.FromRegistries(regs))
	},
}

func init() {
	rootCmd.AddCommand(registryListCmd)
}
