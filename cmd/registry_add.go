package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var registryAddCmd = &cobra.Command{
	Use:   "registry:add <uri>",
	Short: "Add a registry by manifest URI",
	Long: `Add a registry. The URI is either an HTTP(S) URL or a local file path
to a manifest; the registry's name comes from the manifest itself.

Examples:
  cask registry:add https://example.com/registry.yaml
  cask registry:add file:///opt/registries/core.yaml
  cask registry:add ./registry.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		reg, err := app.registries.Initialize(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("added registry %s (%s)\n", reg.Name, reg.URI)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registryAddCmd)
}
