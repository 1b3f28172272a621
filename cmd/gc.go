package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Delete pool entries no workspace references",
	Long: `Garbage-collect the shared package pool: every built (name, version)
with zero bindings across all workspaces is deleted, concurrently. Entries
still bound anywhere are left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		removed, err := app.orch.GarbageCollect(cmd.Context())
		for _, pkg := range removed {
			fmt.Printf("collected %s@%s\n", pkg.Name, pkg.Version)
		}
		if err != nil {
			return err
		}
		if len(removed) == 0 {
			fmt.Println("nothing to collect")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(gcCmd)
}
