package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjrosen/cask/internal/domain"
	"github.com/zjrosen/cask/internal/watcher"
)

var watchRegistries bool

var registryFetchCmd = &cobra.Command{
	Use:   "registry:fetch [name]",
	Short: "Refresh registry manifests",
	Long: `Refresh registries. With a name, that registry is fetched immediately
regardless of staleness; without one, every due registry is fetched (file
registries are always due, remote ones after the refresh interval).

With --watch, file registries are re-fetched whenever their manifest
changes on disk, until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		ctx := cmd.Context()

		if len(args) == 1 {
			reg, err := app.db.Registries().FindByName(args[0])
			if err != nil {
				return err
			}
			if _, err := app.registries.Fetch(ctx, reg); err != nil {
				return err
			}
			fmt.Printf("fetched registry %s\n", reg.Name)
			return nil
		}

		if err := app.registries.RefreshDue(ctx); err != nil {
			return err
		}
		fmt.Println("fetched all due registries")

		if watchRegistries {
			return app.watchFileRegistries(ctx)
		}
		return nil
	},
}

// watchFileRegistries re-fetches file registries as their manifests change,
// until the context is cancelled.
func (a *app) watchFileRegistries(ctx context.Context) error {
	registries, err := a.db.Registries().List()
	if err != nil {
		return err
	}

	byPath := make(map[string]domain.Registry)
	for _, reg := range registries {
		if reg.IsFile() {
			byPath[filepath.Clean(reg.FilePath())] = reg
		}
	}
	if len(byPath) == 0 {
		fmt.Println("no file registries to watch")
		return nil
	}

	w, err := watcher.New(watcher.DefaultDebounce)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	for path := range byPath {
		if err := w.Watch(path); err != nil {
			return err
		}
	}

	changes := w.Start()
	fmt.Printf("watching %d file registries\n", len(byPath))
	for {
		select {
		case <-ctx.Done():
			return nil
		case path := <-changes:
			reg := byPath[path]
			if _, err := a.registries.Fetch(ctx, reg); err != nil {
				fmt.Fprintf(os.Stderr, "warning: fetch %s: %v\n", reg.URI, err)
				continue
			}
			fmt.Printf("fetched registry %s\n", reg.Name)
		}
	}
}

func init() {
	registryFetchCmd.Flags().BoolVar(&watchRegistries, "watch", false, "keep running and re-fetch file registries on change")
	rootCmd.AddCommand(registryFetchCmd)
}
