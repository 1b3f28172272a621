// Package cmd wires the cask CLI: configuration loading, component
// construction, and the cobra command tree.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/cask/internal/config"
)

var (
	cliVersion = "dev"
	cfgFile    string
	jsonOutput bool
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cask",
	Short: "A workspace-oriented package manager",
	Long: `Cask resolves version requests against registries, builds packages once
into a shared pool, and binds exact versions into isolated workspaces,
each with its own bin/ directory of symlinks.`,
	Version:       cliVersion,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .cask/config.yaml, then ~/.config/cask/config.yaml)")
	rootCmd.PersistentFlags().StringP("workspace", "w", "",
		"workspace to operate on (default from config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"emit JSON instead of text")
	rootCmd.PersistentFlags().Bool("debug", false,
		"enable debug logging to <root_dir>/cask.log")

	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("workspace", defaults.Workspace)
	viper.SetDefault("registry_refresh_interval", defaults.RegistryRefreshInterval)
	viper.SetDefault("max_parallel_installs", defaults.MaxParallelInstalls)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .cask/config.yaml (current directory)
		// 2. ~/.config/cask/config.yaml (user config)
		if _, err := os.Stat(".cask/config.yaml"); err == nil {
			viper.SetConfigFile(".cask/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "cask"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// Missing config is fine; run on defaults.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			cobra.CheckErr(err)
		}
	}

	cobra.CheckErr(viper.Unmarshal(&cfg))
}

// Execute runs the root command. An interrupt cancels the command context;
// in-flight package tasks finish, new ones are not scheduled.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	cliVersion = v
	rootCmd.Version = v
}
