// Command gtusim runs the GTU track matching on recorded tracklet events.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/banshee-data/trd-gtu/internal/config"
	"github.com/banshee-data/trd-gtu/internal/monitoring"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gtusim",
		Short: "TRD GTU track matching simulator",
		Long: `gtusim replays tracklet events through the Track Matching Units of
the TRD Global Tracking Unit, one TMU per sector and stack, and reports
the reconstructed tracks.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "GTU config file (.json); defaults are used when empty")
	rootCmd.PersistentFlags().String("log-level", "", "GTU log level: ops, diag or trace (overrides config)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (overrides config database_path)")

	rootCmd.AddCommand(
		newRunCmd(),
		newDumpCmd(),
		newRunsCmd(),
		newMigrateCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig reads --config and applies the global flag overrides.
func loadConfig(cmd *cobra.Command) (*config.GTUConfig, error) {
	cfg := config.DefaultGTUConfig()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.LoadGTUConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = &level
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.DatabasePath = &db
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := monitoring.ConfigureStreams(cfg.GetLogLevel(), cmd.ErrOrStderr()); err != nil {
		return nil, err
	}
	return cfg, nil
}
