// Package cli builds the carbontracker command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/carbon-tracker/internal/config"
)

// app carries state resolved by the root command to its subcommands.
type app struct {
	cfg    config.Config
	logger *slog.Logger
}

// NewRootCmd creates the root command reading the process environment.
func NewRootCmd(version string) *cobra.Command {
	return NewRootCmdWithEnv(version, os.LookupEnv)
}

// NewRootCmdWithEnv creates the root command with an explicit environment
// lookup so tests can run it hermetically.
func NewRootCmdWithEnv(version string, lookupEnv func(string) (string, bool)) *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "carbontracker",
		Short:         "Personal carbon footprint tracker",
		Long:          "carbontracker records transport, food and energy activities, estimates their emissions and rewards greener choices.",
		Version:       version,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			cfg, err := config.Load(envFile, lookupEnv)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("log-level") {
				level, _ := cmd.Flags().GetString("log-level")
				if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
					return fmt.Errorf("invalid --log-level %q: %w", level, err)
				}
			}

			a.cfg = cfg
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel}))
			return nil
		},
	}

	cmd.PersistentFlags().String("env-file", ".env", "dotenv file read before the environment")
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	cmd.PersistentFlags().String("store", "", "storage driver: sqlite or postgres (overrides STORE_DRIVER)")
	cmd.PersistentFlags().String("db", "", "sqlite database path (overrides DB_PATH)")

	cmd.AddCommand(newServeCmd(a), newLeaderboardCmd(a), newCatalogCmd(a))
	return cmd
}

// applyStoreFlags copies --store and --db onto the loaded config.
func (a *app) applyStoreFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("store") {
		a.cfg.StoreDriver, _ = cmd.Flags().GetString("store")
	}
	if cmd.Flags().Changed("db") {
		a.cfg.DBPath, _ = cmd.Flags().GetString("db")
	}
}

const rootCmdExample = `  # Serve the API on port 9000 with a local SQLite database
  carbontracker serve --port 9000 --db data/carbon.db

  # Serve against Postgres (DATABASE_URL must be set)
  carbontracker serve --store postgres

  # Print the ten greenest users
  carbontracker leaderboard --limit 10

  # Check a custom catalog file before deploying it
  carbontracker catalog check ./catalog.yaml`
