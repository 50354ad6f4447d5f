// Package cli provides the command-line interface for the strategy analyzer.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-strategist/internal/config"
	"options-strategist/internal/logging"
	"options-strategist/internal/store"
	"options-strategist/pkg/utils"
)

// Version information
const (
	Version   = "0.3.0"
	BuildDate = "2026-10-01"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.StrategyStore
}

// NewRootCmd creates the root command for the CLI and opens the strategy store.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	dataStore, err := openStore(cfg.DBPath())
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.DBPath()).Msg("Failed to initialize store, saved strategies are unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", cfg.DBPath()).Msg("SQLite store initialized")
		cobra.OnFinalize(func() {
			if err := dataStore.Close(); err != nil {
				logger.Warn().Err(err).Msg("Failed to close store")
			}
		})
	}

	return NewRootCmdWithApp(app)
}

// NewRootCmdWithApp builds the command tree around existing dependencies.
func NewRootCmdWithApp(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "strategist",
		Short: "Options strategy risk analyzer",
		Long: `Options Strategist builds multi-leg option positions and reports their risk.

Legs are calls, puts or shares of the underlying, bought or sold, grouped for
per-group reporting. The working strategy is kept between runs; named copies can
be saved and loaded.

Use 'strategist template apply iron-condor' to start from a template, then
'strategist summary', 'strategist table' or 'strategist payoff'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/options-strategist)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("no-color", !app.Config.UI.ColorEnabled, "disable colored output")

	addCoreCommands(rootCmd, app)
	addWorkspaceCommands(rootCmd, app)
	addStrategyCommands(rootCmd, app)
	addAnalysisCommands(rootCmd, app)
	addServeCommand(rootCmd, app)

	return rootCmd
}

// openStore opens the SQLite store, retrying while another process holds a lock.
func openStore(path string) (*store.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return utils.RetryWithResult(ctx, utils.DefaultRetryConfig(), func() (*store.SQLiteStore, error) {
		return store.NewSQLiteStore(path)
	})
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Options Strategist v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": app.Config.Dir})
			} else {
				output.Println(app.Config.Dir)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Model Defaults")
	output.Printf("  Time to Expiry:  %s days\n", utils.FormatNumber(cfg.Model.TimeToExpiryDays, 0))
	output.Printf("  Risk-free Rate:  %s%%\n", utils.FormatNumber(cfg.Model.RiskFreeRatePercent, 2))
	output.Printf("  Volatility:      %s%%\n", utils.FormatNumber(cfg.Model.VolatilityPercent, 2))
	output.Printf("  Underlying:      %s\n", utils.FormatCurrency(cfg.Market.UnderlyingPrice))
	output.Println()

	output.Bold("Storage")
	output.Printf("  Database:        %s\n", cfg.DBPath())
	output.Println()

	output.Bold("Server")
	output.Printf("  Listen:          %s\n", cfg.Addr())
	output.Printf("  Read Timeout:    %s\n", cfg.Server.ReadTimeout)
	output.Printf("  Write Timeout:   %s\n", cfg.Server.WriteTimeout)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Log.Level)
	output.Printf("  File:            %v\n", cfg.Log.File)
}
