package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"TradeSentinel/internal/config"
)

// Version is set at build time with -ldflags "-X TradeSentinel/internal/cli.Version=...".
var Version = "dev"

const defaultConfigPath = "configs/config.yaml"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sentinel",
		Short: "TradeSentinel - moving average crossover paper trader",
		Long: `TradeSentinel tracks a set of stock symbols, polls their recent candles on a
schedule and paper-trades each one with a short/long moving average crossover.
Symbols are added and removed from the console while polling continues.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runTracker(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Configuration file path (default $CONFIG_PATH or "+defaultConfigPath+")")
	rootCmd.PersistentFlags().StringSlice("symbols", nil, "Symbols to track from the start, comma separated")
	rootCmd.PersistentFlags().String("interval", "", "Poll interval, e.g. 5s or 1m")

	rootCmd.AddCommand(newOnceCmd())
	rootCmd.AddCommand(newTradesCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// loadConfig resolves the config file, applies flag overrides and validates.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if symbols, _ := cmd.Flags().GetStringSlice("symbols"); len(symbols) > 0 {
		cfg.Symbols = symbols
	}
	if interval, _ := cmd.Flags().GetString("interval"); interval != "" {
		cfg.Schedule.PollInterval = interval
		cfg.Schedule.PollCron = ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func newOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once SYMBOL",
		Short: "Fetch, decide and apply a single time for one symbol",
		Long: `Run one poll cycle for SYMBOL against a fresh portfolio and print the result.
Example: sentinel once AAPL`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runOnce(ctx, cfg, args[0], cmd.OutOrStdout())
		},
	}
}

func newTradesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trades SYMBOL",
		Short: "Show the latest recorded trades for a symbol",
		Long: `Read the SQLite or Postgres trade log and print the newest trades for SYMBOL.
Example: sentinel trades AAPL --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			return runTrades(cmd.Context(), cfg, args[0], limit, cmd.OutOrStdout())
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of trades to show")
	return cmd
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration ok")
			return nil
		},
	})

	return configCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "TradeSentinel %s\n", Version)
		},
	}
}

// Execute runs the root command with a background context.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}
