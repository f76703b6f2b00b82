// Scraper is a terminal tool for trying CSS selectors against live pages.
//
// Usage:
//
//	scraper [url]                         interactive view
//	scraper query <url> <selector>        one-shot query, panels on stdout
//	scraper history                       recent fetches and queries
//	scraper init-config                   print the default config
//
// See --help for all available options.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scraper/app"
	"scraper/config"
	"scraper/fetcher"
	"scraper/history"
	"scraper/logging"
)

func main() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		if errors.Is(err, config.ErrInvalid) || errors.Is(err, config.ErrUnknownMode) {
			fmt.Fprintln(os.Stderr, config.FormatError(err))
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	verbose    bool
	mode       string
}

// NewRootCmd creates the root command. With no subcommand it opens the
// interactive view.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "scraper [url]",
		Short: "Try CSS selectors against live web pages",
		Long: `Scraper fetches a page, shows its body markup, and runs CSS selectors
against it as you type. Each match is shown as a collapsible panel titled with
its tag name.

Logs are written to $XDG_STATE_HOME/scraper/scraper.log while the
interactive view owns the terminal.`,
		Version:       getVersion(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			initialURL := ""
			if len(args) == 1 {
				initialURL = args[0]
			}
			return runInteractive(cmd.Context(), flags, initialURL)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file (default "+config.Path()+")")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.mode, "mode", "", "Fetch mode: http, browser or auto (overrides config)")

	cmd.AddCommand(newQueryCmd(flags))
	cmd.AddCommand(newHistoryCmd(flags))
	cmd.AddCommand(newInitConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig loads the config file and applies flag overrides.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.mode != "" {
		cfg.Fetcher.Mode = flags.mode
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("--mode: %w", err)
		}
	}
	return cfg, nil
}

func logLevel(cfg *config.Config, flags *globalFlags) slog.Level {
	if flags.verbose {
		return slog.LevelDebug
	}
	return cfg.LogLevel()
}

// openHistory opens the history store, falling back to the no-op store when
// history is disabled or the database cannot be opened.
func openHistory(cfg *config.Config, logger *slog.Logger) history.Recorder {
	if !cfg.History.Enabled {
		return history.Nop{}
	}
	store, err := history.Open(config.DataDir(), history.DefaultOptions())
	if err != nil {
		logger.Warn("history disabled", "error", err)
		return history.Nop{}
	}
	return store
}

func runInteractive(ctx context.Context, flags *globalFlags, initialURL string) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	logger, logFile, err := logging.OpenFile(cfg.LogPath(), logLevel(cfg, flags))
	if err != nil {
		return err
	}
	defer logFile.Close()
	slog.SetDefault(logger)

	hist := openHistory(cfg, logger)
	defer hist.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", "version", getVersion(), "mode", cfg.Fetcher.Mode, "url", initialURL)
	err = app.Run(ctx, app.Config{
		Session: app.Options{
			Fetcher:           fetcher.New(cfg.FetcherOptions(), logger),
			History:           hist,
			Logger:            logger,
			PanelHeight:       cfg.Display.PanelHeight,
			DocumentPaneRatio: cfg.Display.DocumentPaneRatio,
			HistoryLimit:      cfg.History.Limit,
		},
		Debounce:   cfg.DebounceInterval(),
		InitialURL: initialURL,
	})
	if err != nil {
		logger.Error("interactive session ended", "error", err)
	}
	return err
}
