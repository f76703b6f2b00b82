package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"scraper/config"
	"scraper/document"
	"scraper/export"
	"scraper/fetcher"
	"scraper/history"
	"scraper/logging"
	"scraper/omnibox"
)

// errHistoryDisabled is returned by the history command when history.enabled
// is false.
var errHistoryDisabled = errors.New("history is disabled in the config")

func newQueryCmd(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "query <url> <selector>",
		Short: "Fetch a page once and print the matches of a selector",
		Long: `Fetch a page, run a CSS selector against it, and print one panel per
match to stdout. Logs go to stderr.`,
		Example: `  scraper query https://example.com "h1"
  scraper query https://news.ycombinator.com ".titleline > a" --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logger := logging.New(cmd.ErrOrStderr(), logLevel(cfg, flags))
			hist := openHistory(cfg, logger)
			defer hist.Close()

			ctx := cmd.Context()
			targetURL, err := omnibox.Resolve(args[0])
			if err != nil {
				return err
			}
			selector := args[1]

			res, err := fetcher.New(cfg.FetcherOptions(), logger).Fetch(ctx, targetURL)
			if err != nil {
				logger.Error("fetch failed", "url", targetURL, "error", err)
				return fmt.Errorf("fetching %s: %w", targetURL, err)
			}
			logger.Info("fetched", "url", targetURL, "status", res.StatusCode, "bytes", len(res.HTML), "browser", res.UsedBrowser)
			if err := hist.RecordFetch(ctx, history.Fetch{
				URL:         targetURL,
				FinalURL:    res.FinalURL,
				Status:      res.StatusCode,
				Bytes:       len(res.HTML),
				UsedBrowser: res.UsedBrowser,
			}); err != nil {
				logger.Warn("recording fetch in history", "error", err)
			}

			doc, err := document.Parse(res.HTML, res.FinalURL)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", targetURL, err)
			}
			matches, err := doc.Query(selector)
			if err != nil {
				return err
			}
			logger.Info("query", "selector", selector, "matches", len(matches))
			if err := hist.RecordQuery(ctx, history.Query{URL: doc.URL(), Selector: selector, Matches: len(matches)}); err != nil {
				logger.Warn("recording query in history", "error", err)
			}

			return export.Write(cmd.OutOrStdout(), f, export.Report{
				URL:      targetURL,
				FinalURL: res.FinalURL,
				Status:   res.StatusCode,
				Selector: selector,
				Matches:  matches,
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatText), "Output format: text, json or markdown")
	return cmd
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent fetches and queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errHistoryDisabled
			}
			if limit <= 0 {
				limit = cfg.History.Limit
			}

			store, err := history.Open(config.DataDir(), history.DefaultOptions())
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("reading history: %w", err)
			}
			return writeHistory(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of entries to show (default history.limit)")
	return cmd
}

func writeHistory(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "no history yet")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		at := e.At.Local().Format(time.DateTime)
		switch e.Kind {
		case history.KindFetch:
			via := "http"
			if e.UsedBrowser {
				via = "browser"
			}
			fmt.Fprintf(tw, "%s\tfetch\t%d\t%s\t%s\n", at, e.Status, via, e.URL)
		case history.KindQuery:
			fmt.Fprintf(tw, "%s\tquery\t%d\t%s\t%s\n", at, e.Matches, e.Selector, e.URL)
		}
	}
	return tw.Flush()
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Print the default configuration",
		Long:  "Print the default TOML configuration. Save it to " + config.Path() + " and edit.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), config.DefaultTOML())
		},
	}
}
