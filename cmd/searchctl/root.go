package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/loader"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/service"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
)

type options struct {
	configPath string
	stopWords  string
	docs       []string
	sqlite     string
	table      string
	mode       string
	quiet      bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "searchctl",
		Short: "Query, deduplicate and publish a local document corpus",
		Long: `searchctl loads a corpus into an in-memory TF-IDF index and runs
operations against it.

A corpus is either files selected with --docs glob patterns, or a SQLite
table with id, body, status and ratings columns selected with --sqlite.
Text files hold one document per line; an HTML file is one document.

Example usage:
  searchctl query --docs 'corpus/**/*.txt' "curly -rat"
  searchctl dedup --sqlite corpus.db
  searchctl ingest --docs corpus/pets.txt
  searchctl loadtest --url http://localhost:8080 --duration 10s`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if opts.configPath != "" {
				opts.cfg, err = config.Load(opts.configPath)
			} else {
				opts.cfg = config.Default()
			}
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			level := opts.cfg.Logging.Level
			if opts.quiet {
				level = "error"
			}
			slog.SetDefault(logger.New(cmd.ErrOrStderr(), level, "text"))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (defaults are used when empty)")
	flags.StringVar(&opts.stopWords, "stop-words", "", "space-separated stop words (overrides config)")
	flags.StringSliceVar(&opts.docs, "docs", nil, "glob patterns of text or HTML files")
	flags.StringVar(&opts.sqlite, "sqlite", "", "SQLite database holding the corpus")
	flags.StringVar(&opts.table, "table", "documents", "table to read from --sqlite")
	flags.StringVar(&opts.mode, "mode", "", "execution mode: seq or par (defaults to config)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "no progress bar, errors-only logging")

	root.AddCommand(
		newQueryCmd(opts),
		newMatchCmd(opts),
		newDedupCmd(opts),
		newIngestCmd(opts),
		newLoadTestCmd(opts),
	)
	return root
}

func (o *options) executionMode() (execution.Mode, error) {
	raw := o.mode
	if raw == "" {
		raw = o.cfg.Engine.DefaultMode
	}
	return execution.ParseMode(raw)
}

func (o *options) openSource(ctx context.Context) (loader.Source, error) {
	switch {
	case o.sqlite != "" && len(o.docs) > 0:
		return nil, errors.New("--docs and --sqlite are mutually exclusive")
	case o.sqlite != "":
		src, err := loader.OpenSQLite(ctx, o.sqlite, o.table)
		if err != nil {
			return nil, err
		}
		return src, nil
	case len(o.docs) > 0:
		paths, err := loader.Glob(o.docs)
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("no files match %v", o.docs)
		}
		return loader.NewLineSource(paths), nil
	default:
		return nil, errors.New("a corpus is required: pass --docs or --sqlite")
	}
}

// loadService builds an engine from the configured stop words and loads
// the corpus into it.
func (o *options) loadService(cmd *cobra.Command) (*service.Service, error) {
	mode, err := o.executionMode()
	if err != nil {
		return nil, err
	}
	var engine *indexer.Engine
	if o.stopWords != "" {
		engine, err = indexer.NewEngineFromText(o.stopWords, o.cfg.Engine)
	} else {
		engine, err = indexer.NewEngine(o.cfg.Engine.StopWords, o.cfg.Engine)
	}
	if err != nil {
		return nil, err
	}
	svc := service.New(engine, service.Options{
		WindowSize:       o.cfg.Search.RequestWindow,
		BatchConcurrency: o.cfg.Search.BatchConcurrency,
		DefaultMode:      mode,
	})

	src, err := o.openSource(cmd.Context())
	if err != nil {
		return nil, err
	}
	defer src.Close()

	res, err := loader.Load(cmd.Context(), src, svc, o.progress(cmd, "Loading"))
	if err != nil {
		return nil, err
	}
	if res.Rejected > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d documents rejected\n", res.Rejected)
	}
	return svc, nil
}

func (o *options) progress(cmd *cobra.Command, description string) loader.Progress {
	if o.quiet {
		return nil
	}
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription(description),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(cmd.ErrOrStderr())
				}),
			)
		}
		_ = bar.Set(done)
	}
}
