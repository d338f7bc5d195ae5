package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pulsebrief/db"
	"pulsebrief/internal/app"
	"pulsebrief/internal/briefing"
	"pulsebrief/internal/config"
	"pulsebrief/internal/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "briefctl",
		Short: "Run structured public-opinion briefings from the command line",
		Long: `briefctl runs the briefing pipeline once and prints the report.

Configuration comes from the environment (and .env), flags override it.

Examples:
  # Briefing from newsapi.org
  briefctl run -t "人工智能监管" -n 5

  # Offline run against the mock file, YAML output
  briefctl run -t "新能源汽车" --source fixture -o yaml`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd())
	return root
}

type runOptions struct {
	topic       string
	maxArticles int
	format      string
	diagnostics bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate one structured briefing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBriefing(cmd.Context(), cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.topic, "topic", "t", "", "briefing topic (required)")
	f.IntVarP(&opts.maxArticles, "max-articles", "n", 0, "articles to analyse (default DEFAULT_MAX_ARTICLES)")
	f.StringVarP(&opts.format, "output", "o", "json", "output format: json or yaml")
	f.String("source", "", "article source: newsapi, fixture or store (store reads DATABASE_URL)")
	f.String("fixture", "", "fixture file for --source fixture")
	f.Bool("full-text", false, "fetch article pages before extraction")
	f.BoolVar(&opts.diagnostics, "diagnostics", false, "print skipped articles to stderr")
	_ = cmd.MarkFlagRequired("topic")

	return cmd
}

func runBriefing(ctx context.Context, cmd *cobra.Command, opts *runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	format := strings.ToLower(opts.format)
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown output format %q", opts.format)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	maxArticles := opts.maxArticles
	if maxArticles == 0 {
		maxArticles = cfg.Pipeline.DefaultMaxArticles
	}

	log := logger.New("briefctl")
	slog.SetDefault(log)

	var deps app.Deps
	if cfg.News.Source == config.SourceStore {
		if err := db.Connect(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("connect to DB for --source store: %w", err)
		}
		defer db.Close()
		deps.DB = db.DB
	}

	generator, err := app.NewGenerator(cfg, deps, log)
	if err != nil {
		return err
	}

	requestID := fmt.Sprintf("req_%d_%s_cli", time.Now().Unix(), uuid.NewString()[:8])
	report, err := generator.Generate(ctx, briefing.Request{Topic: opts.topic, MaxArticles: maxArticles}, requestID)
	if err != nil {
		return err
	}

	if opts.diagnostics {
		writeDiagnostics(cmd.ErrOrStderr(), report.Diagnostics)
	}

	return writeReport(cmd.OutOrStdout(), report, format)
}

// loadConfig reads the environment with the run flags layered on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.NewViper()
	for key, flag := range map[string]string{
		"NEWS_SOURCE":       "source",
		"NEWS_FIXTURE_PATH": "fixture",
		"FETCH_FULL_TEXT":   "full-text",
	} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return nil, err
		}
	}
	return config.LoadFrom(v)
}

func writeReport(w io.Writer, report *briefing.Report, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(report)
}

func writeDiagnostics(w io.Writer, d briefing.Diagnostics) {
	fmt.Fprintf(w, "attempted: %d, skipped: %d\n", d.Attempted, len(d.Skipped))
	for _, s := range d.Skipped {
		if s.Err != nil {
			fmt.Fprintf(w, "  article %d: %s (%v)\n", s.Index+1, s.Reason, s.Err)
			continue
		}
		fmt.Fprintf(w, "  article %d: %s\n", s.Index+1, s.Reason)
	}
	if d.AggregationErr != nil {
		fmt.Fprintf(w, "aggregation failed: %v\n", d.AggregationErr)
	}
}

