package briefing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pulsebrief/internal/metrics"
)

type Config struct {
	ExtractWorkers   int
	CallTimeout      time.Duration
	ExcerptChars     int
	MaxArticlesLimit int
	// Timeout bounds a whole run; zero means no deadline beyond the caller's.
	Timeout time.Duration
}

// Generator runs the structured briefing pipeline:
// fetch -> (enrich) -> extract -> summarize -> report.
type Generator struct {
	source     ArticleSource
	enricher   Enricher
	extractor  *Extractor
	aggregator *Aggregator
	cfg        Config
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Generator)

func WithEnricher(e Enricher) Option {
	return func(g *Generator) { g.enricher = e }
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func NewGenerator(source ArticleSource, oracle Oracle, cfg Config, logger *slog.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{
		source: source,
		extractor: NewExtractor(oracle, ExtractorConfig{
			Workers:      cfg.ExtractWorkers,
			CallTimeout:  cfg.CallTimeout,
			ExcerptChars: cfg.ExcerptChars,
		}, logger),
		aggregator: NewAggregator(oracle, cfg.CallTimeout, logger),
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Validate(req Request) error {
	if strings.TrimSpace(req.Topic) == "" {
		return &ValidationError{Field: "topic", Message: "must not be empty"}
	}
	if req.MaxArticles <= 0 {
		return &ValidationError{Field: "max_articles", Message: "must be positive"}
	}
	if g.cfg.MaxArticlesLimit > 0 && req.MaxArticles > g.cfg.MaxArticlesLimit {
		return &ValidationError{Field: "max_articles", Message: fmt.Sprintf("must not exceed %d", g.cfg.MaxArticlesLimit)}
	}
	return nil
}

// Generate produces a structured report. Only validation and article
// acquisition failures are returned as errors; extraction and aggregation
// degrade to fewer snippets or empty summaries.
func (g *Generator) Generate(ctx context.Context, req Request, requestID string) (*Report, error) {
	if err := g.Validate(req); err != nil {
		return nil, err
	}

	topic := strings.TrimSpace(req.Topic)
	log := g.logger.With("request_id", requestID)
	log.Info("structured briefing requested", "topic", topic, "max_articles", req.MaxArticles)

	start := g.now()

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	articles, err := g.source.Fetch(ctx, topic, req.MaxArticles)
	if err != nil {
		elapsed := g.now().Sub(start)
		log.Error("structured briefing failed", "elapsed", formatElapsed(elapsed), "error", err)
		metrics.Briefings.WithLabelValues("source_error").Inc()
		return nil, &SourceError{Err: err}
	}
	if len(articles) > req.MaxArticles {
		articles = articles[:req.MaxArticles]
	}
	articleCount := len(articles)

	if g.enricher != nil && articleCount > 0 {
		articles = g.enricher.Enrich(ctx, requestID, articles)
	}

	extraction := g.extractor.Extract(ctx, articles, topic, requestID)
	summary := g.aggregator.Summarize(ctx, extraction.Snippets, topic, requestID)

	elapsed := g.now().Sub(start)
	metrics.BriefingDuration.Observe(elapsed.Seconds())
	metrics.Briefings.WithLabelValues("completed").Inc()
	log.Info("structured briefing completed", "elapsed", formatElapsed(elapsed), "articles", articleCount)

	return &Report{
		RequestID:              requestID,
		Topic:                  topic,
		ArticleCount:           articleCount,
		PositiveOpinion:        summary.Positive,
		NegativeConcern:        summary.Negative,
		ConstructiveSuggestion: summary.Constructive,
		ProcessingTime:         formatElapsed(elapsed),
		Diagnostics: Diagnostics{
			Attempted:      extraction.Attempted,
			Skipped:        extraction.Skipped,
			AggregationErr: summary.Err,
		},
	}, nil
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
