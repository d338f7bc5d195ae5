// Package app assembles the briefing pipeline from configuration. Every
// binary builds its generator here so they run the same pipeline.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"pulsebrief/internal/briefing"
	"pulsebrief/internal/config"
	"pulsebrief/internal/enrich"
	"pulsebrief/internal/repository"
	"pulsebrief/pkg/fulltext"
	"pulsebrief/pkg/llm"
	"pulsebrief/pkg/news"
)

// Deps are the optional backing stores. Nil fields disable the features
// that need them.
type Deps struct {
	DB    *sql.DB
	Redis *redis.Client
}

func NewOracle(cfg *config.Config) (llm.Generator, error) {
	opts := llm.Options{
		APIKey:      cfg.LLMAPIKey(),
		Model:       cfg.LLMModel(),
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.CallTimeout,
	}
	if cfg.LLM.Provider == llm.ProviderOpenAI {
		opts.BaseURL = cfg.LLM.OpenAIBaseURL
	}
	return llm.New(cfg.LLM.Provider, opts)
}

func NewSource(cfg *config.Config, deps Deps) (news.NewsClient, error) {
	switch cfg.News.Source {
	case config.SourceFixture:
		return news.NewFixtureSource(cfg.News.FixturePath), nil
	case config.SourceStore:
		if deps.DB == nil {
			return nil, fmt.Errorf("NEWS_SOURCE=store requires DATABASE_URL")
		}
		return news.NewStoreSource(repository.NewArticleRepository(deps.DB)), nil
	default:
		if cfg.News.APIKey == "" {
			return nil, fmt.Errorf("NEWS_API_KEY is required for NEWS_SOURCE=newsapi")
		}
		return news.NewNewsAPIClient(cfg.News.APIKey, cfg.News.APIURL, cfg.News.Language), nil
	}
}

// NewEnricher always returns an enricher; the store and cache are used
// when deps provide them.
func NewEnricher(cfg *config.Config, deps Deps, logger *slog.Logger) *enrich.Enricher {
	fetcher := fulltext.NewFetcher(fulltext.Options{
		Timeout:    cfg.Pipeline.FullTextTimeout,
		MaxRetries: 3,
	})

	var store enrich.ArticleStore
	if deps.DB != nil {
		store = repository.NewArticleRepository(deps.DB)
	}
	var cache enrich.PageCache
	if deps.Redis != nil {
		cache = enrich.NewRedisPageCache(deps.Redis, cfg.Pipeline.FullTextCacheTTL)
	}

	return enrich.New(fetcher, store, cache, cfg.Pipeline.EnrichWorkers, logger)
}

// NewGenerator wires oracle, source and, with FETCH_FULL_TEXT, the
// enricher into a briefing generator.
func NewGenerator(cfg *config.Config, deps Deps, logger *slog.Logger) (*briefing.Generator, error) {
	oracle, err := NewOracle(cfg)
	if err != nil {
		return nil, fmt.Errorf("build oracle: %w", err)
	}

	source, err := NewSource(cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("build article source: %w", err)
	}

	var opts []briefing.Option
	if cfg.Pipeline.FetchFullText {
		opts = append(opts, briefing.WithEnricher(NewEnricher(cfg, deps, logger)))
	}

	logger.Info("briefing pipeline configured",
		"provider", oracle.Name(),
		"source", source.Name(),
		"full_text", cfg.Pipeline.FetchFullText,
	)

	return briefing.NewGenerator(source, oracle, briefing.Config{
		ExtractWorkers:   cfg.Pipeline.ExtractWorkers,
		CallTimeout:      cfg.LLM.CallTimeout,
		ExcerptChars:     cfg.Pipeline.ExcerptChars,
		MaxArticlesLimit: cfg.Pipeline.MaxArticlesLimit,
		Timeout:          cfg.Pipeline.Timeout,
	}, logger, opts...), nil
}
