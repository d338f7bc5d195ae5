package enrich

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"pulsebrief/internal/metrics"
	"pulsebrief/internal/model"
	"pulsebrief/pkg/fulltext"
	"pulsebrief/pkg/news"
)

type ArticleStore interface {
	CheckArticleExists(ctx context.Context, url string) (*model.StoredArticle, error)
	SaveArticle(ctx context.Context, article *model.StoredArticle) error
	SaveFullText(ctx context.Context, url, text string) (bool, error)
}

type PageCache interface {
	Get(ctx context.Context, url string) (string, bool, error)
	Set(ctx context.Context, url, text string) error
}

type PageFetcher interface {
	Fetch(ctx context.Context, url string) (fulltext.Page, error)
}

const (
	resultStore   = "store"
	resultCache   = "cache"
	resultFetched = "fetched"
	resultEmpty   = "empty"
	resultFailed  = "failed"
)

// Enricher fills Article.FullText from the article store, the page cache
// or the network, in that order. Store and cache are optional.
type Enricher struct {
	store   ArticleStore
	cache   PageCache
	fetcher PageFetcher
	workers int
	logger  *slog.Logger
}

func New(fetcher PageFetcher, store ArticleStore, cache PageCache, workers int, logger *slog.Logger) *Enricher {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{store: store, cache: cache, fetcher: fetcher, workers: workers, logger: logger}
}

// Enrich never fails: an article whose text cannot be found is returned
// unchanged. The input slice is not modified.
func (e *Enricher) Enrich(ctx context.Context, requestID string, articles []news.Article) []news.Article {
	log := e.logger.With("request_id", requestID)
	out := make([]news.Article, len(articles))
	copy(out, articles)

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i := range out {
		if out[i].FullText != "" || strings.TrimSpace(out[i].URL) == "" {
			continue
		}
		g.Go(func() error {
			text, result := e.lookup(ctx, log, out[i])
			metrics.FullTextFetches.WithLabelValues(result).Inc()
			if text != "" {
				out[i].FullText = text
			}
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (e *Enricher) lookup(ctx context.Context, log *slog.Logger, article news.Article) (string, string) {
	url := strings.TrimSpace(article.URL)

	// set when the store already has the row but not its text
	known := false
	if e.store != nil {
		stored, err := e.store.CheckArticleExists(ctx, url)
		known = stored != nil
		if err != nil {
			log.Warn("article store lookup failed", "url", url, "error", err)
		} else if stored != nil && stored.FullText != "" {
			log.Debug("full text found in store", "url", url)
			return stored.FullText, resultStore
		}
	}

	if e.cache != nil {
		text, ok, err := e.cache.Get(ctx, url)
		if err != nil {
			log.Warn("page cache lookup failed", "url", url, "error", err)
		} else if ok && text != "" {
			log.Debug("full text found in cache", "url", url)
			e.save(ctx, log, article, known, text)
			return text, resultCache
		}
	}

	page, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		log.Warn("failed to fetch article page", "url", url, "error", err)
		return "", resultFailed
	}
	if page.Text == "" {
		log.Info("article page has no readable text", "url", url)
		return "", resultEmpty
	}

	log.Info("fetched article full text", "url", url, "chars", len([]rune(page.Text)))

	if e.cache != nil {
		if err := e.cache.Set(ctx, url, page.Text); err != nil {
			log.Warn("failed to cache page text", "url", url, "error", err)
		}
	}
	e.save(ctx, log, article, known, page.Text)

	return page.Text, resultFetched
}

// save attaches text to a known row, and stores the whole article
// otherwise or when the row has gone since the lookup.
func (e *Enricher) save(ctx context.Context, log *slog.Logger, article news.Article, known bool, text string) {
	if e.store == nil {
		return
	}
	url := strings.TrimSpace(article.URL)
	if known {
		ok, err := e.store.SaveFullText(ctx, url, text)
		if err != nil {
			log.Warn("failed to save full text", "url", url, "error", err)
			return
		}
		if ok {
			return
		}
	}
	err := e.store.SaveArticle(ctx, &model.StoredArticle{
		Title:       article.Title,
		Description: article.Description,
		Content:     article.Content,
		URL:         url,
		Source:      article.Source,
		FullText:    text,
	})
	if err != nil {
		log.Warn("failed to save article", "url", article.URL, "error", err)
	}
}
