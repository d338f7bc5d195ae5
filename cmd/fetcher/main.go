package main

import (
	"context"
	"log"
	"log/slog"
	"strings"

	"pulsebrief/db"
	"pulsebrief/internal/app"
	"pulsebrief/internal/config"
	"pulsebrief/internal/logger"
	"pulsebrief/internal/model"
	"pulsebrief/internal/repository"

	"github.com/joho/godotenv"
)

func main() {

	godotenv.Load()

	slog.SetDefault(logger.New("fetcher"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	if len(cfg.Worker.Topics) == 0 {
		slog.Error("no topics configured, set BRIEFING_TOPICS")
		return
	}

	// The fetcher fills the store, so it never reads from it.
	if cfg.News.Source == config.SourceStore {
		cfg.News.Source = config.SourceNewsAPI
	}

	ctx := context.Background()

	err = db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer db.Close()

	deps := app.Deps{DB: db.DB}
	if err := db.ConnectRedis(ctx, cfg.RedisURL); err != nil {
		slog.Warn("Redis unavailable, page cache disabled", "error", err)
	} else {
		defer db.CloseRedis()
		deps.Redis = db.Redis
	}

	client, err := app.NewSource(cfg, deps)
	if err != nil {
		log.Fatalf("error building article source: %v", err)
	}

	repo := repository.NewArticleRepository(db.DB)
	enricher := app.NewEnricher(cfg, deps, slog.Default())
	source := client.Name()

	for _, topic := range cfg.Worker.Topics {
		fetchedArticles, err := client.Fetch(ctx, topic, cfg.Pipeline.MaxArticlesLimit)
		if err != nil {
			slog.Error("error fetching articles", "source", source, "topic", topic, "error", err)
			continue
		}

		if cfg.Pipeline.FetchFullText {
			fetchedArticles = enricher.Enrich(ctx, "fetcher", fetchedArticles)
		}

		var saved, skipped, errors int

		for _, a := range fetchedArticles {
			if strings.TrimSpace(a.URL) == "" {
				skipped++
				continue
			}

			article := model.StoredArticle{
				Title:       a.Title,
				Description: a.Description,
				Content:     a.Content,
				URL:         strings.TrimSpace(a.URL),
				Source:      a.Source,
				FullText:    a.FullText,
			}

			err := repo.SaveArticle(ctx, &article)
			if err != nil {
				slog.Error("error saving article", "source", source, "error", err, "url", a.URL)
				errors++
				continue
			}

			saved++
		}

		slog.Info("fetch complete", "source", source, "topic", topic, "saved", saved, "skipped", skipped, "errors", errors)
	}
}
