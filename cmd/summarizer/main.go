package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"pulsebrief/db"
	"pulsebrief/internal/app"
	"pulsebrief/internal/briefing"
	"pulsebrief/internal/config"
	"pulsebrief/internal/logger"
	"pulsebrief/internal/repository"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	slog.SetDefault(logger.New("summarizer"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	if len(cfg.Worker.Topics) == 0 {
		slog.Info("no topics configured, exiting")
		return
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

	generator, err := app.NewGenerator(cfg, deps, slog.Default())
	if err != nil {
		log.Fatalf("error building briefing pipeline: %v", err)
	}

	briefingRepo := repository.NewBriefingRepository(db.DB)

	var completed, failed int
	for _, topic := range cfg.Worker.Topics {
		requestID := fmt.Sprintf("req_%d_%s_batch", time.Now().Unix(), uuid.NewString()[:8])
		req := briefing.Request{Topic: topic, MaxArticles: cfg.Pipeline.DefaultMaxArticles}

		report, err := generator.Generate(ctx, req, requestID)
		if err != nil {
			slog.Error("error generating briefing", "topic", topic, "error", err)
			failed++
			continue
		}

		record := report.Record(req.MaxArticles)
		err = briefingRepo.SaveBriefing(ctx, record)
		if err != nil {
			slog.Error("error saving briefing", "topic", topic, "error", err)
			failed++
			continue
		}

		completed++
		slog.Info("briefing saved successfully", "briefing_id", record.ID, "topic", topic, "article_count", record.ArticleCount)
	}

	slog.Info("batch complete", "completed", completed, "failed", failed)
}
