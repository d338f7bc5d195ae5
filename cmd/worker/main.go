package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"pulsebrief/db"
	"pulsebrief/internal/app"
	"pulsebrief/internal/config"
	"pulsebrief/internal/logger"
	"pulsebrief/internal/repository"
	"pulsebrief/internal/worker"

	"github.com/joho/godotenv"
)

func main() {

	godotenv.Load()

	slog.SetDefault(logger.New("worker"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = db.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("error connecting to Redis: %v", err)
	}
	defer db.CloseRedis()

	err = db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer db.Close()

	generator, err := app.NewGenerator(cfg, app.Deps{DB: db.DB, Redis: db.Redis}, slog.Default())
	if err != nil {
		log.Fatalf("error building briefing pipeline: %v", err)
	}

	queue := db.NewQueue(db.Redis)
	processor := worker.NewProcessor(
		generator,
		repository.NewBriefingRepository(db.DB),
		queue,
		cfg.Worker.MaxRetries,
		slog.Default(),
	)

	pending, err := queue.Length(ctx)
	if err != nil {
		slog.Warn("error reading queue length", "error", err)
	}
	slog.Info("worker started", "queue", db.BriefingQueueKey, "pending", pending, "max_retries", cfg.Worker.MaxRetries)

	if err := processor.Run(ctx, cfg.Worker.PopTimeout); err != nil {
		log.Fatalf("worker stopped: %v", err)
	}

	slog.Info("worker stopped")
}
