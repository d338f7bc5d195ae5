package main

import (
	"context"
	"log"
	"log/slog"

	"pulsebrief/db"
	"pulsebrief/internal/app"
	"pulsebrief/internal/config"
	"pulsebrief/internal/handler"
	"pulsebrief/internal/logger"
	"pulsebrief/internal/metrics"
	"pulsebrief/internal/repository"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {

	godotenv.Load()

	slog.SetDefault(logger.New("api"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	err = db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer db.Close()

	deps := app.Deps{DB: db.DB}

	var (
		queue      handler.JobQueue
		queueStats handler.QueueLength
	)
	if err := db.ConnectRedis(context.Background(), cfg.RedisURL); err != nil {
		slog.Warn("Redis unavailable, async jobs and page cache disabled", "error", err)
	} else {
		defer db.CloseRedis()
		deps.Redis = db.Redis
		q := db.NewQueue(db.Redis)
		queue, queueStats = q, q
	}

	generator, err := app.NewGenerator(cfg, deps, slog.Default())
	if err != nil {
		log.Fatalf("error building briefing pipeline: %v", err)
	}

	articleRepo := repository.NewArticleRepository(db.DB)
	articleHandler := handler.NewArticleHandler(articleRepo, queueStats)

	briefingRepo := repository.NewBriefingRepository(db.DB)
	briefingHandler := handler.NewBriefingHandler(generator, briefingRepo, queue, cfg.Pipeline.DefaultMaxArticles)

	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}

	if cfg.HTTP.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.HTTP.FrontendURL)
	}

	slog.Info("AllowOrigins URL:", "urls", allowedOrigins)

	r.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
	}))

	r.POST("/briefing/structured", briefingHandler.CreateStructured)
	r.POST("/briefing/jobs", briefingHandler.CreateJob)
	r.GET("/briefing/jobs/:id", briefingHandler.GetJob)
	r.GET("/briefings", briefingHandler.GetBriefings)
	r.GET("/articles", articleHandler.GetArticles)
	r.GET("/health", articleHandler.GetHealth)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	err = r.Run(cfg.HTTP.BindAddr)
	if err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
