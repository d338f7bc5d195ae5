package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"pulsebrief/internal/model"

	"github.com/gin-gonic/gin"
)

type ArticleStore interface {
	GetArticles(ctx context.Context, limit, offset int) ([]model.StoredArticle, error)
	GetArticleTotal(ctx context.Context) (int, error)
}

// QueueLength reports the number of pending briefing jobs.
type QueueLength interface {
	Length(ctx context.Context) (int64, error)
}

type ArticleHandler struct {
	repository ArticleStore
	queue      QueueLength
}

// NewArticleHandler builds the article and health handlers. queue may be
// nil when Redis is not configured.
func NewArticleHandler(repository ArticleStore, queue QueueLength) *ArticleHandler {
	return &ArticleHandler{repository: repository, queue: queue}
}

func (h *ArticleHandler) GetArticles(c *gin.Context) {
	limit := getQueryLimit(c)
	offset := getQueryOffset(c)

	articles, err := h.repository.GetArticles(c.Request.Context(), limit, offset)
	if err != nil {
		slog.Error("error fetching articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	total, err := h.repository.GetArticleTotal(c.Request.Context())
	if err != nil {
		slog.Error("error fetching article total", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	res := ArticlesResponse{
		Articles: make([]ArticleResponse, 0, len(articles)),
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	}
	for _, a := range articles {
		res.Articles = append(res.Articles, ArticleResponse{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source,
			HasFullText: a.FullText != "",
			UpdatedAt:   a.UpdatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, res)
}

func (h *ArticleHandler) GetHealth(c *gin.Context) {
	res := gin.H{"status": "healthy", "database": "connected"}

	if h.queue != nil {
		n, err := h.queue.Length(c.Request.Context())
		if err != nil {
			slog.Warn("error reading queue length", "error", err)
			res["redis"] = "disconnected"
		} else {
			res["redis"] = "connected"
			res["queue_length"] = n
		}
	}

	_, err := h.repository.GetArticleTotal(c.Request.Context())
	if err != nil {
		res["status"] = "unhealthy"
		res["database"] = "disconnected"
		c.JSON(http.StatusServiceUnavailable, res)
		return
	}

	c.JSON(http.StatusOK, res)
}

func getQueryInt(name string, defaultValue int, c *gin.Context) int {
	paramLimit := c.Query(name)

	if paramLimit == "" {
		return defaultValue
	}

	parsedValue, err := strconv.Atoi(paramLimit)
	if err != nil {
		slog.Warn("invalid query parameter, using default", "param", name, "value", paramLimit, "error", err)
		return defaultValue
	}

	return parsedValue
}

func getQueryLimit(c *gin.Context) int {
	const (
		defaultLimit = 10
		maxLimit     = 100
	)

	limit := getQueryInt("limit", defaultLimit, c)
	if limit < 1 {
		slog.Warn("invalid query parameter, using default", "param", "limit", "value", limit, "default", defaultLimit)
		return defaultLimit
	}

	if limit > maxLimit {
		slog.Warn("query parameter exceeds max, clamping", "param", "limit", "value", limit, "max", maxLimit)
		return maxLimit
	}

	return limit
}

func getQueryOffset(c *gin.Context) int {
	offset := getQueryInt("offset", 0, c)
	if offset < 0 {
		slog.Warn("invalid query parameter, using default", "param", "offset", "value", offset, "default", 0)
		return 0
	}
	return offset
}
