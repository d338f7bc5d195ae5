package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pulsebrief/db"
	"pulsebrief/internal/briefing"
	"pulsebrief/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BriefingRunner interface {
	Validate(req briefing.Request) error
	Generate(ctx context.Context, req briefing.Request, requestID string) (*briefing.Report, error)
}

type BriefingStore interface {
	SaveBriefing(ctx context.Context, b *model.Briefing) error
	SaveJob(ctx context.Context, requestID, topic string, maxArticles int) error
	MarkJobFailed(ctx context.Context, requestID, message string) error
	GetBriefingByRequestID(ctx context.Context, requestID string) (*model.Briefing, error)
	GetLatestBriefing(ctx context.Context, topic string) (*model.Briefing, error)
	GetBriefings(ctx context.Context, limit, offset int) ([]model.Briefing, error)
	GetBriefingTotal(ctx context.Context) (int, error)
}

type JobQueue interface {
	PushJob(ctx context.Context, job db.Job) error
}

const requestIDHeader = "X-Request-ID"

type BriefingHandler struct {
	runner             BriefingRunner
	repository         BriefingStore
	queue              JobQueue
	defaultMaxArticles int
}

func NewBriefingHandler(runner BriefingRunner, repository BriefingStore, queue JobQueue, defaultMaxArticles int) *BriefingHandler {
	return &BriefingHandler{
		runner:             runner,
		repository:         repository,
		queue:              queue,
		defaultMaxArticles: defaultMaxArticles,
	}
}

func newRequestID(kind string) string {
	return fmt.Sprintf("req_%d_%s_%s", time.Now().Unix(), uuid.NewString()[:8], kind)
}

func requestIDFrom(c *gin.Context, kind string) string {
	if id := strings.TrimSpace(c.GetHeader(requestIDHeader)); id != "" {
		return id
	}
	return newRequestID(kind)
}

// bindStructured decodes the request body; an empty body leaves the
// fields to validation.
func (h *BriefingHandler) bindStructured(c *gin.Context) (briefing.Request, error) {
	var body StructuredRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		return briefing.Request{}, err
	}

	req := briefing.Request{Topic: body.Topic, MaxArticles: h.defaultMaxArticles}
	if body.MaxArticles != nil {
		req.MaxArticles = *body.MaxArticles
	}
	return req, nil
}

func (h *BriefingHandler) CreateStructured(c *gin.Context) {
	requestID := requestIDFrom(c, "structured")
	c.Header(requestIDHeader, requestID)

	req, err := h.bindStructured(c)
	if err != nil {
		slog.Warn("invalid request body", "request_id", requestID, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	report, err := h.runner.Generate(c.Request.Context(), req, requestID)
	if err != nil {
		switch {
		case briefing.IsValidation(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case briefing.IsSource(err):
			slog.Error("article source failed", "request_id", requestID, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch articles"})
		default:
			slog.Error("structured briefing failed", "request_id", requestID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if h.repository != nil {
		if err := h.repository.SaveBriefing(c.Request.Context(), report.Record(req.MaxArticles)); err != nil {
			slog.Error("failed to persist briefing", "request_id", requestID, "error", err)
		}
	}

	c.JSON(http.StatusOK, report)
}

func (h *BriefingHandler) CreateJob(c *gin.Context) {
	requestID := requestIDFrom(c, "job")
	c.Header(requestIDHeader, requestID)

	req, err := h.bindStructured(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.runner.Validate(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.queue == nil || h.repository == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Job queue unavailable"})
		return
	}

	ctx := c.Request.Context()
	topic := strings.TrimSpace(req.Topic)

	if err := h.repository.SaveJob(ctx, requestID, topic, req.MaxArticles); err != nil {
		slog.Error("failed to save job", "request_id", requestID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	job := db.Job{RequestID: requestID, Topic: topic, MaxArticles: req.MaxArticles}
	if err := h.queue.PushJob(ctx, job); err != nil {
		slog.Error("failed to enqueue job", "request_id", requestID, "error", err)
		if markErr := h.repository.MarkJobFailed(ctx, requestID, "enqueue failed"); markErr != nil {
			slog.Error("failed to mark job failed", "request_id", requestID, "error", markErr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue job"})
		return
	}

	slog.Info("briefing job queued", "request_id", requestID, "topic", topic)
	c.JSON(http.StatusAccepted, JobResponse{RequestID: requestID, Status: model.StatusPending})
}

func (h *BriefingHandler) storeUnavailable(c *gin.Context) bool {
	if h.repository != nil {
		return false
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Briefing store unavailable"})
	return true
}

func (h *BriefingHandler) GetJob(c *gin.Context) {
	if h.storeUnavailable(c) {
		return
	}
	requestID := c.Param("id")

	b, err := h.repository.GetBriefingByRequestID(c.Request.Context(), requestID)
	if err != nil {
		slog.Error("error fetching job", "request_id", requestID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if b == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	res := JobResponse{RequestID: b.RequestID, Status: b.Status}
	switch b.Status {
	case model.StatusPending:
		c.JSON(http.StatusAccepted, res)
		return
	case model.StatusFailed:
		res.Error = b.ErrorMessage
	default:
		br := toBriefingResponse(*b)
		res.Briefing = &br
	}

	c.JSON(http.StatusOK, res)
}

func toBriefingResponse(b model.Briefing) BriefingResponse {
	return BriefingResponse{
		ID:                     b.ID,
		RequestID:              b.RequestID,
		Topic:                  b.Topic,
		ArticleCount:           b.ArticleCount,
		PositiveOpinion:        b.PositiveOpinion,
		NegativeConcern:        b.NegativeConcern,
		ConstructiveSuggestion: b.ConstructiveSuggestion,
		ProcessingTime:         b.ProcessingTime,
		CreatedAt:              b.CreatedAt.Format(time.RFC3339),
	}
}

// GetBriefings lists completed briefings newest first. With ?topic= it
// returns only the latest completed briefing for that topic.
func (h *BriefingHandler) GetBriefings(c *gin.Context) {
	if h.storeUnavailable(c) {
		return
	}
	if topic := strings.TrimSpace(c.Query("topic")); topic != "" {
		h.getLatestForTopic(c, topic)
		return
	}

	limit := getQueryLimit(c)
	offset := getQueryOffset(c)

	briefings, err := h.repository.GetBriefings(c.Request.Context(), limit, offset)
	if err != nil {
		slog.Error("error fetching briefings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	total, err := h.repository.GetBriefingTotal(c.Request.Context())
	if err != nil {
		slog.Error("error fetching briefing total", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	res := BriefingsResponse{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		History: []BriefingResponse{},
	}

	if len(briefings) > 0 {
		latest := toBriefingResponse(briefings[0])
		res.Latest = &latest
		for _, b := range briefings[1:] {
			res.History = append(res.History, toBriefingResponse(b))
		}
	}

	c.JSON(http.StatusOK, res)
}

func (h *BriefingHandler) getLatestForTopic(c *gin.Context, topic string) {
	b, err := h.repository.GetLatestBriefing(c.Request.Context(), topic)
	if err != nil {
		slog.Error("error fetching latest briefing", "topic", topic, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	res := BriefingsResponse{Topic: topic, Limit: 1, History: []BriefingResponse{}}
	if b != nil {
		latest := toBriefingResponse(*b)
		res.Latest = &latest
		res.Total = 1
	}

	c.JSON(http.StatusOK, res)
}
