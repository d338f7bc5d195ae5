// Package worker runs queued briefing jobs.
package worker

import (
	"context"
	"log/slog"
	"time"

	"pulsebrief/db"
	"pulsebrief/internal/briefing"
	"pulsebrief/internal/model"
)

type Runner interface {
	Generate(ctx context.Context, req briefing.Request, requestID string) (*briefing.Report, error)
}

type Store interface {
	SaveBriefing(ctx context.Context, b *model.Briefing) error
	MarkJobFailed(ctx context.Context, requestID, message string) error
}

type Queue interface {
	PushJob(ctx context.Context, job db.Job) error
	PopJob(ctx context.Context, timeout time.Duration) (*db.Job, error)
	PushDeadLetter(ctx context.Context, job db.Job) error
}

type Processor struct {
	runner         Runner
	store          Store
	queue          Queue
	maxRetries     int
	retryDelay     time.Duration
	cleanupTimeout time.Duration
	logger         *slog.Logger
}

func NewProcessor(runner Runner, store Store, queue Queue, maxRetries int, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		runner:         runner,
		store:          store,
		queue:          queue,
		maxRetries:     maxRetries,
		retryDelay:     5 * time.Second,
		cleanupTimeout: 10 * time.Second,
		logger:         logger,
	}
}

// Handle runs one job. Validation failures are final; any other failure
// re-queues the job until maxRetries is used up, then dead-letters it.
// A job interrupted by ctx is put back on the queue as it was.
func (p *Processor) Handle(ctx context.Context, job db.Job) {
	log := p.logger.With("request_id", job.RequestID)

	report, err := p.runner.Generate(ctx, briefing.Request{Topic: job.Topic, MaxArticles: job.MaxArticles}, job.RequestID)

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cleanupTimeout)
	defer cancel()

	if ctx.Err() != nil {
		log.Warn("worker stopping, returning job to queue", "attempt", job.Attempt)
		if err := p.queue.PushJob(bg, job); err != nil {
			log.Error("error re-queueing interrupted job", "error", err)
			p.fail(bg, log, job, ctx.Err())
		}
		return
	}

	if err == nil {
		if err := p.store.SaveBriefing(bg, report.Record(job.MaxArticles)); err != nil {
			log.Error("error saving briefing", "error", err)
			p.retry(ctx, bg, log, job, err)
			return
		}
		log.Info("briefing job completed", "articles", report.ArticleCount, "processing_time", report.ProcessingTime)
		return
	}

	log.Error("error generating briefing", "error", err, "attempt", job.Attempt)

	if briefing.IsValidation(err) {
		p.fail(bg, log, job, err)
		return
	}

	p.retry(ctx, bg, log, job, err)
}

// retry does its queue and store writes on bg; ctx only cuts the delay short.
func (p *Processor) retry(ctx, bg context.Context, log *slog.Logger, job db.Job, cause error) {
	job.LastError = cause.Error()
	if job.Attempt >= p.maxRetries {
		log.Warn("job exceeded max retries, marking as failed", "attempts", job.Attempt+1)
		p.fail(bg, log, job, cause)
		return
	}

	job.Attempt++
	if err := p.queue.PushJob(bg, job); err != nil {
		log.Error("error re-queueing job", "error", err)
		p.fail(bg, log, job, cause)
		return
	}

	if p.retryDelay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(p.retryDelay):
		}
	}
}

func (p *Processor) fail(ctx context.Context, log *slog.Logger, job db.Job, cause error) {
	job.LastError = cause.Error()
	if err := p.store.MarkJobFailed(ctx, job.RequestID, cause.Error()); err != nil {
		log.Error("error marking job failed", "error", err)
	}
	if err := p.queue.PushDeadLetter(ctx, job); err != nil {
		log.Error("error pushing to dead letter queue", "error", err)
	}
}

// Run pops and handles jobs until ctx is cancelled.
func (p *Processor) Run(ctx context.Context, popTimeout time.Duration) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		job, err := p.queue.PopJob(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("error popping from Redis queue", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		if job == nil {
			continue
		}

		p.Handle(ctx, *job)
	}
}
