package repository

import (
	"context"
	"database/sql"

	"pulsebrief/internal/model"

	"github.com/lib/pq"
)

type BriefingRepository struct {
	db *sql.DB
}

func NewBriefingRepository(db *sql.DB) *BriefingRepository {
	return &BriefingRepository{db: db}
}

const briefingColumns = `id, request_id, topic, max_articles, status, article_count,
	positive_opinion, negative_concern, constructive_suggestion, processing_time,
	attempted_articles, skip_reasons, aggregation_error, error_message, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBriefing(row rowScanner) (*model.Briefing, error) {
	var b model.Briefing
	err := row.Scan(&b.ID, &b.RequestID, &b.Topic, &b.MaxArticles, &b.Status, &b.ArticleCount,
		&b.PositiveOpinion, &b.NegativeConcern, &b.ConstructiveSuggestion, &b.ProcessingTime,
		&b.AttemptedArticles, pq.Array(&b.SkipReasons), &b.AggregationError, &b.ErrorMessage,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SaveBriefing stores a finished report. A pending job row with the same
// request id is completed in place.
func (r *BriefingRepository) SaveBriefing(ctx context.Context, b *model.Briefing) error {
	if b.Status == "" {
		b.Status = model.StatusCompleted
	}

	return r.db.QueryRowContext(ctx, `
		INSERT INTO briefing(request_id, topic, max_articles, status, article_count,
			positive_opinion, negative_concern, constructive_suggestion, processing_time,
			attempted_articles, skip_reasons, aggregation_error, error_message)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (request_id) DO UPDATE
		SET status = EXCLUDED.status,
			article_count = EXCLUDED.article_count,
			positive_opinion = EXCLUDED.positive_opinion,
			negative_concern = EXCLUDED.negative_concern,
			constructive_suggestion = EXCLUDED.constructive_suggestion,
			processing_time = EXCLUDED.processing_time,
			attempted_articles = EXCLUDED.attempted_articles,
			skip_reasons = EXCLUDED.skip_reasons,
			aggregation_error = EXCLUDED.aggregation_error,
			error_message = EXCLUDED.error_message,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, b.RequestID, b.Topic, b.MaxArticles, b.Status, b.ArticleCount,
		b.PositiveOpinion, b.NegativeConcern, b.ConstructiveSuggestion, b.ProcessingTime,
		b.AttemptedArticles, pq.Array(b.SkipReasons), b.AggregationError, b.ErrorMessage).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

// SaveJob records a pending async briefing.
func (r *BriefingRepository) SaveJob(ctx context.Context, requestID, topic string, maxArticles int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO briefing(request_id, topic, max_articles, status)
		VALUES($1, $2, $3, $4)
		ON CONFLICT (request_id) DO NOTHING
	`, requestID, topic, maxArticles, model.StatusPending)
	return err
}

func (r *BriefingRepository) MarkJobFailed(ctx context.Context, requestID, message string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE briefing SET status = $1, error_message = $2, updated_at = NOW()
		WHERE request_id = $3
	`, model.StatusFailed, message, requestID)
	return err
}

func (r *BriefingRepository) GetBriefingByRequestID(ctx context.Context, requestID string) (*model.Briefing, error) {
	b, err := scanBriefing(r.db.QueryRowContext(ctx, `
		SELECT `+briefingColumns+`
		FROM briefing
		WHERE request_id = $1
	`, requestID))

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return b, err
}

// GetLatestBriefing returns the newest completed briefing, optionally for
// one topic only.
func (r *BriefingRepository) GetLatestBriefing(ctx context.Context, topic string) (*model.Briefing, error) {
	b, err := scanBriefing(r.db.QueryRowContext(ctx, `
		SELECT `+briefingColumns+`
		FROM briefing
		WHERE status = $1 AND ($2 = '' OR topic = $2)
		ORDER BY created_at DESC
		LIMIT 1
	`, model.StatusCompleted, topic))

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return b, err
}

func (r *BriefingRepository) GetBriefings(ctx context.Context, limit, offset int) ([]model.Briefing, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+briefingColumns+`
		FROM briefing
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, model.StatusCompleted, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var briefings []model.Briefing
	for rows.Next() {
		b, err := scanBriefing(rows)
		if err != nil {
			return nil, err
		}
		briefings = append(briefings, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return briefings, nil
}

func (r *BriefingRepository) GetBriefingTotal(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM briefing WHERE status = $1`, model.StatusCompleted).Scan(&total)
	return total, err
}
