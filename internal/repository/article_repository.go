package repository

import (
	"context"
	"database/sql"

	"pulsebrief/internal/model"
	"pulsebrief/pkg/news"
)

type ArticleRepository struct {
	db *sql.DB
}

func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// CheckArticleExists returns the stored article for url joined with its
// full text, or nil when it is not stored.
func (r *ArticleRepository) CheckArticleExists(ctx context.Context, url string) (*model.StoredArticle, error) {
	if url == "" {
		return nil, nil
	}

	var a model.StoredArticle
	err := r.db.QueryRowContext(ctx, `
		SELECT a.id, a.title, a.description, a.content, a.url, a.source,
			COALESCE(ft.full_text, ''), a.created_at, a.updated_at
		FROM article a
		LEFT JOIN article_full_text ft ON ft.article_id = a.id
		WHERE a.url = $1
	`, url).Scan(&a.ID, &a.Title, &a.Description, &a.Content, &a.URL, &a.Source,
		&a.FullText, &a.CreatedAt, &a.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &a, nil
}

// SaveArticle upserts on url. The full text is written only when set, so
// a later save without one keeps the stored text.
func (r *ArticleRepository) SaveArticle(ctx context.Context, article *model.StoredArticle) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO article(title, description, content, url, source)
		VALUES($1, $2, $3, $4, $5)
		ON CONFLICT (url) DO UPDATE
		SET title = EXCLUDED.title,
			description = EXCLUDED.description,
			content = EXCLUDED.content,
			source = EXCLUDED.source,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, article.Title, article.Description, article.Content, article.URL, article.Source).
		Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt)
	if err != nil {
		return err
	}

	if article.FullText != "" {
		if err := upsertFullText(ctx, tx, article.ID, article.FullText); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveFullText stores text for an already saved article. It reports false
// when no article with that url exists.
func (r *ArticleRepository) SaveFullText(ctx context.Context, url, text string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM article WHERE url = $1`, url).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := upsertFullText(ctx, tx, id, text); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func upsertFullText(ctx context.Context, tx *sql.Tx, articleID int64, text string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO article_full_text(article_id, full_text)
		VALUES($1, $2)
		ON CONFLICT (article_id) DO UPDATE
		SET full_text = EXCLUDED.full_text, updated_at = NOW()
	`, articleID, text)
	return err
}

// SearchByTopic matches the topic against title, description and content,
// newest first.
func (r *ArticleRepository) SearchByTopic(ctx context.Context, topic string, limit int) ([]news.Article, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.title, a.description, a.content, a.url, a.source, COALESCE(ft.full_text, '')
		FROM article a
		LEFT JOIN article_full_text ft ON ft.article_id = a.id
		WHERE a.title ILIKE '%' || $1 || '%'
			OR a.description ILIKE '%' || $1 || '%'
			OR a.content ILIKE '%' || $1 || '%'
		ORDER BY a.updated_at DESC
		LIMIT $2
	`, topic, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []news.Article
	for rows.Next() {
		var a news.Article
		if err := rows.Scan(&a.Title, &a.Description, &a.Content, &a.URL, &a.Source, &a.FullText); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return articles, nil
}

func (r *ArticleRepository) GetArticles(ctx context.Context, limit, offset int) ([]model.StoredArticle, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.title, a.description, a.content, a.url, a.source,
			COALESCE(ft.full_text, ''), a.created_at, a.updated_at
		FROM article a
		LEFT JOIN article_full_text ft ON ft.article_id = a.id
		ORDER BY a.updated_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []model.StoredArticle
	for rows.Next() {
		var a model.StoredArticle
		err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.Content, &a.URL, &a.Source,
			&a.FullText, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return articles, nil
}

func (r *ArticleRepository) GetArticleTotal(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM article
	`).Scan(&total)
	return total, err
}
