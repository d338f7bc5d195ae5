package model

import "time"

// StoredArticle is an article row joined with its full text, if any.
type StoredArticle struct {
	ID          int64
	Title       string
	Description string
	Content     string
	URL         string
	Source      string
	FullText    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
