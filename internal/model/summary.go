package model

import "time"

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Briefing is a persisted structured report. Pending and failed rows come
// from async jobs and carry empty summaries.
type Briefing struct {
	ID                     int64
	RequestID              string
	Topic                  string
	MaxArticles            int
	Status                 string
	ArticleCount           int
	PositiveOpinion        string
	NegativeConcern        string
	ConstructiveSuggestion string
	ProcessingTime         string
	AttemptedArticles      int
	SkipReasons            []string
	AggregationError       string
	ErrorMessage           string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
