package briefing

import (
	"context"

	"pulsebrief/pkg/news"
)

// Oracle is the single call contract the pipeline needs from a
// text-generation backend. llm.Generator satisfies it.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type ArticleSource interface {
	Fetch(ctx context.Context, topic string, limit int) ([]news.Article, error)
}

// Enricher fills in optional data (full page text) on fetched articles.
// It must not fail the request; articles it cannot enrich come back as-is.
type Enricher interface {
	Enrich(ctx context.Context, requestID string, articles []news.Article) []news.Article
}

type Request struct {
	Topic       string
	MaxArticles int
}

// Snippets holds the deduplicated extraction output per category.
type Snippets struct {
	Positive     []string
	Negative     []string
	Constructive []string
}

func (s Snippets) Empty() bool {
	return len(s.Positive) == 0 && len(s.Negative) == 0 && len(s.Constructive) == 0
}

type SkipReason string

const (
	SkipEmpty  SkipReason = "empty"
	SkipOracle SkipReason = "oracle_error"
	SkipParse  SkipReason = "parse_error"
	SkipPanic  SkipReason = "panic"
)

// Skip records an article that contributed nothing to extraction.
type Skip struct {
	Index  int
	Reason SkipReason
	Err    error
}

type Extraction struct {
	Snippets  Snippets
	Attempted int
	Skipped   []Skip
}

type Summary struct {
	Positive     string
	Negative     string
	Constructive string
	// Err is set when aggregation failed closed; the three strings are then empty.
	Err error
}

type Diagnostics struct {
	Attempted      int
	Skipped        []Skip
	AggregationErr error
}

type Report struct {
	RequestID              string `json:"request_id" yaml:"request_id"`
	Topic                  string `json:"topic" yaml:"topic"`
	ArticleCount           int    `json:"article_count" yaml:"article_count"`
	PositiveOpinion        string `json:"positive_opinion" yaml:"positive_opinion"`
	NegativeConcern        string `json:"negative_concern" yaml:"negative_concern"`
	ConstructiveSuggestion string `json:"constructive_suggestion" yaml:"constructive_suggestion"`
	ProcessingTime         string `json:"processing_time" yaml:"processing_time"`

	Diagnostics Diagnostics `json:"-" yaml:"-"`
}
