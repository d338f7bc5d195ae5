package briefing

import "pulsebrief/internal/model"

// Record converts a finished report into its stored form.
func (r *Report) Record(maxArticles int) *model.Briefing {
	b := &model.Briefing{
		RequestID:              r.RequestID,
		Topic:                  r.Topic,
		MaxArticles:            maxArticles,
		Status:                 model.StatusCompleted,
		ArticleCount:           r.ArticleCount,
		PositiveOpinion:        r.PositiveOpinion,
		NegativeConcern:        r.NegativeConcern,
		ConstructiveSuggestion: r.ConstructiveSuggestion,
		ProcessingTime:         r.ProcessingTime,
		AttemptedArticles:      r.Diagnostics.Attempted,
		SkipReasons:            make([]string, 0, len(r.Diagnostics.Skipped)),
	}
	for _, s := range r.Diagnostics.Skipped {
		b.SkipReasons = append(b.SkipReasons, string(s.Reason))
	}
	if r.Diagnostics.AggregationErr != nil {
		b.AggregationError = r.Diagnostics.AggregationErr.Error()
	}
	return b
}
