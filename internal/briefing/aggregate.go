package briefing

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"pulsebrief/internal/metrics"
	"pulsebrief/pkg/llm"
)

// Aggregator turns the three snippet sets into one paragraph each with a
// single oracle call. Any failure yields three empty strings.
type Aggregator struct {
	oracle      Oracle
	callTimeout time.Duration
	logger      *slog.Logger
}

func NewAggregator(oracle Oracle, callTimeout time.Duration, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{oracle: oracle, callTimeout: callTimeout, logger: logger}
}

type aggregationResponse struct {
	PositiveOpinions        string `json:"positive_opinions"`
	NegativeConcerns        string `json:"negative_concerns"`
	ConstructiveSuggestions string `json:"constructive_suggestions"`
}

func (a *Aggregator) Summarize(ctx context.Context, snippets Snippets, topic, requestID string) Summary {
	log := a.logger.With("request_id", requestID)
	log.Info("summarizing structured content",
		"positive", len(snippets.Positive),
		"negative", len(snippets.Negative),
		"constructive", len(snippets.Constructive),
	)

	prompt := buildAggregationPrompt(topic, snippets)

	callCtx := ctx
	if a.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.callTimeout)
		defer cancel()
	}

	content, err := a.oracle.Generate(callCtx, prompt)
	if err != nil {
		metrics.OracleCalls.WithLabelValues(metrics.StageAggregate, metrics.OutcomeCallError).Inc()
		log.Error("oracle call failed during aggregation", "error", err)
		return Summary{Err: err}
	}

	parsed, err := decodeAggregation(content)
	if err != nil {
		metrics.OracleCalls.WithLabelValues(metrics.StageAggregate, metrics.OutcomeParseError).Inc()
		log.Error("failed to parse aggregation response", "error", err, "content", content)
		return Summary{Err: err}
	}

	metrics.OracleCalls.WithLabelValues(metrics.StageAggregate, metrics.OutcomeOK).Inc()
	log.Info("structured summary complete")

	return Summary{
		Positive:     strings.TrimSpace(parsed.PositiveOpinions),
		Negative:     strings.TrimSpace(parsed.NegativeConcerns),
		Constructive: strings.TrimSpace(parsed.ConstructiveSuggestions),
	}
}

func decodeAggregation(content string) (*aggregationResponse, error) {
	cleaned := llm.CleanJSONResponse(content)
	if !strings.HasPrefix(cleaned, "{") {
		return nil, &ParseError{Stage: metrics.StageAggregate, Content: content, Err: errNotObject}
	}

	var parsed aggregationResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, &ParseError{Stage: metrics.StageAggregate, Content: content, Err: err}
	}
	return &parsed, nil
}
