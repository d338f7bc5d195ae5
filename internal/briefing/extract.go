package briefing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"pulsebrief/internal/metrics"
	"pulsebrief/pkg/llm"
	"pulsebrief/pkg/news"
)

type ExtractorConfig struct {
	Workers      int
	CallTimeout  time.Duration
	ExcerptChars int
}

// Extractor classifies each article independently and merges the labeled
// snippets into three deduplicated sets. A failing article is skipped and
// recorded; it never aborts the others.
type Extractor struct {
	oracle Oracle
	cfg    ExtractorConfig
	logger *slog.Logger
}

func NewExtractor(oracle Oracle, cfg ExtractorConfig, logger *slog.Logger) *Extractor {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{oracle: oracle, cfg: cfg, logger: logger}
}

type articleOutcome struct {
	attempted bool
	result    *extractionResponse
	skip      *Skip
}

func (e *Extractor) Extract(ctx context.Context, articles []news.Article, topic, requestID string) Extraction {
	log := e.logger.With("request_id", requestID)

	if len(articles) == 0 {
		log.Warn("article list is empty, nothing to extract")
		return Extraction{}
	}

	log.Info("extracting structured content", "articles", len(articles), "workers", e.cfg.Workers)

	// Each goroutine owns one slot; results are folded after Wait.
	outcomes := make([]articleOutcome, len(articles))

	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for i := range articles {
		g.Go(func() error {
			outcomes[i] = e.extractOne(ctx, log, i, len(articles), articles[i], topic)
			return nil
		})
	}
	_ = g.Wait()

	var (
		out Extraction
		acc = newAccumulator()
	)
	for _, o := range outcomes {
		if o.attempted {
			out.Attempted++
		}
		if o.skip != nil {
			out.Skipped = append(out.Skipped, *o.skip)
			metrics.ArticlesSkipped.WithLabelValues(string(o.skip.Reason)).Inc()
			continue
		}
		acc.add(o.result)
	}
	out.Snippets = acc.snippets()

	log.Info("structured extraction complete",
		"positive", len(out.Snippets.Positive),
		"negative", len(out.Snippets.Negative),
		"constructive", len(out.Snippets.Constructive),
		"attempted", out.Attempted,
		"skipped", len(out.Skipped),
	)

	return out
}

func (e *Extractor) extractOne(ctx context.Context, log *slog.Logger, idx, total int, article news.Article, topic string) (out articleOutcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic while processing article: %v", r)
			log.Error("article extraction panicked", "article", idx+1, "total", total, "error", err)
			out = articleOutcome{attempted: out.attempted, skip: &Skip{Index: idx, Reason: SkipPanic, Err: err}}
		}
	}()

	title := strings.TrimSpace(article.Title)
	description := strings.TrimSpace(article.Description)
	if title == "" && description == "" {
		log.Warn("skipping article without title and description", "article", idx+1, "total", total)
		return articleOutcome{skip: &Skip{Index: idx, Reason: SkipEmpty}}
	}

	prompt := buildExtractionPrompt(topic, title, description, article.FullText, e.cfg.ExcerptChars)

	callCtx := ctx
	if e.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.cfg.CallTimeout)
		defer cancel()
	}

	log.Info("calling oracle for article", "article", idx+1, "total", total)
	out.attempted = true

	content, err := e.oracle.Generate(callCtx, prompt)
	if err != nil {
		metrics.OracleCalls.WithLabelValues(metrics.StageExtract, metrics.OutcomeCallError).Inc()
		log.Error("oracle call failed for article", "article", idx+1, "error", err)
		return articleOutcome{attempted: true, skip: &Skip{Index: idx, Reason: SkipOracle, Err: err}}
	}

	parsed, err := decodeExtraction(content)
	if err != nil {
		metrics.OracleCalls.WithLabelValues(metrics.StageExtract, metrics.OutcomeParseError).Inc()
		log.Error("failed to parse extraction response", "article", idx+1, "error", err, "content", content)
		return articleOutcome{attempted: true, skip: &Skip{Index: idx, Reason: SkipParse, Err: err}}
	}

	metrics.OracleCalls.WithLabelValues(metrics.StageExtract, metrics.OutcomeOK).Inc()
	log.Debug("parsed article extraction", "article", idx+1,
		"positive", len(parsed.PositiveOpinions),
		"negative", len(parsed.NegativeConcerns),
		"constructive", len(parsed.ConstructiveSuggestions),
	)

	return articleOutcome{attempted: true, result: parsed}
}

type extractionResponse struct {
	PositiveOpinions        snippetList `json:"positive_opinions"`
	NegativeConcerns        snippetList `json:"negative_concerns"`
	ConstructiveSuggestions snippetList `json:"constructive_suggestions"`
}

// snippetList decodes a JSON array of strings. Anything else (missing,
// null, an object, a bare string) decodes as an empty list, and non-string
// or blank elements are dropped.
type snippetList []string

func (l *snippetList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = nil
		return nil
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
	}
	*l = out
	return nil
}

var errNotObject = errors.New("response is not a JSON object")

func decodeExtraction(content string) (*extractionResponse, error) {
	cleaned := llm.CleanJSONResponse(content)
	if !strings.HasPrefix(cleaned, "{") {
		return nil, &ParseError{Stage: metrics.StageExtract, Content: content, Err: errNotObject}
	}

	var parsed extractionResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, &ParseError{Stage: metrics.StageExtract, Content: content, Err: err}
	}
	return &parsed, nil
}

// accumulator merges per-article lists, keeping the first occurrence of
// each exact string.
type accumulator struct {
	positive, negative, constructive dedupList
}

func newAccumulator() *accumulator {
	return &accumulator{
		positive:     newDedupList(),
		negative:     newDedupList(),
		constructive: newDedupList(),
	}
}

func (a *accumulator) add(r *extractionResponse) {
	if r == nil {
		return
	}
	a.positive.add(r.PositiveOpinions...)
	a.negative.add(r.NegativeConcerns...)
	a.constructive.add(r.ConstructiveSuggestions...)
}

func (a *accumulator) snippets() Snippets {
	return Snippets{
		Positive:     a.positive.items,
		Negative:     a.negative.items,
		Constructive: a.constructive.items,
	}
}

type dedupList struct {
	seen  map[string]struct{}
	items []string
}

func newDedupList() dedupList {
	return dedupList{seen: make(map[string]struct{})}
}

func (d *dedupList) add(items ...string) {
	for _, item := range items {
		if _, ok := d.seen[item]; ok {
			continue
		}
		d.seen[item] = struct{}{}
		d.items = append(d.items, item)
	}
}
