// Package metrics holds the Prometheus collectors shared by the briefing
// pipeline and its binaries.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pulsebrief"

var (
	OracleCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "oracle_calls_total",
		Help:      "Text-generation calls by pipeline stage and outcome.",
	}, []string{"stage", "outcome"})

	ArticlesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "articles_skipped_total",
		Help:      "Articles that contributed nothing to extraction, by reason.",
	}, []string{"reason"})

	Briefings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "briefings_total",
		Help:      "Structured briefing runs by final status.",
	}, []string{"status"})

	BriefingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "briefing_duration_seconds",
		Help:      "Wall time of a structured briefing run.",
		Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160, 320},
	})

	FullTextFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fulltext_fetches_total",
		Help:      "Full-text enrichment lookups by result (store, cache, fetched, empty, failed).",
	}, []string{"result"})
)

const (
	StageExtract   = "extract"
	StageAggregate = "aggregate"

	OutcomeOK         = "ok"
	OutcomeCallError  = "call_error"
	OutcomeParseError = "parse_error"
)

func Handler() http.Handler {
	return promhttp.Handler()
}
