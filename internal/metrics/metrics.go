package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts pipeline outcomes per ingestion run.
type Metrics struct {
	registry *prometheus.Registry

	ArticlesInserted    *prometheus.CounterVec
	ArticlesSkipped     *prometheus.CounterVec
	CandidateFailures   *prometheus.CounterVec
	SourceFailures      *prometheus.CounterVec
	EnrichmentFallbacks prometheus.Counter
}

// New builds a self-contained metrics set on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		ArticlesInserted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carnewsbot_articles_inserted_total",
			Help: "Articles persisted, per source.",
		}, []string{"source"}),
		ArticlesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carnewsbot_articles_skipped_total",
			Help: "Candidates skipped as duplicates, per source.",
		}, []string{"source"}),
		CandidateFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carnewsbot_candidate_failures_total",
			Help: "Candidates dropped by a processing error, per source.",
		}, []string{"source"}),
		SourceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carnewsbot_source_failures_total",
			Help: "Listing scans that failed outright, per source.",
		}, []string{"source"}),
		EnrichmentFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "carnewsbot_enrichment_fallbacks_total",
			Help: "Articles persisted without enrichment after a generation failure.",
		}),
	}
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
