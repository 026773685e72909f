// Package metrics exposes pipeline counters for the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the registered collectors. A nil *Metrics is a valid
// no-op receiver so the pipeline can run without a registry in tests.
type Metrics struct {
	PipelineRuns     *prometheus.CounterVec
	ArticlesFetched  prometheus.Counter
	ArticlesSent     prometheus.Counter
	ArticlesFailed   prometheus.Counter
	ArticlesSkipped  prometheus.Counter
	DeliveryAttempts *prometheus.CounterVec
}

// New registers the pipeline collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "afrpush_pipeline_runs_total",
			Help: "Pipeline runs by outcome (ok or error).",
		}, []string{"outcome"}),
		ArticlesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "afrpush_articles_fetched_total",
			Help: "Articles fetched from the source.",
		}),
		ArticlesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "afrpush_articles_sent_total",
			Help: "Articles marked sent.",
		}),
		ArticlesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "afrpush_articles_failed_total",
			Help: "Articles marked failed.",
		}),
		ArticlesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "afrpush_articles_skipped_total",
			Help: "Articles skipped as already sent.",
		}),
		DeliveryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "afrpush_delivery_attempts_total",
			Help: "Delivery attempts by channel and result.",
		}, []string{"channel", "result"}),
	}
	reg.MustRegister(
		m.PipelineRuns,
		m.ArticlesFetched,
		m.ArticlesSent,
		m.ArticlesFailed,
		m.ArticlesSkipped,
		m.DeliveryAttempts,
	)
	return m
}

// ObserveRun records one pipeline run and its per-article tallies.
func (m *Metrics) ObserveRun(ok bool, fetched, sent, failed, skipped int) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.PipelineRuns.WithLabelValues(outcome).Inc()
	m.ArticlesFetched.Add(float64(fetched))
	m.ArticlesSent.Add(float64(sent))
	m.ArticlesFailed.Add(float64(failed))
	m.ArticlesSkipped.Add(float64(skipped))
}

// ObserveDelivery records one delivery attempt.
func (m *Metrics) ObserveDelivery(channel string, success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.DeliveryAttempts.WithLabelValues(channel, result).Inc()
}
