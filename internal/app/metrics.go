package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hyperifyio/gooptimize/internal/extract"
	"github.com/hyperifyio/gooptimize/internal/search"
)

// Metrics counts batch outcomes in a private registry that is written once,
// at the end of a run, in the node-exporter textfile format.
type Metrics struct {
	registry    *prometheus.Registry
	articles    *prometheus.CounterVec
	references  *prometheus.CounterVec
	extractions *prometheus.CounterVec
	lastRun     prometheus.Gauge
	duration    prometheus.Gauge
	started     time.Time
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		articles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gooptimize_articles_processed_total",
			Help: "Articles that reached a terminal state, by outcome",
		}, []string{"outcome"}),
		references: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gooptimize_references_resolved_total",
			Help: "Reference URLs returned by the resolver, by search provider",
		}, []string{"provider"}),
		extractions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gooptimize_extractions_total",
			Help: "Successful reference extractions, by tier",
		}, []string{"tier"}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "gooptimize_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		duration: f.NewGauge(prometheus.GaugeOpts{
			Name: "gooptimize_last_run_duration_seconds",
			Help: "Wall-clock duration of the last run",
		}),
		started: time.Now(),
	}
}

func (m *Metrics) observeOutcome(s State) {
	if m == nil {
		return
	}
	m.articles.WithLabelValues(string(s)).Inc()
}

func (m *Metrics) observeReferences(refs []search.Result) {
	if m == nil {
		return
	}
	for _, r := range refs {
		p := r.Source
		if p == "" {
			p = "unknown"
		}
		m.references.WithLabelValues(p).Inc()
	}
}

// ObserveExtraction matches extract.Extractor.Observe.
func (m *Metrics) ObserveExtraction(t extract.Tier) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(string(t)).Inc()
}

// WriteTextfile stamps the run gauges and writes every metric to path.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	now := time.Now()
	m.lastRun.Set(float64(now.Unix()))
	m.duration.Set(now.Sub(m.started).Seconds())
	return prometheus.WriteToTextfile(path, m.registry)
}
