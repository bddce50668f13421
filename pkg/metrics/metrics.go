package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ff"

// Metrics holds the pipeline collectors on a private registry
// ⭐ SSOT: 메트릭 정의는 여기서만 (stage 라벨은 contracts.Stage 문자열)
type Metrics struct {
	registry      *prometheus.Registry
	stageRows     *prometheus.GaugeVec
	stageDuration *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stageRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_rows",
			Help:      "Rows entering or leaving a pipeline stage in the last run.",
		}, []string{"stage", "direction"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage wall time.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"stage"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"status"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}

	m.registry.MustRegister(m.stageRows, m.stageDuration, m.runs, m.lastSuccess)
	return m
}

// ObserveStage records one stage summary. Safe on a nil receiver.
func (m *Metrics) ObserveStage(stage string, inputRows, outputRows int, d time.Duration) {
	if m == nil {
		return
	}
	m.stageRows.WithLabelValues(stage, "input").Set(float64(inputRows))
	m.stageRows.WithLabelValues(stage, "output").Set(float64(outputRows))
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RunFinished counts a run outcome. Safe on a nil receiver.
func (m *Metrics) RunFinished(success bool, at time.Time) {
	if m == nil {
		return
	}
	if !success {
		m.runs.WithLabelValues("failure").Inc()
		return
	}
	m.runs.WithLabelValues("success").Inc()
	m.lastSuccess.Set(float64(at.Unix()))
}

// Registry exposes the underlying registry (tests, extra collectors)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
