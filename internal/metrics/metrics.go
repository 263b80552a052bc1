package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

const namespace = "trailprint"

// Metrics holds every collector the service exports on /metrics.
type Metrics struct {
	Registry *prometheus.Registry

	Reports          *prometheus.CounterVec // by route and outcome
	TraccarPushes    *prometheus.CounterVec // by outcome
	PhotoLookups     *prometheus.CounterVec // by result: hit, miss
	DocumentsPrinted prometheus.Counter
	ReportsArchived  prometheus.Counter
	PDFGeneration    prometheus.Histogram
}

// New builds a private registry with the service collectors, the Go runtime and process
// collectors, and the host collector when any host metric is enabled.
func New(host HostConfig, logger zerolog.Logger) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Location reports handled.",
		}, []string{"route", "outcome"}),
		TraccarPushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traccar_pushes_total",
			Help:      "Points pushed to the tracking server.",
		}, []string{"outcome"}),
		PhotoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_cache_lookups_total",
			Help:      "Photo cache lookups by result.",
		}, []string{"result"}),
		DocumentsPrinted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_printed_total",
			Help:      "Documents submitted to the printer.",
		}),
		ReportsArchived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_archived_total",
			Help:      "Report PDFs uploaded to object storage.",
		}),
		PDFGeneration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pdf_generation_seconds",
			Help:      "Time spent laying out a report PDF.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
	}

	m.Registry.MustRegister(
		m.Reports,
		m.TraccarPushes,
		m.PhotoLookups,
		m.DocumentsPrinted,
		m.ReportsArchived,
		m.PDFGeneration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if host.Enabled() {
		m.Registry.MustRegister(NewHostCollector(host, logger))
	}

	return m
}

// ObservePushes records the outcome of a batch push.
func (m *Metrics) ObservePushes(accepted, total int) {
	m.TraccarPushes.WithLabelValues("accepted").Add(float64(accepted))
	m.TraccarPushes.WithLabelValues("failed").Add(float64(total - accepted))
}
