package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDiscarded = "discarded"
)

// Metrics registers into its own registry rather than the global default,
// so several boards (and tests) never collide.
type Metrics struct {
	registry *prometheus.Registry

	analyses       *prometheus.CounterVec
	renders        *prometheus.CounterVec
	renderDuration prometheus.Histogram
	reselections   prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		analyses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storyboard_analyses_total",
				Help: "Script analyses by outcome.",
			},
			[]string{"outcome"},
		),
		renders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storyboard_renders_total",
				Help: "Shot renders by outcome.",
			},
			[]string{"outcome"},
		),
		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "storyboard_render_duration_seconds",
			Help:    "Duration of image generation requests.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80},
		}),
		reselections: factory.NewCounter(prometheus.CounterOpts{
			Name: "storyboard_credential_reselections_total",
			Help: "Times the credential selector was opened after an authorization failure.",
		}),
	}
}

func (m *Metrics) AnalysisFinished(outcome string) {
	m.analyses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RenderFinished(outcome string, took time.Duration) {
	m.renders.WithLabelValues(outcome).Inc()
	m.renderDuration.Observe(took.Seconds())
}

func (m *Metrics) CredentialReselected() {
	m.reselections.Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
