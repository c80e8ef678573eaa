package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the Prometheus instruments for the turn pipeline. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Turns          *prometheus.CounterVec
	Transcriptions *prometheus.CounterVec
	Replies        *prometheus.CounterVec
	Syntheses      *prometheus.CounterVec
	StageLatency   *prometheus.HistogramVec
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Turns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Turns by outcome.",
		}, []string{"outcome"}),
		Transcriptions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_total",
			Help:      "Transcription results by kind.",
		}, []string{"kind"}),
		Replies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Replies by the branch that produced them.",
		}, []string{"source"}),
		Syntheses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "syntheses_total",
			Help:      "Speech synthesis requests by result.",
		}, []string{"result"}),
		StageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_latency_ms",
			Help:      "Latency of pipeline stages in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000},
		}, []string{"stage"}),
	}
}

func (m *Metrics) TurnDone(outcome string) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Transcribed(kind string) {
	if m == nil {
		return
	}
	m.Transcriptions.WithLabelValues(kind).Inc()
}

func (m *Metrics) Replied(source string) {
	if m == nil {
		return
	}
	m.Replies.WithLabelValues(source).Inc()
}

func (m *Metrics) Synthesized(result string) {
	if m == nil {
		return
	}
	m.Syntheses.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageLatency.WithLabelValues(stage).Observe(float64(d.Milliseconds()))
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
