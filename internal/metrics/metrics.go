package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shapedtime/tvscraper/internal/library"
	"github.com/shapedtime/tvscraper/internal/resolve"
)

const namespace = "tvscraper"

// Metrics holds store and resolution metrics. It is registered as the store
// observer and the engine recorder.
type Metrics struct {
	Mutations          *prometheus.CounterVec
	MutationErrors     *prometheus.CounterVec
	Resolutions        *prometheus.CounterVec
	ResolutionDuration *prometheus.HistogramVec
	ResolutionWinners  *prometheus.HistogramVec
	CandidatesSkipped  *prometheus.CounterVec
}

// Compile-time verification
var (
	_ library.Observer = (*Metrics)(nil)
	_ resolve.Recorder = (*Metrics)(nil)
)

// New creates and registers metrics with the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Store mutations by node kind and operation.",
		}, []string{"kind", "op"}),
		MutationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "mutation_errors_total",
			Help:      "Store mutations that failed, by node kind and operation.",
		}, []string{"kind", "op"}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "runs_total",
			Help:      "Best-file resolutions by scope (episode or season).",
		}, []string{"scope"}),
		ResolutionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "duration_seconds",
			Help:      "Duration of best-file resolutions.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"scope"}),
		ResolutionWinners: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "winners",
			Help:      "Number of files returned per resolution.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50},
		}, []string{"scope"}),
		CandidatesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "candidates_skipped_total",
			Help:      "Candidate files skipped during resolution, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.Mutations,
		m.MutationErrors,
		m.Resolutions,
		m.ResolutionDuration,
		m.ResolutionWinners,
		m.CandidatesSkipped,
	)

	return m
}

// ObserveMutation implements library.Observer.
func (m *Metrics) ObserveMutation(kind library.Kind, op string, err error) {
	m.Mutations.WithLabelValues(string(kind), op).Inc()
	if err != nil {
		m.MutationErrors.WithLabelValues(string(kind), op).Inc()
	}
}

// ResolutionDone implements resolve.Recorder.
func (m *Metrics) ResolutionDone(scope string, winners int, elapsed time.Duration) {
	m.Resolutions.WithLabelValues(scope).Inc()
	m.ResolutionDuration.WithLabelValues(scope).Observe(elapsed.Seconds())
	m.ResolutionWinners.WithLabelValues(scope).Observe(float64(winners))
}

// CandidateSkipped implements resolve.Recorder.
func (m *Metrics) CandidateSkipped(reason string) {
	m.CandidatesSkipped.WithLabelValues(reason).Inc()
}
