package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wifiprov"

// Recorder records provisioning session metrics.
type Recorder struct {
	sessionsTotal   *prometheus.CounterVec
	outcomesTotal   *prometheus.CounterVec
	eventsRouted    *prometheus.CounterVec
	sessionDuration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder and registers its collectors on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		sessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_total",
				Help:      "Total number of provisioning sessions started by scheme",
			},
			[]string{"scheme"},
		),
		outcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outcomes_total",
				Help:      "Total number of finished provisioning sessions by scheme and outcome",
			},
			[]string{"scheme", "outcome"},
		),
		eventsRouted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_routed_total",
				Help:      "Total number of events delivered to the router by namespace and event id",
			},
			[]string{"namespace", "event"},
		),
		sessionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "session_duration_seconds",
				Help:      "Duration of provisioning sessions in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10), // 500ms to ~4min
			},
			[]string{"scheme"},
		),
	}

	for _, c := range []prometheus.Collector{r.sessionsTotal, r.outcomesTotal, r.eventsRouted, r.sessionDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Must is like NewRecorder but panics on registration failure.
func Must(reg prometheus.Registerer) *Recorder {
	r, err := NewRecorder(reg)
	if err != nil {
		panic(err)
	}
	return r
}

// SessionStarted counts a session that passed setup.
func (r *Recorder) SessionStarted(scheme string) {
	if r == nil {
		return
	}
	r.sessionsTotal.WithLabelValues(scheme).Inc()
}

// SessionFinished counts the outcome and observes the session duration.
func (r *Recorder) SessionFinished(scheme, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.outcomesTotal.WithLabelValues(scheme, outcome).Inc()
	r.sessionDuration.WithLabelValues(scheme).Observe(d.Seconds())
}

// EventRouted counts an event delivered to the router.
func (r *Recorder) EventRouted(namespace, eventID string) {
	if r == nil {
		return
	}
	r.eventsRouted.WithLabelValues(namespace, eventID).Inc()
}
