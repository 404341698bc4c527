// Package metrics exposes Prometheus instrumentation for the voting core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the voting counters registered on one registry.
type Metrics struct {
	VotesCastTotal    prometheus.Counter
	CastRejectedTotal *prometheus.CounterVec
	ExtensionsTotal   prometheus.Counter
	TalliesTotal      prometheus.Counter
	TallyDuration     prometheus.Histogram
}

// New registers and returns the voting metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		VotesCastTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "agora_votes_cast_total",
			Help: "Total number of successfully cast votes",
		}),
		CastRejectedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "agora_votes_rejected_total",
			Help: "Total number of rejected cast attempts by reason",
		}, []string{"reason"}),
		ExtensionsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "agora_ballot_extensions_total",
			Help: "Total number of voting-window extensions granted",
		}),
		TalliesTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "agora_tallies_total",
			Help: "Total number of committed tally runs",
		}),
		TallyDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "agora_tally_duration_seconds",
			Help:    "Wall-clock duration of tally computations",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// CastRejected increments the rejection counter for one reason label.
func (m *Metrics) CastRejected(reason string) {
	m.CastRejectedTotal.WithLabelValues(reason).Inc()
}
