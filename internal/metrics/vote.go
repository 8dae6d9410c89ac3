package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// VoteMetrics counts RateItem outcomes and their latency.
type VoteMetrics struct {
	VotesProcessed     *prometheus.CounterVec
	ProcessingDuration prometheus.Histogram
}

func NewVoteMetrics(reg prometheus.Registerer) *VoteMetrics {
	m := &VoteMetrics{
		VotesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_processed_total",
			Help:      "Total number of votes processed, by result.",
		}, []string{"result"}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "votes_processing_duration_seconds",
			Help:      "Duration of vote processing in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
	}

	reg.MustRegister(m.VotesProcessed, m.ProcessingDuration)
	return m
}

// ObserveVote satisfies service.VoteObserver.
func (m *VoteMetrics) ObserveVote(result string, elapsed time.Duration) {
	m.VotesProcessed.WithLabelValues(result).Inc()
	m.ProcessingDuration.Observe(elapsed.Seconds())
}
