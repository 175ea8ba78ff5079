package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for moderation and appeals.
type Metrics struct {
	// Verdicts by evaluator outcome
	Verdicts *prometheus.CounterVec

	// Submission results (Accepted, Penalized, Blacklisted, Rejected)
	Results *prometheus.CounterVec

	// Strikes issued
	Strikes prometheus.Counter

	// Blacklistings by reason
	Blacklistings *prometheus.CounterVec

	// Appeal reviews by decision
	AppealReviews *prometheus.CounterVec

	// Attestation evaluation latency, including the prover round trip
	EvaluateLatency prometheus.Histogram
}

// New registers the moderation metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reserveguard_verdicts_total",
			Help: "Attestation verdicts by outcome",
		}, []string{"verdict"}),

		Results: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reserveguard_submission_results_total",
			Help: "Submission results after moderation",
		}, []string{"result"}),

		Strikes: factory.NewCounter(prometheus.CounterOpts{
			Name: "reserveguard_strikes_total",
			Help: "Strikes issued for adverse verdicts",
		}),

		Blacklistings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reserveguard_blacklistings_total",
			Help: "Participants blacklisted by reason",
		}, []string{"reason"}),

		AppealReviews: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reserveguard_appeal_reviews_total",
			Help: "Appeal reviews by decision",
		}, []string{"decision"}), // decision: "approved", "rejected"

		EvaluateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "reserveguard_evaluate_duration_seconds",
			Help:    "Duration of attestation evaluation including the prover",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
		}),
	}
}

func (m *Metrics) IncrementVerdict(verdict string) {
	if m != nil {
		m.Verdicts.WithLabelValues(verdict).Inc()
	}
}

func (m *Metrics) IncrementResult(result string) {
	if m != nil {
		m.Results.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncrementStrike() {
	if m != nil {
		m.Strikes.Inc()
	}
}

func (m *Metrics) IncrementBlacklisting(reason string) {
	if m != nil {
		m.Blacklistings.WithLabelValues(reason).Inc()
	}
}

// IncrementAppealReview records a review decision.
func (m *Metrics) IncrementAppealReview(approved bool) {
	if m == nil {
		return
	}
	decision := "rejected"
	if approved {
		decision = "approved"
	}
	m.AppealReviews.WithLabelValues(decision).Inc()
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
