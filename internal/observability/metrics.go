// Package observability owns devlog's Prometheus collectors.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	streakRecomputes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devlog",
		Subsystem: "streak",
		Name:      "recomputes_total",
		Help:      "Streak recomputations by outcome (ok, fetch_error, write_error).",
	}, []string{"outcome"})
	streakRecomputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "devlog",
		Subsystem: "streak",
		Name:      "recompute_duration_seconds",
		Help:      "Time spent fetching events, computing and persisting one streak.",
		Buckets:   prometheus.DefBuckets,
	})
	challengeEvaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devlog",
		Subsystem: "challenge",
		Name:      "evaluations_total",
		Help:      "Challenge progress evaluations by outcome (ok, default, fetch_error).",
	}, []string{"outcome"})
	challengeWindowsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "devlog",
		Subsystem: "challenge",
		Name:      "windows_created_total",
		Help:      "Challenge windows created by admins.",
	})
	invariantViolations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devlog",
		Name:      "invariant_violations_total",
		Help:      "Data invariants found broken on read and recovered from.",
	}, []string{"kind"})
	sweepLastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "devlog",
		Subsystem: "sweep",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the most recent nightly streak sweep.",
	})
	sweepUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "devlog",
		Subsystem: "sweep",
		Name:      "users_recomputed",
		Help:      "Users recomputed by the most recent nightly sweep.",
	})
)

func init() {
	prometheus.MustRegister(
		streakRecomputes,
		streakRecomputeDuration,
		challengeEvaluations,
		challengeWindowsCreated,
		invariantViolations,
		sweepLastRun,
		sweepUsers,
	)
}

// RecordRecompute counts one streak recompute and observes its latency.
func RecordRecompute(outcome string, took time.Duration) {
	streakRecomputes.WithLabelValues(outcome).Inc()
	streakRecomputeDuration.Observe(took.Seconds())
}

// RecordEvaluation counts one challenge progress evaluation.
func RecordEvaluation(outcome string) {
	challengeEvaluations.WithLabelValues(outcome).Inc()
}

// RecordWindowCreated counts a newly activated challenge window.
func RecordWindowCreated() {
	challengeWindowsCreated.Inc()
}

// RecordInvariantViolation counts a broken invariant detected on read.
func RecordInvariantViolation(kind string) {
	invariantViolations.WithLabelValues(kind).Inc()
}

// RecordSweep updates the nightly sweep gauges.
func RecordSweep(ts time.Time, users int) {
	if ts.IsZero() {
		return
	}
	sweepLastRun.Set(float64(ts.Unix()))
	sweepUsers.Set(float64(users))
}
