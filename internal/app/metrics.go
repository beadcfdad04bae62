package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelStatus = "status"

	statusSucceeded = "succeeded"
	statusFailed    = "failed"
)

var (
	TrialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kautsky",
		Subsystem: "worker",
		Name:      "trials_total",
	}, []string{LabelStatus})
	TrialSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kautsky",
		Subsystem: "worker",
		Name:      "trial_seconds",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16),
	})
	DescriptorsPushedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kautsky",
		Subsystem: "master",
		Name:      "descriptors_pushed_total",
	})
	ResultsReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kautsky",
		Subsystem: "master",
		Name:      "results_received_total",
	}, []string{LabelStatus})
	OverallScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kautsky",
		Subsystem: "master",
		Name:      "overall_score",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})
)
