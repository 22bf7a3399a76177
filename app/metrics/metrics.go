// Package metrics provides Prometheus metrics for the content pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "contents_ops"

var (
	// LLMCallsTotal counts completion calls by provider, step kind and outcome.
	LLMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Total number of completion calls",
		},
		[]string{"provider", "step", "outcome"},
	)

	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_duration_seconds",
			Help:      "Duration of completion calls in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
		[]string{"provider", "step"},
	)

	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Total tokens reported by the completion endpoint",
		},
		[]string{"direction"},
	)

	LLMRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_overload_retries_total",
			Help:      "Total retries caused by an overloaded endpoint",
		},
	)

	// ChannelRunsTotal counts per-channel pipeline outcomes.
	ChannelRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_runs_total",
			Help:      "Total number of channel generations",
		},
		[]string{"channel", "status"},
	)

	ReviewIssuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "review_issues_total",
			Help:      "Total review issues by severity and category",
		},
		[]string{"severity", "category"},
	)

	HookFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hook_failures_total",
			Help:      "Total post-generation hook failures",
		},
	)
)

// RecordLLMCall records one completion call.
func RecordLLMCall(provider, step, outcome string, duration time.Duration) {
	LLMCallsTotal.WithLabelValues(provider, step, outcome).Inc()
	LLMCallDuration.WithLabelValues(provider, step).Observe(duration.Seconds())
}

func RecordTokens(input, output int64) {
	LLMTokensTotal.WithLabelValues("input").Add(float64(input))
	LLMTokensTotal.WithLabelValues("output").Add(float64(output))
}

func RecordRetry() {
	LLMRetriesTotal.Inc()
}

func RecordChannelRun(channel, status string) {
	ChannelRunsTotal.WithLabelValues(channel, status).Inc()
}

func RecordReviewIssue(severity, category string) {
	ReviewIssuesTotal.WithLabelValues(severity, category).Inc()
}

func RecordHookFailure() {
	HookFailuresTotal.Inc()
}
