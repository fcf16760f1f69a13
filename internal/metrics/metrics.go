// Package metrics defines the Prometheus collectors exported on the
// health endpoint.
package metrics

import (
	"github.com/HerbHall/gigagrok/pkg/llm"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestsTotal counts handled user messages by outcome
	// (ok, error, denied).
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gigagrok_requests_total",
			Help: "Total user messages handled, by outcome.",
		},
		[]string{"outcome"},
	)

	// RetriesTotal counts API call retries by reason
	// (rate_limited, transient).
	RetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gigagrok_retries_total",
			Help: "Total upstream API retries, by reason.",
		},
		[]string{"reason"},
	)

	// TokensTotal counts consumed tokens by kind
	// (prompt, completion, reasoning).
	TokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gigagrok_tokens_total",
			Help: "Total tokens consumed, by kind.",
		},
		[]string{"kind"},
	)

	// CostTotal accumulates estimated spend in USD.
	CostTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gigagrok_cost_usd_total",
			Help: "Estimated cumulative API spend in USD.",
		},
	)

	// ActiveStreams tracks in-flight streaming completions.
	ActiveStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gigagrok_active_streams",
			Help: "Streaming completions currently in flight.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RetriesTotal,
		TokensTotal,
		CostTotal,
		ActiveStreams,
	)
}

// ObserveCompletion records the token and cost counters for one finished
// interaction. Called from the event bus subscriber in main.
func ObserveCompletion(u llm.Usage, costUSD float64) {
	TokensTotal.WithLabelValues("prompt").Add(float64(u.PromptTokens))
	TokensTotal.WithLabelValues("completion").Add(float64(u.CompletionTokens))
	TokensTotal.WithLabelValues("reasoning").Add(float64(u.ReasoningTokens))
	CostTotal.Add(costUSD)
}
