// Package usage converts raw token counters into cost estimates and the
// display footer appended to every completed answer.
package usage

import (
	"fmt"
	"math"
	"time"

	"github.com/HerbHall/gigagrok/pkg/llm"
)

// Default xAI pricing (USD per million tokens, as of 2026-02). Reasoning
// tokens are billed at the output rate.
const (
	DefaultInputPerM  = 0.20
	DefaultOutputPerM = 0.50
)

// Pricing holds per-million-token rates.
type Pricing struct {
	InputPerM  float64 `mapstructure:"input_per_m"`
	OutputPerM float64 `mapstructure:"output_per_m"`
}

// DefaultPricing returns the default xAI rates.
func DefaultPricing() Pricing {
	return Pricing{InputPerM: DefaultInputPerM, OutputPerM: DefaultOutputPerM}
}

// Cost returns the estimated USD cost for a single request, rounded to six
// decimal places. Reasoning tokens are added to completion tokens and
// billed together at the output rate, not separately.
func (p Pricing) Cost(u llm.Usage) float64 {
	in := float64(u.PromptTokens) / 1e6 * p.InputPerM
	out := float64(u.CompletionTokens+u.ReasoningTokens) / 1e6 * p.OutputPerM
	return math.Round((in+out)*1e6) / 1e6
}

// Footer renders the compact one-line stats footer for a bot response.
func Footer(model string, u llm.Usage, costUSD float64, elapsed time.Duration) string {
	return fmt.Sprintf("⚙️ %s | 📥 %s 📤 %s 🧠 %s | 💰 $%.4f | ⏱ %.1fs",
		model,
		FormatTokens(u.PromptTokens),
		FormatTokens(u.CompletionTokens),
		FormatTokens(u.ReasoningTokens),
		costUSD,
		elapsed.Seconds(),
	)
}

// FormatTokens formats large counts with K/M suffixes (1234 → "1.2K").
// Counts below 1000 are printed as-is.
func FormatTokens(n int) string {
	switch {
	case abs(n) >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case abs(n) >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
