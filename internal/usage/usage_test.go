package usage

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/HerbHall/gigagrok/pkg/llm"
)

func TestCost_InputRate(t *testing.T) {
	p := DefaultPricing()
	got := p.Cost(llm.Usage{PromptTokens: 1_000_000})
	if got != DefaultInputPerM {
		t.Errorf("Cost(1M in) = %v, want %v", got, DefaultInputPerM)
	}
}

func TestCost_ReasoningBilledAtOutputRate(t *testing.T) {
	p := DefaultPricing()
	got := p.Cost(llm.Usage{CompletionTokens: 500_000, ReasoningTokens: 500_000})
	if got != DefaultOutputPerM {
		t.Errorf("Cost(500K out + 500K reasoning) = %v, want %v", got, DefaultOutputPerM)
	}
}

func TestCost_RoundsToSixPlaces(t *testing.T) {
	p := DefaultPricing()
	got := p.Cost(llm.Usage{PromptTokens: 5, CompletionTokens: 1})
	// 5/1e6*0.20 + 1/1e6*0.50 = 0.0000015, rounded half-up to 0.000002.
	if math.Abs(got-0.000002) > 1e-9 {
		t.Errorf("Cost = %v, want 0.000002", got)
	}
}

func TestCost_Zero(t *testing.T) {
	if got := DefaultPricing().Cost(llm.Usage{}); got != 0 {
		t.Errorf("Cost(zeros) = %v, want 0", got)
	}
}

func TestFormatTokens(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0K"},
		{1234, "1.2K"},
		{999_949, "999.9K"},
		{1_000_000, "1.0M"},
		{2_500_000, "2.5M"},
	}
	for _, tc := range cases {
		if got := FormatTokens(tc.n); got != tc.want {
			t.Errorf("FormatTokens(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestFooter(t *testing.T) {
	u := llm.Usage{PromptTokens: 1234, CompletionTokens: 56, ReasoningTokens: 7890}
	got := Footer("grok-4-1-fast-reasoning", u, 0.001234, 2340*time.Millisecond)

	for _, want := range []string{"grok-4-1-fast-reasoning", "1.2K", "56", "7.9K", "$0.0012", "2.3s"} {
		if !strings.Contains(got, want) {
			t.Errorf("Footer %q missing %q", got, want)
		}
	}
}
