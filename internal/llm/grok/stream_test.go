package grok

import (
	"strings"
	"testing"

	"github.com/HerbHall/gigagrok/pkg/llm"
)

// collect runs parseFrames over the given lines and returns every event.
func collect(t *testing.T, input string) []llm.StreamEvent {
	t.Helper()
	var events []llm.StreamEvent
	err := parseFrames(strings.NewReader(input), func(ev llm.StreamEvent) error {
		events = append(events, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("parseFrames() error = %v", err)
	}
	return events
}

func TestParseFrames_ContentConcatenation(t *testing.T) {
	input := "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n" +
		"\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"lo, \"}}]}\n" +
		"not an event line\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"world\"}}]}\n" +
		"data: [DONE]\n"

	events := collect(t, input)

	var sb strings.Builder
	for _, ev := range events {
		if ev.Type != llm.EventContent {
			t.Errorf("unexpected event type %q", ev.Type)
		}
		sb.WriteString(ev.Delta)
	}
	if got := sb.String(); got != "Hello, world" {
		t.Errorf("concatenated content = %q, want %q", got, "Hello, world")
	}
}

func TestParseFrames_DoneSentinelStopsEverything(t *testing.T) {
	input := "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n" +
		"data: [DONE]\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n"

	events := collect(t, input)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (nothing after [DONE])", len(events))
	}
	if events[0].Delta != "a" {
		t.Errorf("Delta = %q, want %q", events[0].Delta, "a")
	}
}

func TestParseFrames_MalformedFramesSkipped(t *testing.T) {
	input := "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"cont\n" + // truncated at a chunk boundary
		"data: not json at all\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"!\"}}]}\n"

	events := collect(t, input)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Delta+events[1].Delta != "ok!" {
		t.Errorf("content = %q, want %q", events[0].Delta+events[1].Delta, "ok!")
	}
}

func TestParseFrames_ReasoningBeforeContentBeforeUsage(t *testing.T) {
	input := `data: {"choices":[{"delta":{"reasoning_content":"think","content":"answer"}}],"usage":{"prompt_tokens":5,"completion_tokens":2,"completion_tokens_details":{"reasoning_tokens":7}}}` + "\n"

	events := collect(t, input)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Type != llm.EventReasoning || events[0].Delta != "think" {
		t.Errorf("events[0] = %+v, want reasoning %q", events[0], "think")
	}
	if events[1].Type != llm.EventContent || events[1].Delta != "answer" {
		t.Errorf("events[1] = %+v, want content %q", events[1], "answer")
	}
	if events[2].Type != llm.EventDone {
		t.Fatalf("events[2].Type = %q, want done", events[2].Type)
	}
	want := llm.Usage{PromptTokens: 5, CompletionTokens: 2, ReasoningTokens: 7}
	if events[2].Usage != want {
		t.Errorf("Usage = %+v, want %+v", events[2].Usage, want)
	}
}

func TestParseFrames_ToolCalls(t *testing.T) {
	input := `data: {"choices":[{"delta":{"tool_calls":[{"function":{"name":"web_search"}},{"function":{"name":""}},{"function":{"name":"x_search"}}]}}]}` + "\n"

	events := collect(t, input)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (unnamed call skipped)", len(events))
	}
	if events[0].Tool != "web_search" || events[1].Tool != "x_search" {
		t.Errorf("tools = %q, %q", events[0].Tool, events[1].Tool)
	}
}

func TestParseFrames_UsageWithoutChoices(t *testing.T) {
	input := `data: {"choices":[],"usage":{"prompt_tokens":1,"completion_tokens":2,"completion_tokens_details":{"reasoning_tokens":3}}}` + "\n"

	events := collect(t, input)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Type != llm.EventDone {
		t.Errorf("Type = %q, want done", events[0].Type)
	}
}

func TestParseFrames_EmitErrorAborts(t *testing.T) {
	input := "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n"

	calls := 0
	wantErr := &abortError{err: errTest}
	err := parseFrames(strings.NewReader(input), func(llm.StreamEvent) error {
		calls++
		return wantErr
	})
	if err != wantErr {
		t.Errorf("parseFrames() error = %v, want the emit error unchanged", err)
	}
	if calls != 1 {
		t.Errorf("emit called %d times, want 1", calls)
	}
}

func TestParseFrames_StreamWithoutDoneIsNotAnError(t *testing.T) {
	input := "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n"

	events := collect(t, input)
	if len(events) != 1 || events[0].Type != llm.EventContent {
		t.Fatalf("events = %+v, want a single content event", events)
	}
}
