package grok

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/HerbHall/gigagrok/pkg/llm"
)

const dataPrefix = "data: "

// streamFrame is the wire shape of one server-sent chunk.
type streamFrame struct {
	Choices []struct {
		Delta struct {
			ReasoningContent string `json:"reasoning_content"`
			Content          string `json:"content"`
			ToolCalls        []struct {
				Function struct {
					Name string `json:"name"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *llm.RawUsage `json:"usage"`
}

// parseFrames decodes "data: {...}" event-stream lines from r and invokes
// emit for each normalized event. Blank lines and lines without the data
// prefix are ignored; "data: [DONE]" terminates the stream; frames that
// fail to parse as JSON are skipped, since the API occasionally flushes
// partial frames at chunk boundaries. A single frame may emit several
// events, in upstream field order: reasoning, tool calls, content, usage.
//
// An error from emit aborts parsing and is returned unchanged. Transport
// read errors are returned for the caller to classify.
func parseFrames(r io.Reader, emit func(llm.StreamEvent) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, dataPrefix) {
			continue
		}

		payload := line[len(dataPrefix):]
		if payload == "[DONE]" {
			return nil
		}

		var frame streamFrame
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			continue
		}

		if len(frame.Choices) > 0 {
			delta := frame.Choices[0].Delta

			if delta.ReasoningContent != "" {
				if err := emit(llm.ReasoningEvent(delta.ReasoningContent)); err != nil {
					return err
				}
			}
			for _, tc := range delta.ToolCalls {
				if tc.Function.Name == "" {
					continue
				}
				if err := emit(llm.ToolUseEvent(tc.Function.Name)); err != nil {
					return err
				}
			}
			if delta.Content != "" {
				if err := emit(llm.ContentEvent(delta.Content)); err != nil {
					return err
				}
			}
		}

		if frame.Usage != nil {
			if err := emit(llm.DoneEvent(frame.Usage.Normalize())); err != nil {
				return err
			}
		}
	}

	return scanner.Err()
}
