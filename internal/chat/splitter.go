package chat

import "strings"

// DefaultMaxMessageLen is the transport's hard per-message character limit
// minus headroom for markup (Telegram caps messages at 4096).
const DefaultMaxMessageLen = 4000

const fence = "```"

// SplitMessage splits text into chunks of at most maxLen runes. Splitting
// prefers a blank line, then a single newline, then a space, then a hard
// cut. It never cuts inside an open fenced code block: if a candidate
// chunk contains an odd number of ``` markers, the cut retreats to just
// before the last unmatched one. Text within the limit is returned as a
// single element. Newlines consumed by a split are not re-added.
func SplitMessage(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLen
	}

	runes := []rune(text)
	if len(runes) <= maxLen {
		return []string{text}
	}

	var parts []string
	remaining := runes
	for len(remaining) > 0 {
		if len(remaining) <= maxLen {
			parts = append(parts, string(remaining))
			break
		}

		chunk := string(remaining[:maxLen])

		if strings.Count(chunk, fence)%2 != 0 {
			if last := strings.LastIndex(chunk, fence); last > 0 {
				chunk = chunk[:last]
			}
		}

		cut := len([]rune(chunk[:splitPos(chunk)]))
		if cut == 0 {
			cut = maxLen // degenerate input, hard cut
		}
		parts = append(parts, string(remaining[:cut]))
		remaining = remaining[cut:]
		for len(remaining) > 0 && remaining[0] == '\n' {
			remaining = remaining[1:]
		}
	}

	if len(parts) == 0 {
		return []string{text}
	}
	return parts
}

// splitPos returns the best split byte offset inside chunk.
func splitPos(chunk string) int {
	if pos := strings.LastIndex(chunk, "\n\n"); pos > 0 {
		return pos
	}
	if pos := strings.LastIndex(chunk, "\n"); pos > 0 {
		return pos
	}
	if pos := strings.LastIndex(chunk, " "); pos > 0 {
		return pos
	}
	return len(chunk)
}
