package llm

import (
	"fmt"
	"strings"
)

// ExtractJSONArray locates the first JSON array in a model response and
// returns it as a standalone string. Markdown code fences and surrounding
// prose are discarded. A response truncated mid-array is repaired by cutting
// back to the last complete top-level element and closing the array.
func ExtractJSONArray(raw string) (string, error) {
	s := stripCodeFence(raw)

	start := strings.IndexByte(s, '[')
	if start == -1 {
		return "", fmt.Errorf("no JSON array found in response")
	}

	depth := 0
	inString := false
	escaped := false
	lastComplete := -1

	for i := start; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
				if depth == 1 {
					lastComplete = i + 1
				}
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
			if depth == 1 {
				lastComplete = i + 1
			}
		}
	}

	// The text ended before the array was balanced. Salvage the complete
	// elements if there are any.
	if lastComplete > start {
		return s[start:lastComplete] + "]", nil
	}

	return "", fmt.Errorf("unterminated JSON array in response")
}

// stripCodeFence removes a leading ```/```json fence and its closing fence.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)

	if !strings.HasPrefix(s, "```") {
		return s
	}

	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		s = s[nl+1:]
	} else {
		return s
	}

	if end := strings.LastIndex(s, "```"); end != -1 {
		s = s[:end]
	}

	return strings.TrimSpace(s)
}
