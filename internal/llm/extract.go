package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON reports that a model response contained no decodable JSON object.
var ErrNoJSON = errors.New("llm: no JSON object in response")

// StripThinkBlocks removes all <think>...</think> blocks from s.
// Reasoning models emit these before or between JSON objects; the blocks
// are not part of structured output and must be stripped before parsing.
func StripThinkBlocks(s string) string {
	for {
		start := strings.Index(s, "<think>")
		if start == -1 {
			break
		}
		end := strings.Index(s[start:], "</think>")
		if end == -1 {
			// Unclosed block — strip from opening tag to end of string.
			s = s[:start]
			break
		}
		s = s[:start] + s[start+end+len("</think>"):]
	}
	return strings.TrimSpace(s)
}

// StripFences removes markdown code fences (```json ... ```) from LLM
// output, and also strips <think>...</think> reasoning blocks.
func StripFences(s string) string {
	s = StripThinkBlocks(strings.TrimSpace(s))
	if strings.HasPrefix(s, "```") {
		// Remove opening fence line
		idx := strings.Index(s, "\n")
		if idx != -1 {
			s = s[idx+1:]
		}
		// Remove closing fence
		if i := strings.LastIndex(s, "```"); i != -1 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

// ExtractJSON returns the substring of s from the first '{' to the last '}',
// but only when that substring decodes as a JSON object. Callers then run
// their own strict schema decode and take their fallback path on any error —
// there is no second guess at intent beyond "decode succeeds or we fall
// back".
func ExtractJSON(s string) (string, error) {
	s = StripFences(s)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", ErrNoJSON
	}
	candidate := s[start : end+1]

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return "", ErrNoJSON
	}
	return candidate, nil
}
