package ai

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// ExtractObject returns the substring of text spanning the first '{' to the
// last '}', which is where models put their JSON object when they wrap it
// in prose. Returns false when no such span exists.
//
// This is naive brace matching, not JSON scanning: a response with literal
// braces in prose around the real object can produce a span that fails to
// parse. ParseSummary absorbs that failure into its fallback object.
func ExtractObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// ParseSummary parses the model's response into the summary object that is
// merged into the analysis result. Extraction or parse failures never
// propagate: the result degrades to {"error": ..., "raw_response": ...} so
// the caller always has a well-formed object to merge.
func ParseSummary(response string) map[string]any {
	if candidate, ok := ExtractObject(response); ok {
		var parsed map[string]any
		err := json.Unmarshal([]byte(candidate), &parsed)
		if err == nil {
			return parsed
		}
		slog.Debug("model summary did not parse as JSON", "err", err)
	}

	return map[string]any{
		"error":        "failed to parse model summary",
		"raw_response": response,
	}
}
