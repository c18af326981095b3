package intent

import (
	"encoding/json"
	"strings"
)

// ParseRaw decodes proposer output into a RawIntent. Markdown code fences
// around the JSON are tolerated.
func ParseRaw(text string) (RawIntent, error) {
	body := StripCodeFences(text)
	if body == "" {
		return RawIntent{}, malformed("intent", "empty proposal")
	}
	if !strings.HasPrefix(body, "{") {
		return RawIntent{}, malformed("intent", "expected a JSON object")
	}

	var raw RawIntent
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return RawIntent{}, &MalformedIntentError{Field: "intent", Reason: "invalid JSON", Err: err}
	}
	return raw, nil
}

// StripCodeFences removes a surrounding ```lang ... ``` block if present.
func StripCodeFences(value string) string {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 && !strings.ContainsAny(trimmed[:newline], "{[") {
		trimmed = trimmed[newline+1:]
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
