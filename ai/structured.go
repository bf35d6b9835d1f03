package ai

import (
	"encoding/json"
	"strings"
)

// CleanJSONContent strips markdown code fences and conversational chatter
// that models sometimes wrap around JSON payloads.
func CleanJSONContent(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") && strings.HasSuffix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	} else if strings.HasPrefix(content, "```") && strings.HasSuffix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if trimmed == "" ||
			strings.HasPrefix(lower, "here is") ||
			strings.HasPrefix(lower, "the json") ||
			strings.HasPrefix(lower, "output:") ||
			strings.HasPrefix(lower, "response:") ||
			strings.HasPrefix(lower, "##") {
			continue
		}
		cleaned = append(cleaned, line)
	}
	content = strings.TrimSpace(strings.Join(cleaned, "\n"))

	// A leading chatter line glued to the payload: cut at the first brace.
	if !strings.HasPrefix(content, "{") && !strings.HasPrefix(content, "[") {
		if idx := strings.IndexAny(content, "{["); idx > 0 {
			content = content[idx:]
		}
	}

	return content
}

// DecodeInto parses cleaned model output into a typed payload.
func DecodeInto(content string, out interface{}) error {
	return json.Unmarshal([]byte(CleanJSONContent(content)), out)
}

// TruncateSample shortens model output for inclusion in error messages.
func TruncateSample(content string, max int) string {
	if len(content) <= max {
		return content
	}
	return content[:max] + "..."
}
