package conversation

import (
	"regexp"
	"strings"
)

// Reasoning-capable models wrap their chain of thought in think tags.
var thinkTagRe = regexp.MustCompile(`(?s)<think(?:ing)?>(.*?)</think(?:ing)?>`)

// SplitReasoning separates chain-of-thought content from the final answer.
// Returns the concatenated reasoning and the text with the tags removed.
func SplitReasoning(text string) (reasoning, final string) {
	matches := thinkTagRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return "", text
	}

	var parts []string
	for _, m := range matches {
		if trimmed := strings.TrimSpace(m[1]); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	reasoning = strings.Join(parts, "\n\n")
	final = strings.TrimSpace(thinkTagRe.ReplaceAllString(text, ""))
	return reasoning, final
}

// StripReasoning removes chain-of-thought tags and their content.
func StripReasoning(text string) string {
	_, final := SplitReasoning(text)
	return final
}

// FormatReasoning renders reasoning and answer for display, matching the
// labeled layout observers expect.
func FormatReasoning(reasoning, final string) string {
	if reasoning == "" {
		return final
	}
	var b strings.Builder
	b.WriteString("[Chain of Thought]\n")
	b.WriteString(reasoning)
	b.WriteString("\n\n[Final Answer]\n")
	b.WriteString(final)
	return b.String()
}
