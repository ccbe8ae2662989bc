package anthropic

import (
	"fmt"
	"strings"
)

const systemPromptTemplate = `You are an application security reviewer classifying single lines of web source code (JavaScript, PHP, HTML, CSS).
For the line you receive, decide how severe a vulnerability it introduces and which kind.

OUTPUT: Valid JSON only, no markdown formatting.
{"severity": "<one of: %s>", "vulnerability": "<one of: %s>", "confidence": 0-100}

RULES:
- Use exactly one of the listed names for each field.
- Use "None" severity when the line is safe or is not code.
- Judge only the line itself; assume variables hold untrusted data only when they read request data, the page address or cookies.`

// SystemPrompt builds the system prompt listing the allowed label names
func SystemPrompt(severities, vulnerabilities []string) string {
	return fmt.Sprintf(systemPromptTemplate,
		strings.Join(severities, ", "),
		strings.Join(vulnerabilities, ", "))
}

// BuildLinePrompt builds the user prompt for one encoded line
func BuildLinePrompt(code string) string {
	var sb strings.Builder
	sb.WriteString("CODE:\n```\n")
	sb.WriteString(strings.TrimSpace(code))
	sb.WriteString("\n```")
	return sb.String()
}

// extractJSON extracts the JSON object from text that might be wrapped in markdown
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.Contains(text, "```") {
		start := strings.Index(text, "```json")
		if start == -1 {
			start = strings.Index(text, "```")
		}
		if nl := strings.Index(text[start:], "\n"); nl != -1 {
			start += nl + 1
		}
		if end := strings.LastIndex(text, "```"); end > start {
			text = text[start:end]
		}
	}

	text = strings.TrimSpace(text)
	open := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if open != -1 && end > open {
		text = text[open : end+1]
	}

	return strings.TrimSpace(text)
}
