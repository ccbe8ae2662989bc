package report

import (
	"fmt"
	"strings"

	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

// severityOrder lists severities from most to least severe for summaries
var severityOrder = []models.Severity{
	models.SeverityCritical,
	models.SeverityHigh,
	models.SeverityMedium,
	models.SeverityUnknown,
	models.SeverityLow,
}

// RenderMarkdown renders a pull request comment friendly summary
func RenderMarkdown(snap *models.Snapshot, opts Options) ([]byte, error) {
	var sb strings.Builder

	sb.WriteString("# CodeBERT Security Analysis\n\n")

	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Files Processed | %d |\n", snap.Stats.FilesProcessed))
	sb.WriteString(fmt.Sprintf("| **Vulnerabilities Found** | **%d** |\n", snap.Stats.VulnerabilitiesFound))
	sb.WriteString(fmt.Sprintf("| False Positives Caught | %d |\n", snap.Stats.FalsePositivesCaught))
	sb.WriteString("\n")

	if !snap.HasFindings() {
		sb.WriteString("> No vulnerabilities found.\n")
		writeMarkdownReadErrors(&sb, snap)
		return []byte(sb.String()), nil
	}

	counts := snap.CountBySeverity()
	sb.WriteString("## Findings by Severity\n\n")
	sb.WriteString("| Severity | Count |\n")
	sb.WriteString("|----------|-------|\n")
	for _, sev := range severityOrder {
		if counts[sev] > 0 {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", sev, counts[sev]))
		}
	}
	// Labels outside the built-in set, in report order
	seen := make(map[models.Severity]bool)
	for _, sev := range severityOrder {
		seen[sev] = true
	}
	for _, f := range snap.Detailed {
		if !seen[f.Severity] {
			seen[f.Severity] = true
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", f.Severity, counts[f.Severity]))
		}
	}
	sb.WriteString("\n")

	sb.WriteString("## Findings\n\n")
	for _, file := range snap.Files {
		sb.WriteString(fmt.Sprintf("### `%s` (%d lines)\n\n", file.Path, file.TotalLines))
		sb.WriteString("| Line | Severity | Vulnerability | Code |\n")
		sb.WriteString("|------|----------|---------------|------|\n")
		for _, f := range file.Findings {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | `%s` |\n",
				f.LineNumber, f.Severity, f.VulnerabilityType,
				escapeCell(Preview(f.CodePreview, opts.PreviewLength))))
		}
		sb.WriteString("\n")
	}

	writeMarkdownReadErrors(&sb, snap)
	return []byte(sb.String()), nil
}

func writeMarkdownReadErrors(sb *strings.Builder, snap *models.Snapshot) {
	if len(snap.ReadErrors) == 0 {
		return
	}
	sb.WriteString("\n## Unreadable Files\n\n")
	for _, re := range snap.ReadErrors {
		sb.WriteString(fmt.Sprintf("- `%s`: %s\n", re.Path, re.Message))
	}
}

// escapeCell keeps code inside a single table cell
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "`", "'")
}
