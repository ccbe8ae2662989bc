package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

const (
	reportTitle  = "CODEBERT SECURITY ANALYSIS REPORT"
	ruleWidth    = 50
	previewLabel = "Code Preview  : "
)

// RenderText renders the fixed four-section text report
func RenderText(snap *models.Snapshot, opts Options) ([]byte, error) {
	var sb strings.Builder
	banner := strings.Repeat("=", ruleWidth)

	// Title
	sb.WriteString(banner + "\n")
	sb.WriteString(reportTitle + "\n")
	sb.WriteString(banner + "\n\n")

	// Statistics
	sb.WriteString("[[ STATISTICS ]]\n")
	sb.WriteString(fmt.Sprintf("Files Processed: %d\n", snap.Stats.FilesProcessed))
	sb.WriteString(fmt.Sprintf("Vulnerabilities Found: %d\n", snap.Stats.VulnerabilitiesFound))
	sb.WriteString(fmt.Sprintf("False Positives Caught: %d\n\n", snap.Stats.FalsePositivesCaught))

	// Summary
	sb.WriteString("[[ SUMMARY ]]\n")
	sb.WriteString("Analysis Summary:\n\n")
	if len(snap.Files) == 0 {
		sb.WriteString("No vulnerabilities found.\n\n")
	}
	for _, file := range snap.Files {
		sb.WriteString(fmt.Sprintf("%s (%d lines)\n", file.Path, file.TotalLines))
		for _, f := range file.Findings {
			sb.WriteString(fmt.Sprintf("- Line #%d, Severity: %s, Vulnerability: %s\n",
				f.LineNumber, f.Severity, f.VulnerabilityType))
		}
		sb.WriteString("\n")
	}

	// Detailed findings
	sb.WriteString(banner + "\n")
	sb.WriteString("[[ DETAILED FINDINGS ]]\n")
	sb.WriteString("Vulnerability Details:\n\n")
	if len(snap.Detailed) == 0 {
		sb.WriteString("No findings.\n")
	}
	for _, f := range snap.Detailed {
		sb.WriteString(fmt.Sprintf("File: %s (Line %d)\n", f.FilePath, f.LineNumber))
		sb.WriteString(fmt.Sprintf("Severity      : %s\n", f.Severity))
		sb.WriteString(fmt.Sprintf("Vulnerability : %s\n", f.VulnerabilityType))
		sb.WriteString(previewLabel + indentPreview(Preview(f.CodePreview, opts.PreviewLength)) + "\n")
		sb.WriteString(strings.Repeat("-", ruleWidth) + "\n")
	}
	for _, re := range snap.ReadErrors {
		sb.WriteString(fmt.Sprintf("Error reading %s: %s\n", re.Path, re.Message))
	}

	return []byte(sb.String()), nil
}

// indentPreview aligns the continuation lines of a window-mode preview under the first
func indentPreview(code string) string {
	code = strings.ReplaceAll(code, "\r\n", "\n")
	return strings.ReplaceAll(code, "\n", "\n"+strings.Repeat(" ", len(previewLabel)))
}

// Preview caps code at limit runes, appending "..." only when cut
func Preview(code string, limit int) string {
	if limit <= 0 {
		limit = DefaultPreviewLength
	}
	if utf8.RuneCountInString(code) <= limit {
		return code
	}
	runes := []rune(code)
	return string(runes[:limit]) + "..."
}
