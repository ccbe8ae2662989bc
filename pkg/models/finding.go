package models

import "strings"

// Finding represents a reportable classification tied to a file and line
type Finding struct {
	ID                string            `json:"id"`            // Deterministic fingerprint of path, line and code
	FilePath          string            `json:"file"`          // Path as given in the input list
	LineNumber        int               `json:"line"`          // 1-based line (window start in window mode)
	Severity          Severity          `json:"severity"`      // Never "None"
	VulnerabilityType VulnerabilityType `json:"vulnerability"` // Informational, may be Unknown or Other
	CodePreview       string            `json:"code"`          // Stripped text; truncated at render time
	Confidence        float64           `json:"confidence"`    // Probability of the severity argmax
}

// Severity is the label name produced by the severity head.
// Names are kept verbatim from the label dictionary.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
	SeverityNone     Severity = "None"
	SeverityUnknown  Severity = "Unknown"
)

// IsNone reports whether the severity means "no vulnerability"
func (s Severity) IsNone() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(SeverityNone))
}

// GetSeverityPriority returns numeric priority for severity (higher = more severe).
// Unknown ranks above Low since a missing label is not evidence of safety.
func GetSeverityPriority(s Severity) int {
	switch strings.ToLower(string(s)) {
	case "critical":
		return 5
	case "high":
		return 4
	case "medium":
		return 3
	case "unknown":
		return 2
	case "low":
		return 1
	default:
		return 0
	}
}

// VulnerabilityType is the label name produced by the vulnerability head
type VulnerabilityType string

const (
	VulnXSS                 VulnerabilityType = "XSS"
	VulnSQLInjection        VulnerabilityType = "SQL Injection"
	VulnCommandInjection    VulnerabilityType = "Command Injection"
	VulnHardcodedCredential VulnerabilityType = "Hardcoded Credential"
	VulnCSRF                VulnerabilityType = "CSRF"
	VulnPathTraversal       VulnerabilityType = "Path Traversal"
	VulnInsecureRedirect    VulnerabilityType = "Insecure Redirect"
	VulnOpenRedirect        VulnerabilityType = "Open Redirect"
	VulnLFI                 VulnerabilityType = "LFI"
	VulnRFI                 VulnerabilityType = "RFI"
	VulnClickjacking        VulnerabilityType = "Clickjacking"
	VulnOther               VulnerabilityType = "Other"
	VulnUnknown             VulnerabilityType = "Unknown"
)

// ClassificationResult is the resolved output of both model heads for one candidate
type ClassificationResult struct {
	Severity                Severity          `json:"severity"`
	VulnerabilityType       VulnerabilityType `json:"vulnerability"`
	SeverityIndex           int               `json:"severity_index"`
	VulnerabilityIndex      int               `json:"vulnerability_index"`
	SeverityConfidence      float64           `json:"severity_confidence"`
	VulnerabilityConfidence float64           `json:"vulnerability_confidence"`
}
