package models

// Statistics holds the run counters.
// Only the first three are rendered in the report statistics block.
type Statistics struct {
	FilesProcessed       int `json:"files_processed"`
	VulnerabilitiesFound int `json:"vulnerabilities_found"`
	FalsePositivesCaught int `json:"false_positives_caught"`

	// Diagnostics
	ReadErrors           int `json:"read_errors"`
	ClassificationErrors int `json:"classification_errors"`
	Timeouts             int `json:"timeouts"`
}

// FileSummary groups the findings of one file
type FileSummary struct {
	Path       string     `json:"path"`
	TotalLines int        `json:"total_lines"`
	Findings   []*Finding `json:"findings"`
}

// ReadError records a file that could not be opened or decoded
type ReadError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Snapshot is the read-only final state of a run consumed by report writers
type Snapshot struct {
	Stats      Statistics     `json:"statistics"`
	Files      []*FileSummary `json:"files"`    // Files with at least one finding, first-seen order
	Detailed   []*Finding     `json:"findings"` // Same order as Files, flattened
	ReadErrors []ReadError    `json:"read_errors,omitempty"`
}

// HasFindings reports whether the run produced any finding
func (s *Snapshot) HasFindings() bool {
	return len(s.Detailed) > 0
}

// CountBySeverity returns finding counts keyed by severity label
func (s *Snapshot) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range s.Detailed {
		counts[f.Severity]++
	}
	return counts
}
