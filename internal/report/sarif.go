package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

const toolInformationURI = "https://github.com/mhdfahrurozi/codebertTest"

// RenderSARIF renders findings as a SARIF 2.1.0 log with one rule per vulnerability type
func RenderSARIF(snap *models.Snapshot, opts Options) ([]byte, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(opts.ToolName, toolInformationURI)
	for _, f := range snap.Detailed {
		rule := run.AddRule(RuleID(f.VulnerabilityType)).
			WithDescription(string(f.VulnerabilityType))

		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(f.FilePath)).
				WithRegion(sarif.NewRegion().WithStartLine(f.LineNumber)),
		)

		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(fmt.Sprintf("%s (%s severity)", f.VulnerabilityType, f.Severity))).
			WithLevel(toSarifLevel(f.Severity)).
			WithLocations([]*sarif.Location{location})

		result.PropertyBag = *sarif.NewPropertyBag()
		result.Add("fingerprint", f.ID)
		result.Add("severity", string(f.Severity))
		result.Add("confidence", f.Confidence)
		result.Add("code", Preview(f.CodePreview, opts.PreviewLength))

		run.AddResult(result)
	}
	report.AddRun(run)

	var buf bytes.Buffer
	if err := report.PrettyWrite(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RuleID converts a vulnerability label to a rule identifier
func RuleID(v models.VulnerabilityType) string {
	id := strings.ToLower(strings.TrimSpace(string(v)))
	id = strings.Join(strings.Fields(id), "-")
	if id == "" {
		return "unknown"
	}
	return id
}

// toSarifLevel maps severities onto SARIF result levels
func toSarifLevel(s models.Severity) string {
	switch strings.ToUpper(string(s)) {
	case "CRITICAL", "HIGH":
		return "error"
	case "MEDIUM":
		return "warning"
	case "LOW", "UNKNOWN":
		return "note"
	default:
		return "none"
	}
}
