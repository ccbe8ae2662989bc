package report

import (
	"encoding/json"

	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

// JSONReport is the machine readable report layout
type JSONReport struct {
	Tool    string `json:"tool"`
	Version string `json:"version,omitempty"`
	*models.Snapshot
}

// RenderJSON renders the snapshot as indented JSON.
// Code is kept whole; previews are a text report concern.
func RenderJSON(snap *models.Snapshot, opts Options) ([]byte, error) {
	report := &JSONReport{
		Tool:     opts.ToolName,
		Version:  opts.ToolVersion,
		Snapshot: snap,
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
