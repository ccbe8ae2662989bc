package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mhdfahrurozi/codebertTest/configs"
	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

// Labels holds the index -> name dictionaries of both heads
type Labels struct {
	Severity      *models.LabelMap
	Vulnerability *models.LabelMap
}

// ParseLabelMap parses a JSON or YAML name -> index document
func ParseLabelMap(data []byte) (*models.LabelMap, error) {
	var byName map[string]int
	if err := yaml.Unmarshal(data, &byName); err != nil {
		return nil, fmt.Errorf("failed to parse label map: %w", err)
	}
	return models.NewLabelMap(byName)
}

// LoadLabelMap reads a label map from path, or parses fallback when path is empty
func LoadLabelMap(path string, fallback []byte) (*models.LabelMap, error) {
	data := fallback
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read label map: %w", err)
		}
	}

	m, err := ParseLabelMap(data)
	if err != nil && path != "" {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, err
}

// LoadLabels loads both label maps. Empty paths select the built-in maps.
func LoadLabels(severityPath, vulnerabilityPath string) (*Labels, error) {
	sev, err := LoadLabelMap(severityPath, configs.SeverityLabels)
	if err != nil {
		return nil, fmt.Errorf("severity labels: %w", err)
	}
	vuln, err := LoadLabelMap(vulnerabilityPath, configs.VulnerabilityLabels)
	if err != nil {
		return nil, fmt.Errorf("vulnerability labels: %w", err)
	}
	return &Labels{Severity: sev, Vulnerability: vuln}, nil
}

// DefaultLabels returns the built-in label maps
func DefaultLabels() (*Labels, error) {
	return LoadLabels("", "")
}
