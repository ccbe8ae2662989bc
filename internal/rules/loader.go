// Package rules loads and evaluates the suppression rule table.
package rules

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mhdfahrurozi/codebertTest/configs"
	"github.com/mhdfahrurozi/codebertTest/pkg/models"
	"gopkg.in/yaml.v3"
)

// Loader loads suppression rules from YAML files
type Loader struct {
	rulesPath string
}

// NewLoader creates a new rule loader for a file or directory
func NewLoader(rulesPath string) *Loader {
	return &Loader{
		rulesPath: rulesPath,
	}
}

// RuleFile represents a YAML rule file
type RuleFile struct {
	Rules []*models.Rule `yaml:"rules"`
}

// Default returns a rule set holding the built-in rules
func Default() (*models.RuleSet, error) {
	rs := models.NewRuleSet()
	if err := LoadBytes(configs.DefaultRules, rs); err != nil {
		return nil, fmt.Errorf("failed to load built-in rules: %w", err)
	}
	return rs, nil
}

// Load appends the rules found under the loader path to rs.
// A missing path is an error; YAML files in a directory are loaded in lexical order.
func (l *Loader) Load(rs *models.RuleSet) error {
	info, err := os.Stat(l.rulesPath)
	if err != nil {
		return fmt.Errorf("failed to stat rules path: %w", err)
	}

	if !info.IsDir() {
		return l.loadFile(l.rulesPath, rs)
	}

	// Walk rules directory
	return filepath.Walk(l.rulesPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip directories and non-YAML files
		if info.IsDir() || (filepath.Ext(path) != ".yaml" && filepath.Ext(path) != ".yml") {
			return nil
		}

		return l.loadFile(path, rs)
	})
}

// loadFile loads rules from a single YAML file
func (l *Loader) loadFile(path string, rs *models.RuleSet) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := LoadBytes(data, rs); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadBytes parses a YAML rule document and adds its rules to rs
func LoadBytes(data []byte, rs *models.RuleSet) error {
	var ruleFile RuleFile
	if err := yaml.Unmarshal(data, &ruleFile); err != nil {
		return err
	}

	for _, rule := range ruleFile.Rules {
		if err := rs.AddRule(rule); err != nil {
			return fmt.Errorf("failed to add rule: %w", err)
		}
	}

	return nil
}
