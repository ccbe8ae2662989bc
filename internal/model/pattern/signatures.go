package pattern

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/mhdfahrurozi/codebertTest/configs"
)

// Signature is a weighted pattern pointing at one vulnerability label
type Signature struct {
	ID            string  `yaml:"id"`
	Name          string  `yaml:"name"`
	Pattern       string  `yaml:"pattern"`
	Unless        string  `yaml:"unless"`
	Vulnerability string  `yaml:"vulnerability"`
	Weight        float64 `yaml:"weight"`
	CaseSensitive bool    `yaml:"case_sensitive"`

	re     *regexp.Regexp
	unless *regexp.Regexp
}

// signatureFile is the YAML document layout
type signatureFile struct {
	Signatures []*Signature `yaml:"signatures"`
}

// Compile prepares the signature regexes
func (s *Signature) Compile() error {
	if s.ID == "" {
		return fmt.Errorf("signature without id")
	}
	if s.Pattern == "" {
		return fmt.Errorf("signature %s: empty pattern", s.ID)
	}
	if s.Vulnerability == "" {
		return fmt.Errorf("signature %s: empty vulnerability", s.ID)
	}
	if s.Weight <= 0 {
		return fmt.Errorf("signature %s: weight must be positive", s.ID)
	}

	flags := "(?i)"
	if s.CaseSensitive {
		flags = ""
	}

	re, err := regexp.Compile(flags + s.Pattern)
	if err != nil {
		return fmt.Errorf("signature %s: %w", s.ID, err)
	}
	s.re = re

	if s.Unless != "" {
		unless, err := regexp.Compile("(?i)" + s.Unless)
		if err != nil {
			return fmt.Errorf("signature %s unless: %w", s.ID, err)
		}
		s.unless = unless
	}
	return nil
}

// Matches reports whether text triggers the signature
func (s *Signature) Matches(text string) bool {
	if s.re == nil || !s.re.MatchString(text) {
		return false
	}
	return s.unless == nil || !s.unless.MatchString(text)
}

// ParseSignatures parses and compiles a signature document
func ParseSignatures(data []byte) ([]*Signature, error) {
	var file signatureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse signatures: %w", err)
	}

	seen := make(map[string]bool, len(file.Signatures))
	for _, sig := range file.Signatures {
		if err := sig.Compile(); err != nil {
			return nil, err
		}
		if seen[sig.ID] {
			return nil, fmt.Errorf("duplicate signature id %s", sig.ID)
		}
		seen[sig.ID] = true
	}
	return file.Signatures, nil
}

// LoadSignatures reads signatures from path, or the built-in table when path is empty
func LoadSignatures(path string) ([]*Signature, error) {
	if path == "" {
		return ParseSignatures(configs.Signatures)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signatures: %w", err)
	}
	return ParseSignatures(data)
}
