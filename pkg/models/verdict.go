package models

import (
	"fmt"
	"strings"
)

// Verdict is the suppression decision for a candidate
type Verdict int

const (
	VerdictPass Verdict = iota
	VerdictBlank
	VerdictCommentOrBoilerplate
	VerdictSafePattern
	VerdictNaturalText
)

var verdictNames = map[Verdict]string{
	VerdictPass:                 "PASS",
	VerdictBlank:                "BLANK",
	VerdictCommentOrBoilerplate: "COMMENT_OR_BOILERPLATE",
	VerdictSafePattern:          "SAFE_PATTERN",
	VerdictNaturalText:          "NATURAL_TEXT",
}

// String returns the canonical verdict name
func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// Suppressed reports whether the candidate is dropped before classification
func (v Verdict) Suppressed() bool {
	return v != VerdictPass
}

// ParseVerdict converts a verdict name to a Verdict.
// Names are matched case-insensitively.
func ParseVerdict(name string) (Verdict, error) {
	for v, n := range verdictNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return v, nil
		}
	}
	return VerdictPass, fmt.Errorf("unknown verdict %q", name)
}

// UnmarshalYAML lets rule files name verdicts as strings
func (v *Verdict) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	parsed, err := ParseVerdict(name)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalText renders the verdict name in JSON and as map keys
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
