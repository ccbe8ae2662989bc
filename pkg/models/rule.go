package models

import (
	"fmt"
	"regexp"
	"strings"
)

// MatchMode controls whether a rule must cover the whole line
type MatchMode string

const (
	MatchFull    MatchMode = "full"
	MatchPartial MatchMode = "partial"
)

// Rule is a suppression pattern
type Rule struct {
	ID          string    `yaml:"id" json:"id"`
	Description string    `yaml:"description" json:"description"`
	Pattern     string    `yaml:"pattern" json:"pattern"`
	Unless      string    `yaml:"unless" json:"unless,omitempty"` // Rule is skipped when this also matches
	Match       MatchMode `yaml:"match" json:"match"`
	Verdict     Verdict   `yaml:"verdict" json:"verdict"`
	Extensions  []string  `yaml:"extensions" json:"extensions"` // Empty means universal
	Enabled     *bool     `yaml:"enabled" json:"enabled,omitempty"`

	CompiledRe     *regexp.Regexp `yaml:"-" json:"-"`
	CompiledUnless *regexp.Regexp `yaml:"-" json:"-"`
}

// IsUniversal reports whether the rule applies to every file type
func (r *Rule) IsUniversal() bool {
	return len(r.Extensions) == 0
}

// IsEnabled reports whether the rule is active (enabled unless set to false)
func (r *Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Compile compiles the rule patterns case-insensitively.
// Full-match rules are anchored on both ends.
func (r *Rule) Compile() error {
	if r.Match == "" {
		r.Match = MatchPartial
	}
	if r.Match != MatchFull && r.Match != MatchPartial {
		return fmt.Errorf("rule %s: unknown match mode %q", r.ID, r.Match)
	}
	if r.Verdict == VerdictPass {
		return fmt.Errorf("rule %s: verdict must suppress", r.ID)
	}

	pattern := r.Pattern
	if r.Match == MatchFull {
		pattern = `^(?:` + strings.TrimSuffix(strings.TrimPrefix(pattern, "^"), "$") + `)$`
	}
	re, err := regexp.Compile(`(?is)` + pattern)
	if err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}
	r.CompiledRe = re

	if r.Unless != "" {
		unless, err := regexp.Compile(`(?i)` + r.Unless)
		if err != nil {
			return fmt.Errorf("rule %s unless: %w", r.ID, err)
		}
		r.CompiledUnless = unless
	}

	for i, ext := range r.Extensions {
		r.Extensions[i] = strings.ToLower(strings.TrimPrefix(ext, "."))
	}
	return nil
}

// Matches reports whether the rule applies to text
func (r *Rule) Matches(text string) bool {
	if r.CompiledRe == nil || !r.CompiledRe.MatchString(text) {
		return false
	}
	if r.CompiledUnless != nil && r.CompiledUnless.MatchString(text) {
		return false
	}
	return true
}

// RuleSet is the ordered suppression rule table
type RuleSet struct {
	Universal   []*Rule
	ByExtension map[string][]*Rule
	ByID        map[string]*Rule
}

// NewRuleSet creates an empty rule set
func NewRuleSet() *RuleSet {
	return &RuleSet{
		Universal:   make([]*Rule, 0),
		ByExtension: make(map[string][]*Rule),
		ByID:        make(map[string]*Rule),
	}
}

// AddRule compiles a rule and appends it to the table.
// A rule with an already known ID replaces the earlier one.
func (rs *RuleSet) AddRule(rule *Rule) error {
	if rule.ID == "" {
		return fmt.Errorf("rule with pattern %q has no id", rule.Pattern)
	}
	if !rule.IsEnabled() {
		rs.RemoveRule(rule.ID)
		return nil
	}
	if err := rule.Compile(); err != nil {
		return err
	}

	if _, exists := rs.ByID[rule.ID]; exists {
		rs.RemoveRule(rule.ID)
	}
	rs.ByID[rule.ID] = rule

	if rule.IsUniversal() {
		rs.Universal = append(rs.Universal, rule)
		return nil
	}
	for _, ext := range rule.Extensions {
		rs.ByExtension[ext] = append(rs.ByExtension[ext], rule)
	}
	return nil
}

// RemoveRule drops a rule by ID
func (rs *RuleSet) RemoveRule(id string) {
	if _, ok := rs.ByID[id]; !ok {
		return
	}
	delete(rs.ByID, id)
	rs.Universal = without(rs.Universal, id)
	for ext, rules := range rs.ByExtension {
		rs.ByExtension[ext] = without(rules, id)
	}
}

// ForExtension returns the ordered rules for an extension (without dot)
func (rs *RuleSet) ForExtension(ext string) []*Rule {
	return rs.ByExtension[strings.ToLower(ext)]
}

// Len returns the number of active rules
func (rs *RuleSet) Len() int {
	return len(rs.ByID)
}

func without(rules []*Rule, id string) []*Rule {
	out := rules[:0:0]
	for _, r := range rules {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
