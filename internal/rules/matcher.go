package rules

import (
	"strings"

	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

// Matcher evaluates text against a rule set
type Matcher struct {
	rules *models.RuleSet
}

// NewMatcher creates a new rule matcher
func NewMatcher(rs *models.RuleSet) *Matcher {
	return &Matcher{rules: rs}
}

// MatchUniversal returns the first universal rule matching text, or nil
func (m *Matcher) MatchUniversal(text string) *models.Rule {
	return first(m.rules.Universal, text)
}

// MatchExtension returns the first rule for ext matching text, or nil
func (m *Matcher) MatchExtension(text, ext string) *models.Rule {
	return first(m.rules.ForExtension(strings.TrimPrefix(ext, ".")), text)
}

// RuleSet returns the underlying rule table
func (m *Matcher) RuleSet() *models.RuleSet {
	return m.rules
}

func first(rules []*models.Rule, text string) *models.Rule {
	for _, rule := range rules {
		if rule.Matches(text) {
			return rule
		}
	}
	return nil
}
