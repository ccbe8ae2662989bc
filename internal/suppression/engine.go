// Package suppression rejects candidates that cannot be meaningful code
// before they reach the classifier.
package suppression

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mhdfahrurozi/codebertTest/internal/rules"
	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

// DangerousTokens is the statement punctuation that disqualifies a line
// from the markup and natural-language heuristics
const DangerousTokens = ";{}()=<>"

// DefaultSensitiveIdentifiers are substrings that keep a line out of the
// markup and natural-language heuristics (matched case-insensitively)
var DefaultSensitiveIdentifiers = []string{
	"script", "alert", "onerror", "onload", "onclick", "onmouseover", "onfocus",
	"eval", "document.", "window.", "javascript:", "innerhtml", "$_",
}

// DefaultCommentMarkers are the line-leading comment markers per language family
var DefaultCommentMarkers = map[models.Language][]string{
	models.LanguageScript:       {"//", "/*", "*"},
	models.LanguageServerScript: {"//", "#", "/*", "*", "<!--"},
	models.LanguageMarkup:       {"<!--", "-->"},
	models.LanguageStylesheet:   {"/*", "*", "//"},
}

// DefaultMaxMarkupLength caps the markup-context heuristic
const DefaultMaxMarkupLength = 120

// Options tunes the heuristic steps
type Options struct {
	MaxMarkupLength      int
	SensitiveIdentifiers []string
	CommentMarkers       map[models.Language][]string
}

// DefaultOptions returns the built-in heuristic settings
func DefaultOptions() Options {
	return Options{
		MaxMarkupLength:      DefaultMaxMarkupLength,
		SensitiveIdentifiers: DefaultSensitiveIdentifiers,
		CommentMarkers:       DefaultCommentMarkers,
	}
}

var (
	wordToken   = regexp.MustCompile(`\w+`)
	tagLikeLine = regexp.MustCompile(`^<\w`)
)

// Engine decides a verdict for each candidate. It holds no mutable state,
// so Evaluate is safe for concurrent use.
type Engine struct {
	matcher   *rules.Matcher
	maxMarkup int
	sensitive []string
	comments  map[models.Language][]string
}

// NewEngine creates an engine over a compiled rule set
func NewEngine(rs *models.RuleSet, opts Options) *Engine {
	if opts.MaxMarkupLength <= 0 {
		opts.MaxMarkupLength = DefaultMaxMarkupLength
	}
	if len(opts.SensitiveIdentifiers) == 0 {
		opts.SensitiveIdentifiers = DefaultSensitiveIdentifiers
	}
	if opts.CommentMarkers == nil {
		opts.CommentMarkers = DefaultCommentMarkers
	}

	sensitive := make([]string, len(opts.SensitiveIdentifiers))
	for i, s := range opts.SensitiveIdentifiers {
		sensitive[i] = strings.ToLower(s)
	}

	return &Engine{
		matcher:   rules.NewMatcher(rs),
		maxMarkup: opts.MaxMarkupLength,
		sensitive: sensitive,
		comments:  opts.CommentMarkers,
	}
}

// Evaluate returns the verdict for stripped text found in filePath.
// Checks run in fixed precedence and the first match wins.
func (e *Engine) Evaluate(strippedText, filePath string) models.Verdict {
	verdict, _ := e.Explain(strippedText, filePath)
	return verdict
}

// Explain is Evaluate that also names the deciding step or rule ID
func (e *Engine) Explain(strippedText, filePath string) (models.Verdict, string) {
	text := strings.TrimSpace(strippedText)
	ext := models.Extension(filePath)
	lang := models.LanguageOf(ext)

	// 1. Blank
	if text == "" {
		return models.VerdictBlank, "blank"
	}

	// 2. Universal rules
	if rule := e.matcher.MatchUniversal(text); rule != nil {
		return rule.Verdict, rule.ID
	}

	// 3. File-type rules
	if rule := e.matcher.MatchExtension(text, ext); rule != nil {
		return rule.Verdict, rule.ID
	}

	// 4. Comment syntax
	for _, marker := range e.comments[lang] {
		if strings.HasPrefix(text, marker) {
			return models.VerdictCommentOrBoilerplate, "comment"
		}
	}

	dangerous := e.hasDangerousToken(text)

	// 5. Markup context
	if lang == models.LanguageMarkup || looksLikeTag(text) {
		if !dangerous && utf8.RuneCountInString(text) < e.maxMarkup {
			return models.VerdictSafePattern, "markup-context"
		}
	}

	// 6. Natural language
	if !dangerous && isProse(text) {
		return models.VerdictNaturalText, "natural-language"
	}

	return models.VerdictPass, ""
}

// hasDangerousToken reports statement punctuation or a sensitive identifier
func (e *Engine) hasDangerousToken(text string) bool {
	if strings.ContainsAny(text, DangerousTokens) {
		return true
	}
	lower := strings.ToLower(text)
	for _, s := range e.sensitive {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func looksLikeTag(text string) bool {
	return tagLikeLine.MatchString(text) || strings.Contains(text, "</")
}

// isProse checks the sentence shape: more than five words, more than five
// word tokens, starts with a letter, ends with . ? or !
func isProse(text string) bool {
	if len(strings.Fields(text)) <= 5 {
		return false
	}
	if len(wordToken.FindAllString(text, 6)) <= 5 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(text)
	if !unicode.IsLetter(first) {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(text)
	return last == '.' || last == '?' || last == '!'
}
