// Package pattern implements an offline model that scores lines with
// weighted signatures and context multipliers.
package pattern

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/mhdfahrurozi/codebertTest/internal/deobfuscator"
	"github.com/mhdfahrurozi/codebertTest/internal/model"
	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

const (
	// noneConfidence is the probability given to "None" when nothing matched
	noneConfidence = 0.9

	// secondaryWeight is the share of weight contributed by each extra match
	secondaryWeight = 0.2

	// entropyBonus is added to credential scores with random-looking literals
	entropyBonus = 0.3

	defaultDeobfuscateDepth = 5
)

// Options configures the pattern model
type Options struct {
	MaxLength        int
	SignaturesPath   string // empty selects the built-in table
	DeobfuscateDepth int
}

// Model scores text against the signature table
type Model struct {
	encoder      *model.Encoder
	labels       *model.Labels
	signatures   []*Signature
	contexts     *ContextDetector
	deobfuscator *deobfuscator.Manager
}

// Analysis is the outcome of matching one text
type Analysis struct {
	Matched    []*Signature
	Top        *Signature
	Context    Context
	Techniques []string
	Score      float64
	Severity   models.Severity
}

// New creates a pattern model emitting distributions over labels
func New(labels *model.Labels, opts Options) (*Model, error) {
	if labels == nil || labels.Severity == nil || labels.Vulnerability == nil {
		return nil, fmt.Errorf("label maps are required")
	}

	sigs, err := LoadSignatures(opts.SignaturesPath)
	if err != nil {
		return nil, err
	}

	depth := opts.DeobfuscateDepth
	if depth <= 0 {
		depth = defaultDeobfuscateDepth
	}

	return &Model{
		encoder:      model.NewEncoder(opts.MaxLength),
		labels:       labels,
		signatures:   sigs,
		contexts:     NewContextDetector(),
		deobfuscator: deobfuscator.NewDefaultManager(depth),
	}, nil
}

// Encode implements model.Model
func (m *Model) Encode(text string) (*models.Encoding, error) {
	return m.encoder.Encode(text)
}

// Score implements model.Model
func (m *Model) Score(ctx context.Context, enc *models.Encoding) (*models.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := m.encoder.Decode(enc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode input: %w", err)
	}

	a := m.Analyze(text)
	if a.Top == nil {
		return &models.Prediction{
			Severity:      model.Distribution(m.labels.Severity, string(models.SeverityNone), noneConfidence),
			Vulnerability: model.Distribution(m.labels.Vulnerability, "None", noneConfidence),
		}, nil
	}

	p := Confidence(a.Score)
	return &models.Prediction{
		Severity:      model.Distribution(m.labels.Severity, string(a.Severity), p),
		Vulnerability: model.Distribution(m.labels.Vulnerability, a.Top.Vulnerability, p),
	}, nil
}

// Analyze matches text against every signature and computes its risk score
func (m *Model) Analyze(text string) *Analysis {
	a := &Analysis{Context: ContextDefault, Severity: models.SeverityNone}

	subjects := []string{text}
	decoded, applied := m.deobfuscator.Deobfuscate(text)
	if len(applied) > 0 {
		subjects = append(subjects, decoded)
		a.Techniques = applied
	}

	for _, sig := range m.signatures {
		for _, s := range subjects {
			if sig.Matches(s) {
				a.Matched = append(a.Matched, sig)
				break
			}
		}
	}
	if len(a.Matched) == 0 {
		return a
	}

	// Ties keep table order
	top := a.Matched[0]
	var sum float64
	for _, sig := range a.Matched {
		if sig.Weight > top.Weight {
			top = sig
		}
		sum += sig.Weight
	}
	score := top.Weight + secondaryWeight*(sum-top.Weight)

	contexts := m.contexts.DetectContexts(strings.Join(subjects, "\n"))
	if len(applied) > 0 {
		contexts[ContextEncoded] = true
	}
	a.Context = PrimaryContext(contexts)
	score *= a.Context.Multiplier()

	if models.VulnerabilityType(top.Vulnerability) == models.VulnHardcodedCredential &&
		MaxLiteralEntropy(text) >= EntropyRandomLiteral {
		score += entropyBonus
	}

	a.Top = top
	a.Score = score
	a.Severity = SeverityForScore(score)
	return a
}

// SeverityForScore maps a risk score to a severity label
func SeverityForScore(score float64) models.Severity {
	switch {
	case score >= 2.0:
		return models.SeverityCritical
	case score >= 1.5:
		return models.SeverityHigh
	case score >= 0.8:
		return models.SeverityMedium
	case score > 0:
		return models.SeverityLow
	default:
		return models.SeverityNone
	}
}

// Confidence maps a risk score into (0.5, 0.99]
func Confidence(score float64) float64 {
	if score <= 0 {
		return 0.5
	}
	return 0.5 + 0.49*math.Tanh(score)
}

// Signatures returns the loaded signature table
func (m *Model) Signatures() []*Signature {
	return m.signatures
}
