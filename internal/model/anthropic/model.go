// Package anthropic implements a model backed by the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/mhdfahrurozi/codebertTest/internal/model"
	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

const (
	minConfidence = 0.51
	maxConfidence = 0.99
)

// Options configures the remote model
type Options struct {
	APIKey            string
	Model             string
	MaxLength         int
	RequestsPerSecond float64 // <= 0 disables limiting
}

// Model asks a hosted LLM to label each line
type Model struct {
	encoder   *model.Encoder
	labels    *model.Labels
	completer Completer
	limiter   *rate.Limiter
	system    string
}

// reply is the JSON document the model is asked to produce
type reply struct {
	Severity      string  `json:"severity"`
	Vulnerability string  `json:"vulnerability"`
	Confidence    float64 `json:"confidence"`
}

// New creates a model using the Anthropic API
func New(labels *model.Labels, opts Options) (*Model, error) {
	client, err := NewClient(opts.Model, opts.APIKey)
	if err != nil {
		return nil, err
	}
	return NewWithCompleter(labels, client, opts)
}

// NewWithCompleter creates a model using an arbitrary completer
func NewWithCompleter(labels *model.Labels, c Completer, opts Options) (*Model, error) {
	if labels == nil || labels.Severity == nil || labels.Vulnerability == nil {
		return nil, fmt.Errorf("label maps are required")
	}
	if c == nil {
		return nil, fmt.Errorf("completer is required")
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Model{
		encoder:   model.NewEncoder(opts.MaxLength),
		labels:    labels,
		completer: c,
		limiter:   rate.NewLimiter(limit, 1),
		system:    SystemPrompt(labels.Severity.Names(), labels.Vulnerability.Names()),
	}, nil
}

// Encode implements model.Model
func (m *Model) Encode(text string) (*models.Encoding, error) {
	return m.encoder.Encode(text)
}

// Score implements model.Model
func (m *Model) Score(ctx context.Context, enc *models.Encoding) (*models.Prediction, error) {
	text, err := m.encoder.Decode(enc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode input: %w", err)
	}

	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	raw, err := m.completer.Complete(ctx, m.system, BuildLinePrompt(text))
	if err != nil {
		return nil, err
	}

	r, err := parseReply(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	p := normalizeConfidence(r.Confidence)
	return &models.Prediction{
		Severity:      model.Distribution(m.labels.Severity, r.Severity, p),
		Vulnerability: model.Distribution(m.labels.Vulnerability, r.Vulnerability, p),
	}, nil
}

func parseReply(text string) (*reply, error) {
	var r reply
	if err := json.Unmarshal([]byte(extractJSON(text)), &r); err != nil {
		return nil, err
	}
	if r.Severity == "" {
		return nil, fmt.Errorf("reply has no severity")
	}
	return &r, nil
}

// normalizeConfidence accepts 0-1 or 0-100 and keeps the argmax unambiguous
func normalizeConfidence(c float64) float64 {
	if c > 1 {
		c /= 100
	}
	if c < minConfidence {
		return minConfidence
	}
	if c > maxConfidence {
		return maxConfidence
	}
	return c
}
