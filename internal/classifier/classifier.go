// Package classifier turns model scores into findings.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mhdfahrurozi/codebertTest/internal/model"
	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

// DefaultTimeout is the per-line classification budget
const DefaultTimeout = 30 * time.Second

// Options configures the classifier
type Options struct {
	Timeout time.Duration // 0 disables the per-line timeout
}

// Classifier applies the decision rule on top of a model
type Classifier struct {
	model   model.Model
	labels  *model.Labels
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a classifier
func New(m model.Model, labels *model.Labels, opts Options, logger *zap.Logger) (*Classifier, error) {
	if m == nil {
		return nil, errors.New("model is required")
	}
	if labels == nil || labels.Severity == nil || labels.Vulnerability == nil {
		return nil, errors.New("label maps are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		model:   m,
		labels:  labels,
		timeout: opts.Timeout,
		logger:  logger,
	}, nil
}

// Classify scores a candidate. The finding is nil when severity resolves to None.
func (c *Classifier) Classify(ctx context.Context, cand models.Candidate) (*models.Finding, *models.ClassificationResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	enc, err := c.model.Encode(cand.StrippedText)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode line %d: %w", cand.LineNumber, err)
	}

	pred, err := c.model.Score(ctx, enc)
	if err == nil && ctx.Err() != nil {
		// A late answer past the deadline is still a timeout
		err = ctx.Err()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to score line %d: %w", cand.LineNumber, err)
	}

	result, err := c.Resolve(pred)
	if err != nil {
		return nil, nil, fmt.Errorf("line %d: %w", cand.LineNumber, err)
	}

	c.logger.Debug("Line classified",
		zap.String("file", cand.FilePath),
		zap.Int("line", cand.LineNumber),
		zap.String("severity", string(result.Severity)),
		zap.String("vulnerability", string(result.VulnerabilityType)))

	if result.Severity.IsNone() {
		return nil, result, nil
	}

	return &models.Finding{
		FilePath:          cand.FilePath,
		LineNumber:        cand.LineNumber,
		Severity:          result.Severity,
		VulnerabilityType: result.VulnerabilityType,
		CodePreview:       cand.StrippedText,
		Confidence:        result.SeverityConfidence,
	}, result, nil
}

// Resolve maps both heads through the label maps
func (c *Classifier) Resolve(pred *models.Prediction) (*models.ClassificationResult, error) {
	if pred == nil {
		return nil, errors.New("model returned no prediction")
	}

	sevIdx, sevP, err := Argmax(pred.Severity)
	if err != nil {
		return nil, fmt.Errorf("severity head: %w", err)
	}
	vulnIdx, vulnP, err := Argmax(pred.Vulnerability)
	if err != nil {
		return nil, fmt.Errorf("vulnerability head: %w", err)
	}

	return &models.ClassificationResult{
		Severity:                models.Severity(c.labels.Severity.Name(sevIdx)),
		VulnerabilityType:       models.VulnerabilityType(c.labels.Vulnerability.Name(vulnIdx)),
		SeverityIndex:           sevIdx,
		VulnerabilityIndex:      vulnIdx,
		SeverityConfidence:      sevP,
		VulnerabilityConfidence: vulnP,
	}, nil
}

// Argmax returns the first index holding the largest value
func Argmax(dist []float64) (int, float64, error) {
	if len(dist) == 0 {
		return 0, 0, errors.New("empty distribution")
	}
	best := 0
	for i := 1; i < len(dist); i++ {
		if dist[i] > dist[best] {
			best = i
		}
	}
	return best, dist[best], nil
}

// IsTimeout reports whether err comes from the per-line deadline
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
