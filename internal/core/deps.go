package core

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mhdfahrurozi/codebertTest/internal/classifier"
	"github.com/mhdfahrurozi/codebertTest/internal/config"
	"github.com/mhdfahrurozi/codebertTest/internal/metrics"
	"github.com/mhdfahrurozi/codebertTest/internal/model"
	"github.com/mhdfahrurozi/codebertTest/internal/model/anthropic"
	"github.com/mhdfahrurozi/codebertTest/internal/model/pattern"
	"github.com/mhdfahrurozi/codebertTest/internal/rules"
	"github.com/mhdfahrurozi/codebertTest/internal/suppression"
)

// Deps holds the pipeline stages a scanner drives
type Deps struct {
	Engine     *suppression.Engine
	Classifier *classifier.Classifier
	Labels     *model.Labels
	Metrics    *metrics.Recorder // optional
}

// NewDeps builds every stage from configuration
func NewDeps(cfg *config.Config, logger *zap.Logger) (*Deps, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	labels, err := model.LoadLabels(cfg.Model.SeverityLabels, cfg.Model.VulnerabilityLabels)
	if err != nil {
		return nil, fmt.Errorf("failed to load label maps: %w", err)
	}

	m, err := BuildModel(cfg, labels)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s model: %w", cfg.Model.Backend, err)
	}

	cls, err := classifier.New(m, labels, classifier.Options{Timeout: cfg.ClassifyTimeout()}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize classifier: %w", err)
	}

	logger.Info("Pipeline initialized",
		zap.String("backend", cfg.Model.Backend),
		zap.Int("severity_labels", labels.Severity.Size()),
		zap.Int("vulnerability_labels", labels.Vulnerability.Size()))

	return &Deps{
		Engine:     engine,
		Classifier: cls,
		Labels:     labels,
		Metrics:    metrics.New(),
	}, nil
}

// NewEngine loads the built-in rules plus any configured rule files
func NewEngine(cfg *config.Config) (*suppression.Engine, error) {
	rs, err := rules.Default()
	if err != nil {
		return nil, err
	}
	if cfg.Suppression.RulesPath != "" {
		if err := rules.NewLoader(cfg.Suppression.RulesPath).Load(rs); err != nil {
			return nil, fmt.Errorf("failed to load suppression rules: %w", err)
		}
	}

	opts := suppression.DefaultOptions()
	if cfg.Suppression.MaxMarkupLength > 0 {
		opts.MaxMarkupLength = cfg.Suppression.MaxMarkupLength
	}
	if len(cfg.Suppression.SensitiveIdentifiers) > 0 {
		opts.SensitiveIdentifiers = cfg.Suppression.SensitiveIdentifiers
	}
	return suppression.NewEngine(rs, opts), nil
}

// BuildModel creates the configured model backend
func BuildModel(cfg *config.Config, labels *model.Labels) (model.Model, error) {
	switch cfg.Model.Backend {
	case "", "pattern":
		return pattern.New(labels, pattern.Options{
			MaxLength:        cfg.Model.MaxLength,
			SignaturesPath:   cfg.Model.SignaturesPath,
			DeobfuscateDepth: cfg.Model.DeobfuscateDepth,
		})
	case "anthropic":
		return anthropic.New(labels, anthropic.Options{
			APIKey:            cfg.Model.APIKey,
			Model:             cfg.Model.AnthropicModel,
			MaxLength:         cfg.Model.MaxLength,
			RequestsPerSecond: cfg.Model.RequestsPerSecond,
		})
	default:
		return nil, errors.New("unknown model backend: " + cfg.Model.Backend)
	}
}
