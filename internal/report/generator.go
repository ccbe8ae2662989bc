// Package report renders the final run state into report files.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mhdfahrurozi/codebertTest/internal/config"
	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

// DefaultPreviewLength caps code previews when no length is configured
const DefaultPreviewLength = 100

// Options controls rendering
type Options struct {
	PreviewLength int    // code preview cap in runes
	ToolName      string // SARIF driver name
	ToolVersion   string
}

// Generator writes every configured report format
type Generator struct {
	config *config.Config
	logger *zap.Logger
	opts   Options
}

// renderer produces one format
type renderer func(*models.Snapshot, Options) ([]byte, error)

// NewGenerator creates a new report generator
func NewGenerator(cfg *config.Config, logger *zap.Logger, opts Options) (*Generator, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = cfg.Report.PreviewLength
	}
	if opts.ToolName == "" {
		opts.ToolName = "codebert-scanner"
	}
	return &Generator{config: cfg, logger: logger, opts: opts}, nil
}

// Generate writes the text report and any optional formats.
// It returns the paths written so far, even on error.
func (g *Generator) Generate(snap *models.Snapshot) ([]string, error) {
	if snap == nil {
		return nil, errors.New("nil snapshot")
	}

	outputs := []struct {
		format string
		path   string
		render renderer
	}{
		{"text", g.config.Report.Output, RenderText},
		{"json", g.config.Report.JSONOutput, RenderJSON},
		{"sarif", g.config.Report.SARIFOutput, RenderSARIF},
		{"markdown", g.config.Report.MarkdownOutput, RenderMarkdown},
	}

	var written []string
	for _, out := range outputs {
		if out.path == "" {
			continue
		}

		g.logger.Info("Generating report",
			zap.String("format", out.format),
			zap.String("output", out.path))

		data, err := out.render(snap, g.opts)
		if err != nil {
			return written, fmt.Errorf("failed to render %s report: %w", out.format, err)
		}
		if err := WriteFile(out.path, data); err != nil {
			return written, fmt.Errorf("failed to write %s report: %w", out.format, err)
		}
		written = append(written, out.path)
	}

	return written, nil
}

// WriteFile replaces path with data through a temporary file in the same directory
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
