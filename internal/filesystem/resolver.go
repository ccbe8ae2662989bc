package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mhdfahrurozi/codebertTest/internal/config"
	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"
)

// Resolver filters an input path list down to the files the scanner handles
type Resolver struct {
	config  *config.Config
	logger  *zap.Logger
	exclude *ignore.GitIgnore
}

// NewResolver creates a resolver from the scanner extension and exclude settings
func NewResolver(cfg *config.Config, logger *zap.Logger) (*Resolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	patterns := append([]string{}, cfg.Scanner.Exclude...)

	// Load ignore file if configured
	if cfg.Scanner.IgnoreFile != "" {
		content, err := os.ReadFile(cfg.Scanner.IgnoreFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read ignore file: %w", err)
		}
		patterns = append(patterns, strings.Split(string(content), "\n")...)
	}

	return &Resolver{
		config:  cfg,
		logger:  logger,
		exclude: ignore.CompileIgnoreLines(patterns...),
	}, nil
}

// Resolve keeps paths with a recognized extension that are not excluded.
// Input order is preserved and duplicates are dropped.
func (r *Resolver) Resolve(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	resolved := make([]string, 0, len(paths))

	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}

		ext := strings.ToLower(GetExtension(path))
		if !r.config.ShouldScanFile(ext) {
			r.logger.Debug("Skipping unrecognized extension", zap.String("path", path))
			continue
		}

		if r.shouldExclude(path) {
			r.logger.Debug("Skipping excluded path", zap.String("path", path))
			continue
		}

		key := filepath.Clean(path)
		if seen[key] {
			continue
		}
		seen[key] = true
		resolved = append(resolved, path)
	}

	return resolved
}

// shouldExclude checks the path against the ignore patterns
func (r *Resolver) shouldExclude(path string) bool {
	rel := filepath.ToSlash(filepath.Clean(path))
	rel = strings.TrimPrefix(rel, "/")
	return r.exclude.MatchesPath(rel)
}
