package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mhdfahrurozi/codebertTest/internal/classifier"
	"github.com/mhdfahrurozi/codebertTest/internal/config"
	"github.com/mhdfahrurozi/codebertTest/internal/filesystem"
	"github.com/mhdfahrurozi/codebertTest/internal/findings"
	"github.com/mhdfahrurozi/codebertTest/internal/source"
	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

// ProgressCallback is called to report scan progress
type ProgressCallback func(phase string, current, total int, message string)

// Scanner drives files through suppression and classification
type Scanner struct {
	config           *config.Config
	logger           *zap.Logger
	deps             *Deps
	sourceOpts       source.Options
	progressCallback ProgressCallback
	mu               sync.Mutex
	ran              bool
}

// NewScanner creates a new scanner instance
func NewScanner(cfg *config.Config, deps *Deps, logger *zap.Logger) (*Scanner, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if deps == nil || deps.Engine == nil || deps.Classifier == nil {
		return nil, errors.New("suppression engine and classifier are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scanner{
		config: cfg,
		logger: logger,
		deps:   deps,
		sourceOpts: source.Options{
			Window:      cfg.Scanner.Window,
			MinLength:   cfg.Scanner.MinLineLength,
			MaxFileSize: filesystem.ParseSize(cfg.Scanner.MaxFileSize),
		},
	}, nil
}

// SetProgressCallback sets the progress callback function
func (s *Scanner) SetProgressCallback(cb ProgressCallback) {
	s.progressCallback = cb
}

// reportProgress calls the progress callback if set
func (s *Scanner) reportProgress(phase string, current, total int, message string) {
	if s.progressCallback != nil {
		s.progressCallback(phase, current, total, message)
	}
}

// fileResult buffers everything one file produced until it is committed
type fileResult struct {
	index      int
	path       string
	totalLines int
	readErr    error
	verdicts   []models.Verdict
	findings   []*models.Finding
	failures   []bool // true = timeout
}

// Scan runs the pipeline over paths. A scanner runs once.
// On cancellation the files finished so far are returned with the context error.
func (s *Scanner) Scan(ctx context.Context, paths []string) (*models.Snapshot, error) {
	s.mu.Lock()
	if s.ran {
		s.mu.Unlock()
		return nil, errors.New("scanner already ran")
	}
	s.ran = true
	s.mu.Unlock()

	start := time.Now()
	workers := s.config.Scanner.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(paths) && len(paths) > 0 {
		workers = len(paths)
	}

	s.logger.Info("Starting scan",
		zap.Int("files", len(paths)),
		zap.Int("workers", workers),
		zap.Int("window", s.sourceOpts.Window))

	agg := findings.NewAggregator()
	if err := s.scanFiles(ctx, paths, workers, agg); err != nil {
		return nil, err
	}

	snap, err := agg.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot results: %w", err)
	}

	duration := time.Since(start)
	s.deps.Metrics.ScanFinished(duration)

	s.logger.Info("Scan completed",
		zap.Duration("duration", duration),
		zap.Int("files_processed", snap.Stats.FilesProcessed),
		zap.Int("vulnerabilities_found", snap.Stats.VulnerabilitiesFound),
		zap.Int("false_positives_caught", snap.Stats.FalsePositivesCaught))

	if err := ctx.Err(); err != nil {
		return snap, fmt.Errorf("scan interrupted: %w", err)
	}
	return snap, nil
}

// scanFiles scans all files using worker pool
func (s *Scanner) scanFiles(ctx context.Context, paths []string, workers int, agg *findings.Aggregator) error {
	// Create channels
	jobs := make(chan int, workers*2)
	resultsChan := make(chan *fileResult, workers*2)

	// Start worker pool
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go s.worker(ctx, &wg, paths, jobs, resultsChan)
	}

	// Start results collector
	var collectWg sync.WaitGroup
	var commitErr error
	collectWg.Add(1)
	go func() {
		defer collectWg.Done()
		commitErr = s.collectResults(resultsChan, len(paths), agg)
	}()

	// Feed files in input order
feed:
	for i := range paths {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}

	// Close channels and wait
	close(jobs)
	wg.Wait()
	close(resultsChan)
	collectWg.Wait()

	return commitErr
}

// worker processes files from the channel
func (s *Scanner) worker(ctx context.Context, wg *sync.WaitGroup, paths []string, jobs <-chan int, resultsChan chan<- *fileResult) {
	defer wg.Done()

	for idx := range jobs {
		if ctx.Err() != nil {
			// Drain without scanning
			continue
		}
		resultsChan <- s.scanFile(ctx, idx, paths[idx])
	}
}

// scanFile runs one file through suppression and classification.
// Lines are processed sequentially in file order.
func (s *Scanner) scanFile(ctx context.Context, idx int, path string) *fileResult {
	result := &fileResult{index: idx, path: path}

	src, err := source.Open(path, s.sourceOpts)
	if err != nil {
		s.logger.Warn("Failed to read file",
			zap.String("file", path),
			zap.Error(err))
		result.readErr = err
		return result
	}
	result.totalLines = src.TotalLines()

	for src.Scan() {
		if ctx.Err() != nil {
			break
		}
		cand := src.Candidate()

		verdict := s.deps.Engine.Evaluate(cand.StrippedText, cand.FilePath)
		s.deps.Metrics.Verdict(verdict)
		if verdict.Suppressed() {
			result.verdicts = append(result.verdicts, verdict)
			continue
		}

		started := time.Now()
		finding, _, err := s.deps.Classifier.Classify(ctx, cand)
		s.deps.Metrics.ObserveClassification(time.Since(started))
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			timeout := classifier.IsTimeout(err)
			if timeout {
				s.logger.Warn("Classification timed out, skipping line",
					zap.String("file", path),
					zap.Int("line", cand.LineNumber),
					zap.Error(err))
			} else {
				s.logger.Error("Classification failed, skipping line",
					zap.String("file", path),
					zap.Int("line", cand.LineNumber),
					zap.Error(err))
			}
			result.failures = append(result.failures, timeout)
			continue
		}

		if finding != nil {
			result.findings = append(result.findings, finding)
		}
	}

	return result
}

// collectResults commits file results to the aggregator in input order
func (s *Scanner) collectResults(resultsChan <-chan *fileResult, total int, agg *findings.Aggregator) error {
	pending := make(map[int]*fileResult)
	next := 0
	processed := 0
	lastReport := time.Now()
	var firstErr error

	for result := range resultsChan {
		pending[result.index] = result

		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			processed++

			if err := s.commit(r, agg); err != nil && firstErr == nil {
				firstErr = err
			}

			// Report progress every 100ms or every 100 files
			if time.Since(lastReport) > 100*time.Millisecond || processed%100 == 0 {
				s.reportProgress("scanning", processed, total, r.path)
				lastReport = time.Now()
			}
		}
	}

	// Files after a cancellation gap are still committed in order
	for len(pending) > 0 {
		r, ok := pending[next]
		next++
		if !ok {
			continue
		}
		delete(pending, r.index)
		processed++
		if err := s.commit(r, agg); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.reportProgress("scanning", processed, total, "Scan complete")
	return firstErr
}

// commit replays one file result into the aggregator and metrics
func (s *Scanner) commit(r *fileResult, agg *findings.Aggregator) error {
	m := s.deps.Metrics

	if r.readErr != nil {
		m.FileFailed()
		return agg.ReadFailed(r.path, r.readErr)
	}

	m.FileOpened()
	if err := agg.FileOpened(r.path, r.totalLines); err != nil {
		return err
	}

	for _, v := range r.verdicts {
		if err := agg.Suppressed(v); err != nil {
			return err
		}
	}
	for _, timeout := range r.failures {
		m.ClassificationFailed(timeout)
		if err := agg.ClassificationFailed(timeout); err != nil {
			return err
		}
	}
	for _, f := range r.findings {
		if err := agg.Add(f); err != nil {
			return fmt.Errorf("failed to record finding: %w", err)
		}
		m.Finding(f)
	}
	return nil
}
