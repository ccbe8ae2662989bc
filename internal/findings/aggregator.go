// Package findings accumulates per-file findings and run statistics.
package findings

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

// ErrSealed is returned by mutators once a snapshot was taken
var ErrSealed = errors.New("aggregator is sealed")

// fingerprintSpace namespaces finding fingerprints
var fingerprintSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("codebert-scanner/finding"))

// fileState tracks one file in first-seen order
type fileState struct {
	path       string
	totalLines int
	findings   []*models.Finding
}

// Aggregator collects the results of a run. It is safe for concurrent use.
type Aggregator struct {
	mu         sync.Mutex
	stats      models.Statistics
	files      []*fileState
	index      map[string]*fileState
	readErrors []models.ReadError
	sealed     bool
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{index: make(map[string]*fileState)}
}

// FileOpened records a file the pipeline attempted to read
func (a *Aggregator) FileOpened(path string, totalLines int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		return ErrSealed
	}

	a.stats.FilesProcessed++
	a.file(path).totalLines = totalLines
	return nil
}

// ReadFailed records a file that could not be opened or decoded.
// The file still counts as processed.
func (a *Aggregator) ReadFailed(path string, err error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		return ErrSealed
	}

	a.stats.FilesProcessed++
	a.stats.ReadErrors++
	a.readErrors = append(a.readErrors, models.ReadError{Path: path, Message: err.Error()})
	return nil
}

// Suppressed records a candidate rejected before classification
func (a *Aggregator) Suppressed(verdict models.Verdict) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		return ErrSealed
	}
	if !verdict.Suppressed() {
		return fmt.Errorf("verdict %s does not suppress", verdict)
	}

	a.stats.FalsePositivesCaught++
	return nil
}

// Add records a finding
func (a *Aggregator) Add(f *models.Finding) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		return ErrSealed
	}
	if f == nil {
		return errors.New("nil finding")
	}
	if f.Severity.IsNone() {
		return fmt.Errorf("finding at %s:%d has severity None", f.FilePath, f.LineNumber)
	}

	if f.ID == "" {
		f.ID = Fingerprint(f)
	}

	fs := a.file(f.FilePath)
	fs.findings = append(fs.findings, f)
	a.stats.VulnerabilitiesFound++
	return nil
}

// ClassificationFailed records a candidate whose classification errored
func (a *Aggregator) ClassificationFailed(timeout bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		return ErrSealed
	}

	if timeout {
		a.stats.Timeouts++
	} else {
		a.stats.ClassificationErrors++
	}
	return nil
}

// Stats returns a copy of the current counters
func (a *Aggregator) Stats() models.Statistics {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Snapshot seals the aggregator and returns the final state
func (a *Aggregator) Snapshot() (*models.Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		return nil, ErrSealed
	}
	a.sealed = true

	snap := &models.Snapshot{
		Stats:      a.stats,
		Files:      make([]*models.FileSummary, 0, len(a.files)),
		Detailed:   make([]*models.Finding, 0, a.stats.VulnerabilitiesFound),
		ReadErrors: append([]models.ReadError(nil), a.readErrors...),
	}

	for _, fs := range a.files {
		if len(fs.findings) == 0 {
			continue
		}

		sorted := append([]*models.Finding(nil), fs.findings...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].LineNumber < sorted[j].LineNumber
		})

		snap.Files = append(snap.Files, &models.FileSummary{
			Path:       fs.path,
			TotalLines: fs.totalLines,
			Findings:   sorted,
		})
		snap.Detailed = append(snap.Detailed, sorted...)
	}

	return snap, nil
}

// file returns the state of path, creating it on first sight
func (a *Aggregator) file(path string) *fileState {
	fs, ok := a.index[path]
	if !ok {
		fs = &fileState{path: path}
		a.index[path] = fs
		a.files = append(a.files, fs)
	}
	return fs
}

// Fingerprint derives a stable identifier from the finding location and code
func Fingerprint(f *models.Finding) string {
	key := fmt.Sprintf("%s\x00%d\x00%s", f.FilePath, f.LineNumber, f.CodePreview)
	return uuid.NewSHA1(fingerprintSpace, []byte(key)).String()
}
