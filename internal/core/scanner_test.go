package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mhdfahrurozi/codebertTest/internal/classifier"
	"github.com/mhdfahrurozi/codebertTest/internal/config"
	"github.com/mhdfahrurozi/codebertTest/internal/metrics"
	"github.com/mhdfahrurozi/codebertTest/internal/model"
	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

// stubModel labels lines by keyword and records every scored text
type stubModel struct {
	labels *model.Labels

	mu    sync.Mutex
	texts []string
}

func (s *stubModel) Encode(text string) (*models.Encoding, error) {
	return &models.Encoding{Text: text}, nil
}

func (s *stubModel) Score(ctx context.Context, enc *models.Encoding) (*models.Prediction, error) {
	s.mu.Lock()
	s.texts = append(s.texts, enc.Text)
	s.mu.Unlock()

	text := enc.Text
	switch {
	case strings.Contains(text, "SELECT"):
		return s.predict("High", "SQL Injection"), nil
	case strings.Contains(text, "innerHTML"):
		return s.predict("Critical", "XSS"), nil
	case strings.Contains(text, "mystery("):
		sev := make([]float64, 8)
		sev[7] = 0.9
		return &models.Prediction{
			Severity:      sev,
			Vulnerability: model.Distribution(s.labels.Vulnerability, "XSS", 0.9),
		}, nil
	case strings.Contains(text, "slow("):
		<-ctx.Done()
		return nil, ctx.Err()
	case strings.Contains(text, "broken("):
		return nil, errors.New("inference failed")
	default:
		return s.predict("None", "None"), nil
	}
}

func (s *stubModel) predict(sev, vuln string) *models.Prediction {
	return &models.Prediction{
		Severity:      model.Distribution(s.labels.Severity, sev, 0.9),
		Vulnerability: model.Distribution(s.labels.Vulnerability, vuln, 0.9),
	}
}

func (s *stubModel) scored() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func testConfig(workers int) *config.Config {
	return &config.Config{
		Scanner: config.ScannerConfig{
			Extensions:  []string{"php", "html", "htm", "js", "css"},
			Window:      1,
			MaxFileSize: "2M",
			Workers:     workers,
		},
		Model: config.ModelConfig{Backend: "pattern", MaxLength: 256},
	}
}

func newTestScanner(t *testing.T, cfg *config.Config, timeout time.Duration) (*Scanner, *stubModel, *Deps) {
	t.Helper()

	labels, err := model.DefaultLabels()
	require.NoError(t, err)

	stub := &stubModel{labels: labels}
	cls, err := classifier.New(stub, labels, classifier.Options{Timeout: timeout}, zap.NewNop())
	require.NoError(t, err)

	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	deps := &Deps{Engine: engine, Classifier: cls, Labels: labels, Metrics: metrics.New()}
	s, err := NewScanner(cfg, deps, zap.NewNop())
	require.NoError(t, err)
	return s, stub, deps
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewScannerValidation(t *testing.T) {
	_, err := NewScanner(nil, &Deps{}, nil)
	assert.Error(t, err)

	_, err = NewScanner(testConfig(1), nil, nil)
	assert.Error(t, err)

	_, err = NewScanner(testConfig(1), &Deps{}, nil)
	assert.Error(t, err)
}

func TestScanPipeline(t *testing.T) {
	dir := t.TempDir()
	php := writeFile(t, dir, "users.php", "<?php\n\n$query = \"SELECT * FROM users WHERE id=\" . $_GET['id'];\n")
	html := writeFile(t, dir, "index.html", "Hello, welcome to our site!\n</div>\n")
	js := writeFile(t, dir, "app.js", "var x = mystery(1);\n")

	s, stub, _ := newTestScanner(t, testConfig(1), time.Second)
	snap, err := s.Scan(context.Background(), []string{php, html, js})
	require.NoError(t, err)

	// Prose and closing tags never reach the model
	for _, text := range stub.scored() {
		assert.NotEqual(t, "Hello, welcome to our site!", text)
		assert.NotEqual(t, "</div>", text)
	}

	require.Len(t, snap.Detailed, 2)

	// SQL concatenation with request input
	sql := snap.Detailed[0]
	assert.Equal(t, php, sql.FilePath)
	assert.Equal(t, 3, sql.LineNumber)
	assert.Equal(t, models.Severity("High"), sql.Severity)
	assert.Equal(t, models.VulnerabilityType("SQL Injection"), sql.VulnerabilityType)
	assert.NotEmpty(t, sql.ID)

	// Severity index outside the label map
	unknown := snap.Detailed[1]
	assert.Equal(t, js, unknown.FilePath)
	assert.Equal(t, models.SeverityUnknown, unknown.Severity)
	assert.Equal(t, models.VulnXSS, unknown.VulnerabilityType)

	assert.Equal(t, 3, snap.Stats.FilesProcessed)
	assert.Equal(t, len(snap.Detailed), snap.Stats.VulnerabilitiesFound)
	// <?php, greeting and closing tag
	assert.Equal(t, 3, snap.Stats.FalsePositivesCaught)

	require.Len(t, snap.Files, 2)
	assert.Equal(t, php, snap.Files[0].Path)
	assert.Equal(t, 3, snap.Files[0].TotalLines)
}

func TestScanNoneSeverityIsNotReported(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "safe.js", "var total = add(a, b);\n")

	s, stub, _ := newTestScanner(t, testConfig(1), time.Second)
	snap, err := s.Scan(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Len(t, stub.scored(), 1)
	assert.Empty(t, snap.Detailed)
	assert.Empty(t, snap.Files)
	assert.Equal(t, 1, snap.Stats.FilesProcessed)
	assert.Zero(t, snap.Stats.VulnerabilitiesFound)
}

func TestScanZeroQualifyingLines(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "blank.css", "\n   \n\t\n")

	s, stub, _ := newTestScanner(t, testConfig(1), time.Second)
	snap, err := s.Scan(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Empty(t, stub.scored())
	assert.Equal(t, 1, snap.Stats.FilesProcessed)
	assert.Zero(t, snap.Stats.FalsePositivesCaught)
	assert.Empty(t, snap.Files)
}

func TestScanUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "gone.php")
	ok := writeFile(t, dir, "ok.js", "el.innerHTML = location.hash;\n")

	s, _, _ := newTestScanner(t, testConfig(1), time.Second)
	snap, err := s.Scan(context.Background(), []string{missing, ok})
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Stats.FilesProcessed)
	assert.Equal(t, 1, snap.Stats.ReadErrors)
	require.Len(t, snap.ReadErrors, 1)
	assert.Equal(t, missing, snap.ReadErrors[0].Path)
	require.Len(t, snap.Detailed, 1)
	assert.Equal(t, models.VulnXSS, snap.Detailed[0].VulnerabilityType)
}

func TestScanLineFailuresAreSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "flaky.js", "slow(1);\nbroken(2);\nel.innerHTML = x;\n")

	s, _, deps := newTestScanner(t, testConfig(1), 20*time.Millisecond)
	snap, err := s.Scan(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Stats.Timeouts)
	assert.Equal(t, 1, snap.Stats.ClassificationErrors)
	require.Len(t, snap.Detailed, 1)
	assert.Equal(t, 3, snap.Detailed[0].LineNumber)
	assert.NotNil(t, deps.Metrics.Registry())
}

func TestScanDeterministicAcrossWorkers(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 12; i++ {
		content := fmt.Sprintf("el.innerHTML = input%d;\nvar q = \"SELECT %d\" + id;\n", i, i)
		paths = append(paths, writeFile(t, dir, fmt.Sprintf("f%02d.js", i), content))
	}

	run := func(workers int) *models.Snapshot {
		s, _, _ := newTestScanner(t, testConfig(workers), time.Second)
		snap, err := s.Scan(context.Background(), paths)
		require.NoError(t, err)
		return snap
	}

	sequential := run(1)
	parallel := run(4)

	assert.Equal(t, sequential.Stats, parallel.Stats)
	require.Len(t, parallel.Detailed, len(sequential.Detailed))
	for i := range sequential.Detailed {
		assert.Equal(t, sequential.Detailed[i].ID, parallel.Detailed[i].ID)
	}
	assert.Equal(t, paths[0], parallel.Files[0].Path)
	assert.Equal(t, paths[11], parallel.Files[11].Path)
}

func TestScanWindowMode(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "w.js", "var a = 1;\n\nvar b = 2;\nel.innerHTML = b;\n")

	cfg := testConfig(1)
	cfg.Scanner.Window = 2
	s, stub, _ := newTestScanner(t, cfg, time.Second)
	snap, err := s.Scan(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Len(t, stub.scored(), 2)
	require.Len(t, snap.Detailed, 1)
	assert.Equal(t, 3, snap.Detailed[0].LineNumber)
}

func TestScanCancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.js", "el.innerHTML = x;\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, _, _ := newTestScanner(t, testConfig(2), time.Second)
	snap, err := s.Scan(ctx, []string{path})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, snap)
}

func TestScanRunsOnce(t *testing.T) {
	s, _, _ := newTestScanner(t, testConfig(1), time.Second)
	_, err := s.Scan(context.Background(), nil)
	require.NoError(t, err)

	_, err = s.Scan(context.Background(), nil)
	assert.Error(t, err)
}

func TestProgressCallback(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.js", "el.innerHTML = x;\n")

	s, _, _ := newTestScanner(t, testConfig(1), time.Second)
	var last string
	calls := 0
	s.SetProgressCallback(func(phase string, current, total int, message string) {
		calls++
		last = message
		assert.Equal(t, "scanning", phase)
		assert.Equal(t, 1, total)
	})

	_, err := s.Scan(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Positive(t, calls)
	assert.Equal(t, "Scan complete", last)
}

func TestBuildModel(t *testing.T) {
	labels, err := model.DefaultLabels()
	require.NoError(t, err)

	m, err := BuildModel(testConfig(1), labels)
	require.NoError(t, err)
	assert.NotNil(t, m)

	cfg := testConfig(1)
	cfg.Model.Backend = "bert"
	_, err = BuildModel(cfg, labels)
	assert.Error(t, err)
}

func TestNewDeps(t *testing.T) {
	deps, err := NewDeps(testConfig(1), zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, deps.Engine)
	assert.NotNil(t, deps.Classifier)
	assert.NotNil(t, deps.Metrics)
}
