package anthropic

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mhdfahrurozi/codebertTest/internal/model"
)

type fakeCompleter struct {
	reply  string
	err    error
	system string
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, system, prompt string) (string, error) {
	f.system = system
	f.prompt = prompt
	return f.reply, f.err
}

func argmax(dist []float64) int {
	best := 0
	for i, p := range dist {
		if p > dist[best] {
			best = i
		}
	}
	return best
}

func newTestModel(t *testing.T, c Completer) (*Model, *model.Labels) {
	t.Helper()
	labels, err := model.DefaultLabels()
	if err != nil {
		t.Fatal(err)
	}
	m, err := NewWithCompleter(labels, c, Options{MaxLength: 64})
	if err != nil {
		t.Fatalf("NewWithCompleter() error = %v", err)
	}
	return m, labels
}

func TestScore(t *testing.T) {
	tests := []struct {
		name          string
		reply         string
		severity      string
		vulnerability string
	}{
		{
			name:          "Plain JSON",
			reply:         `{"severity": "High", "vulnerability": "SQL Injection", "confidence": 90}`,
			severity:      "High",
			vulnerability: "SQL Injection",
		},
		{
			name:          "Markdown wrapped",
			reply:         "Here you go:\n```json\n{\"severity\": \"critical\", \"vulnerability\": \"xss\", \"confidence\": 0.7}\n```",
			severity:      "Critical",
			vulnerability: "XSS",
		},
		{
			name:          "Unknown names",
			reply:         `{"severity": "Severe", "vulnerability": "Prototype Pollution", "confidence": 80}`,
			severity:      "Unknown",
			vulnerability: "Unknown",
		},
		{
			name:          "Safe line",
			reply:         `{"severity": "None", "vulnerability": "None", "confidence": 95}`,
			severity:      "None",
			vulnerability: "None",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCompleter{reply: tt.reply}
			m, labels := newTestModel(t, fake)

			enc, _ := m.Encode(`$q = "SELECT " . $_GET['id'];`)
			pred, err := m.Score(context.Background(), enc)
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}

			if got := labels.Severity.Name(argmax(pred.Severity)); got != tt.severity {
				t.Errorf("severity = %s, want %s", got, tt.severity)
			}
			if got := labels.Vulnerability.Name(argmax(pred.Vulnerability)); got != tt.vulnerability {
				t.Errorf("vulnerability = %s, want %s", got, tt.vulnerability)
			}
			if !strings.Contains(fake.prompt, `$_GET['id']`) {
				t.Errorf("prompt does not carry the line: %q", fake.prompt)
			}
			if !strings.Contains(fake.system, "SQL Injection") {
				t.Error("system prompt does not list the vulnerability labels")
			}
		})
	}
}

func TestScoreErrors(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeCompleter
	}{
		{"API failure", &fakeCompleter{err: errors.New("overloaded")}},
		{"Not JSON", &fakeCompleter{reply: "I cannot help with that"}},
		{"Missing severity", &fakeCompleter{reply: `{"vulnerability": "XSS"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t, tt.fake)
			enc, _ := m.Encode("x")
			if _, err := m.Score(context.Background(), enc); err == nil {
				t.Error("Score() expected error")
			}
		})
	}
}

func TestScoreHonorsContext(t *testing.T) {
	labels, _ := model.DefaultLabels()
	m, err := NewWithCompleter(labels, &fakeCompleter{reply: `{"severity":"None"}`}, Options{RequestsPerSecond: 0.001})
	if err != nil {
		t.Fatal(err)
	}
	enc, _ := m.Encode("x")

	// First call consumes the burst
	if _, err := m.Score(context.Background(), enc); err != nil {
		t.Fatalf("first Score() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Score(ctx, enc); err == nil {
		t.Error("Score() expected error once the limiter has to wait on a cancelled context")
	}
}

func TestMapModelName(t *testing.T) {
	tests := map[string]string{
		"haiku":            "claude-3-5-haiku-latest",
		"":                 "claude-3-5-haiku-latest",
		"Sonnet":           "claude-sonnet-4-20250514",
		"opus":             "claude-opus-4-20250514",
		"claude-custom-id": "claude-custom-id",
	}
	for in, want := range tests {
		if got := mapModelName(in); got != want {
			t.Errorf("mapModelName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := NewClient("haiku", ""); err == nil {
		t.Error("NewClient() expected error without a token")
	}
}

func TestNormalizeConfidence(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, minConfidence},
		{0.8, 0.8},
		{80, 0.8},
		{100, maxConfidence},
	}
	for _, tt := range tests {
		if got := normalizeConfidence(tt.in); got != tt.want {
			t.Errorf("normalizeConfidence(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
