package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

func TestEncoderRoundTrip(t *testing.T) {
	e := NewEncoder(16)

	enc, err := e.Encode("id=1")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(enc.InputIDs) != 16 || len(enc.AttentionMask) != 16 {
		t.Fatalf("len = %d/%d, want 16", len(enc.InputIDs), len(enc.AttentionMask))
	}
	if enc.InputIDs[0] != ClsID || enc.InputIDs[5] != SepID || enc.InputIDs[6] != PadID {
		t.Errorf("framing = %v", enc.InputIDs[:7])
	}
	if enc.AttentionMask[5] != 1 || enc.AttentionMask[6] != 0 {
		t.Errorf("mask = %v", enc.AttentionMask[:7])
	}

	got, err := e.Decode(enc)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != "id=1" {
		t.Errorf("Decode() = %q, want id=1", got)
	}
}

func TestEncoderTruncates(t *testing.T) {
	e := NewEncoder(8)
	enc, _ := e.Encode(strings.Repeat("a", 20))

	if enc.Text != "aaaaaa" {
		t.Errorf("Text = %q, want 6 bytes", enc.Text)
	}
	if enc.InputIDs[7] != SepID {
		t.Errorf("last id = %d, want SEP", enc.InputIDs[7])
	}
}

func TestEncoderDefaultLength(t *testing.T) {
	if got := NewEncoder(0).MaxLength(); got != DefaultMaxLength {
		t.Errorf("MaxLength() = %d, want %d", got, DefaultMaxLength)
	}
}

func TestDecodeInvalid(t *testing.T) {
	e := NewEncoder(8)
	if _, err := e.Decode(nil); err == nil {
		t.Error("Decode(nil) expected error")
	}
	bad := &models.Encoding{InputIDs: []int64{ClsID, 999}, AttentionMask: []int64{1, 1}}
	if _, err := e.Decode(bad); err == nil {
		t.Error("Decode() expected error for out of range id")
	}
	short := &models.Encoding{InputIDs: []int64{ClsID}, AttentionMask: []int64{1, 1}}
	if _, err := e.Decode(short); err == nil {
		t.Error("Decode() expected error for mask mismatch")
	}
}

func TestDefaultLabels(t *testing.T) {
	labels, err := DefaultLabels()
	if err != nil {
		t.Fatalf("DefaultLabels() error = %v", err)
	}
	if got := labels.Severity.Name(4); got != "None" {
		t.Errorf("Severity.Name(4) = %q, want None", got)
	}
	if got := labels.Severity.Name(7); got != "Unknown" {
		t.Errorf("Severity.Name(7) = %q, want Unknown", got)
	}
	if got := labels.Vulnerability.Name(11); got != "SQL Injection" {
		t.Errorf("Vulnerability.Name(11) = %q, want SQL Injection", got)
	}
}

func TestLoadLabelMapFormats(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "sev.json")
	os.WriteFile(jsonPath, []byte(`{"Safe": 0, "Risky": 1}`), 0644)
	yamlPath := filepath.Join(dir, "sev.yaml")
	os.WriteFile(yamlPath, []byte("Safe: 0\nRisky: 1\n"), 0644)

	for _, path := range []string{jsonPath, yamlPath} {
		m, err := LoadLabelMap(path, nil)
		if err != nil {
			t.Fatalf("LoadLabelMap(%s) error = %v", path, err)
		}
		if m.Name(1) != "Risky" || m.Size() != 2 {
			t.Errorf("LoadLabelMap(%s) = %v", path, m.Names())
		}
	}
}

func TestLoadLabelMapErrors(t *testing.T) {
	dir := t.TempDir()
	dup := filepath.Join(dir, "dup.json")
	os.WriteFile(dup, []byte(`{"A": 0, "B": 0}`), 0644)

	tests := []struct {
		name string
		path string
	}{
		{"Missing file", filepath.Join(dir, "missing.json")},
		{"Duplicate index", dup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadLabelMap(tt.path, nil); err == nil {
				t.Error("LoadLabelMap() expected error")
			}
		})
	}

	if _, err := ParseLabelMap([]byte(`{}`)); err == nil {
		t.Error("ParseLabelMap() expected error for empty map")
	}
}

func TestDistribution(t *testing.T) {
	labels, err := models.NewLabelMap(map[string]int{"Critical": 0, "High": 1, "None": 2})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		label  string
		p      float64
		target int
	}{
		{"Defined label", "High", 0.8, 1},
		{"Case insensitive", "high", 0.8, 1},
		{"Missing label uses trailing slot", "Medium", 0.8, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist := Distribution(labels, tt.label, tt.p)
			if len(dist) != 4 {
				t.Fatalf("len = %d, want 4", len(dist))
			}
			var sum float64
			best := 0
			for i, p := range dist {
				sum += p
				if p > dist[best] {
					best = i
				}
			}
			if best != tt.target {
				t.Errorf("argmax = %d, want %d (%v)", best, tt.target, dist)
			}
			if sum < 0.999 || sum > 1.001 {
				t.Errorf("sum = %v, want 1", sum)
			}
			if labels.Name(best) != "Unknown" && tt.target == 3 {
				t.Errorf("trailing slot resolves to %q", labels.Name(best))
			}
		})
	}
}
