package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

func collect(s *Source) []models.Candidate {
	var out []models.Candidate
	for s.Scan() {
		out = append(out, s.Candidate())
	}
	return out
}

func TestSingleLineMode(t *testing.T) {
	text := "<?php\n\n   $a = 1;   \r\n\t\n$b = $_GET['x'];\n"
	src := FromText("a.php", text, Options{Window: 1})

	got := collect(src)
	want := []struct {
		line     int
		stripped string
	}{
		{1, "<?php"},
		{3, "$a = 1;"},
		{5, "$b = $_GET['x'];"},
	}

	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].LineNumber != w.line {
			t.Errorf("candidate %d LineNumber = %d, want %d", i, got[i].LineNumber, w.line)
		}
		if got[i].StrippedText != w.stripped {
			t.Errorf("candidate %d StrippedText = %q, want %q", i, got[i].StrippedText, w.stripped)
		}
		if got[i].FilePath != "a.php" || got[i].Window != 1 {
			t.Errorf("candidate %d metadata = %+v", i, got[i])
		}
	}

	if src.TotalLines() != 5 {
		t.Errorf("TotalLines() = %d, want 5", src.TotalLines())
	}
}

func TestRawTextKeepsIndentation(t *testing.T) {
	src := FromText("a.js", "    let x = 1;\r\n", Options{})
	if !src.Scan() {
		t.Fatal("Scan() = false, want true")
	}
	c := src.Candidate()
	if c.RawText != "    let x = 1;" {
		t.Errorf("RawText = %q", c.RawText)
	}
	if c.StrippedText != "let x = 1;" {
		t.Errorf("StrippedText = %q", c.StrippedText)
	}
}

func TestWindowMode(t *testing.T) {
	text := "a();\n\nb();\nc();\n\nd();\n"
	src := FromText("w.js", text, Options{Window: 3})

	got := collect(src)
	// 4 non-empty lines, window 3 => 2 candidates
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].LineNumber != 1 || got[0].StrippedText != "a();\nb();\nc();" {
		t.Errorf("window 0 = %+v", got[0])
	}
	if got[1].LineNumber != 3 || got[1].StrippedText != "b();\nc();\nd();" {
		t.Errorf("window 1 = %+v", got[1])
	}
	if got[0].Window != 3 {
		t.Errorf("Window = %d, want 3", got[0].Window)
	}
}

func TestWindowLargerThanFile(t *testing.T) {
	src := FromText("w.js", "a();\nb();\n", Options{Window: 5})
	if got := collect(src); len(got) != 0 {
		t.Errorf("got %d candidates, want 0", len(got))
	}
	if src.TotalLines() != 2 {
		t.Errorf("TotalLines() = %d, want 2", src.TotalLines())
	}
}

func TestMinLength(t *testing.T) {
	src := FromText("a.js", "}\nshort;\nlong enough line;\n", Options{MinLength: 11})
	got := collect(src)
	if len(got) != 1 || got[0].LineNumber != 3 {
		t.Errorf("got %+v, want only line 3", got)
	}
}

func TestNotRestartable(t *testing.T) {
	src := FromText("a.js", "x();\n", Options{})
	if n := len(collect(src)); n != 1 {
		t.Fatalf("first pass got %d candidates, want 1", n)
	}
	if src.Scan() {
		t.Error("Scan() after exhaustion = true, want false")
	}
	if src.Candidate() != (models.Candidate{}) {
		t.Error("Candidate() after exhaustion should be zero")
	}
}

func TestEmptyFile(t *testing.T) {
	src := FromText("e.html", "", Options{})
	if src.Scan() {
		t.Error("Scan() on empty file = true")
	}
	if src.TotalLines() != 0 {
		t.Errorf("TotalLines() = %d, want 0", src.TotalLines())
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	if err := os.WriteFile(path, []byte("<div>\n<p>hi</p>\n"), 0644); err != nil {
		t.Fatal(err)
	}

	src, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := collect(src); len(got) != 2 {
		t.Errorf("got %d candidates, want 2", len(got))
	}
	if src.Path() != path {
		t.Errorf("Path() = %q, want %q", src.Path(), path)
	}
}

func TestOpenMissing(t *testing.T) {
	src, err := Open("/nonexistent/x.js", Options{})
	if err == nil {
		t.Fatal("Open() expected error")
	}
	if src != nil {
		t.Error("Open() should return nil source on error")
	}
}
