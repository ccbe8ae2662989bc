// Package source turns file content into ordered classification candidates.
package source

import (
	"strings"

	"github.com/mhdfahrurozi/codebertTest/internal/filesystem"
	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

// Options controls how candidates are produced
type Options struct {
	Window      int   // 1 = single-line mode, >1 = sliding window over non-empty lines
	MinLength   int   // stripped lines shorter than this are not emitted
	MaxFileSize int64 // 0 = unlimited
}

type line struct {
	number   int
	raw      string
	stripped string
}

// Source is a lazy, non-restartable sequence of candidates for one file.
// Use it like bufio.Scanner: call Scan until it returns false, reading
// Candidate after each successful Scan.
type Source struct {
	path       string
	window     int
	lines      []line
	totalLines int
	pos        int
	current    models.Candidate
	done       bool
}

// Open reads and decodes path. A read or decode failure is returned as an
// error and no candidates are produced.
func Open(path string, opts Options) (*Source, error) {
	text, err := filesystem.ReadText(path, opts.MaxFileSize)
	if err != nil {
		return nil, err
	}
	return FromText(path, text, opts), nil
}

// FromText builds a source over already decoded text
func FromText(path, text string, opts Options) *Source {
	window := opts.Window
	if window < 1 {
		window = 1
	}

	physical := splitLines(text)
	lines := make([]line, 0, len(physical))
	for i, raw := range physical {
		stripped := strings.TrimSpace(raw)
		if stripped == "" || len(stripped) < opts.MinLength {
			continue
		}
		lines = append(lines, line{number: i + 1, raw: raw, stripped: stripped})
	}

	return &Source{
		path:       path,
		window:     window,
		lines:      lines,
		totalLines: len(physical),
	}
}

// splitLines splits on \n, dropping \r and the empty tail after a final newline
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.Split(text, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\r")
	}
	return parts
}

// Scan advances to the next candidate
func (s *Source) Scan() bool {
	if s.done {
		return false
	}
	if s.pos+s.window > len(s.lines) {
		s.done = true
		s.current = models.Candidate{}
		return false
	}

	group := s.lines[s.pos : s.pos+s.window]
	s.pos++

	if s.window == 1 {
		s.current = models.Candidate{
			FilePath:     s.path,
			LineNumber:   group[0].number,
			RawText:      group[0].raw,
			StrippedText: group[0].stripped,
			Window:       1,
		}
		return true
	}

	raw := make([]string, len(group))
	stripped := make([]string, len(group))
	for i, l := range group {
		raw[i] = l.raw
		stripped[i] = l.stripped
	}
	s.current = models.Candidate{
		FilePath:     s.path,
		LineNumber:   group[0].number,
		RawText:      strings.Join(raw, "\n"),
		StrippedText: strings.Join(stripped, "\n"),
		Window:       s.window,
	}
	return true
}

// Candidate returns the candidate produced by the last successful Scan
func (s *Source) Candidate() models.Candidate {
	return s.current
}

// TotalLines returns the physical line count of the file
func (s *Source) TotalLines() int {
	return s.totalLines
}

// Path returns the file path
func (s *Source) Path() string {
	return s.path
}
