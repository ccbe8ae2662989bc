package models

import (
	"path/filepath"
	"strings"
)

// Candidate is a unit of text eligible for classification
type Candidate struct {
	FilePath     string // Path of the source file
	LineNumber   int    // 1-based physical line, or first line of the window
	RawText      string // Text as read, without the line terminator
	StrippedText string // RawText with surrounding whitespace removed
	Window       int    // Number of non-empty lines covered (1 in single-line mode)
}

// Language is the comment-syntax family of a file
type Language string

const (
	LanguageScript       Language = "script"
	LanguageMarkup       Language = "markup"
	LanguageStylesheet   Language = "stylesheet"
	LanguageServerScript Language = "server_script"
	LanguageUnknown      Language = "unknown"
)

var languageByExtension = map[string]Language{
	"js":    LanguageScript,
	"jsx":   LanguageScript,
	"mjs":   LanguageScript,
	"cjs":   LanguageScript,
	"ts":    LanguageScript,
	"tsx":   LanguageScript,
	"html":  LanguageMarkup,
	"htm":   LanguageMarkup,
	"xhtml": LanguageMarkup,
	"shtml": LanguageMarkup,
	"vue":   LanguageMarkup,
	"css":   LanguageStylesheet,
	"scss":  LanguageStylesheet,
	"less":  LanguageStylesheet,
	"php":   LanguageServerScript,
	"php3":  LanguageServerScript,
	"php4":  LanguageServerScript,
	"php5":  LanguageServerScript,
	"php7":  LanguageServerScript,
	"phtml": LanguageServerScript,
	"pht":   LanguageServerScript,
	"inc":   LanguageServerScript,
}

// Extension returns the lowercased extension of path without the dot
func Extension(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// LanguageOf returns the language family for an extension (without dot)
func LanguageOf(ext string) Language {
	if lang, ok := languageByExtension[strings.ToLower(ext)]; ok {
		return lang
	}
	return LanguageUnknown
}
