package filesystem

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/mhdfahrurozi/codebertTest/internal/config"
)

// ErrFileTooLarge is returned when a file exceeds the configured size limit
var ErrFileTooLarge = errors.New("file exceeds size limit")

// ReadText reads a file and decodes it to UTF-8 text.
// UTF-16 content with a byte order mark is transcoded, a UTF-8 BOM is
// dropped and invalid UTF-8 sequences become U+FFFD.
func ReadText(path string, maxSize int64) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("failed to read file: %s is a directory", path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return "", fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, info.Size(), maxSize)
	}

	// Read file content
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return Decode(content)
}

// Decode converts raw file bytes to UTF-8 text
func Decode(content []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(content), decoder))
	if err != nil {
		return "", fmt.Errorf("failed to decode file: %w", err)
	}
	return string(decoded), nil
}

// ParseSize parses size string (e.g., "650K", "1M") to bytes.
// Unparsable sizes yield 0, which disables the limit.
func ParseSize(sizeStr string) int64 {
	size, err := config.ParseSize(sizeStr)
	if err != nil {
		return 0
	}
	return size
}

// GetExtension returns the file extension without dot
func GetExtension(path string) string {
	ext := filepath.Ext(path)
	if len(ext) > 0 && ext[0] == '.' {
		return ext[1:]
	}
	return ext
}
