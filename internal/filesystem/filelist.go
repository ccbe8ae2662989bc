package filesystem

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoFileList is returned when no file list path was supplied
var ErrNoFileList = errors.New("no file list provided")

// ReadFileList reads a newline-delimited list of paths.
// Blank lines are skipped and surrounding whitespace is trimmed.
func ReadFileList(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoFileList
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file list: %w", err)
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			paths = append(paths, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file list: %w", err)
	}

	return paths, nil
}
