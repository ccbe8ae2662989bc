package report

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// AppendSignal appends a KEY=true line to a build pipeline environment file
func AppendSignal(path, variable string) error {
	variable = strings.TrimSpace(variable)
	if path == "" {
		return errors.New("signal file path is empty")
	}
	if variable == "" || strings.ContainsAny(variable, "=\n") {
		return fmt.Errorf("invalid signal variable %q", variable)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open signal file: %w", err)
	}

	if _, err := fmt.Fprintf(f, "%s=true\n", variable); err != nil {
		f.Close()
		return fmt.Errorf("failed to write signal: %w", err)
	}
	return f.Close()
}
