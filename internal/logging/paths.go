package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLogDir returns ~/.lexdebate/logs, or a temp directory when the
// home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".lexdebate", "logs")
	}
	return filepath.Join(home, ".lexdebate", "logs")
}

// DefaultLogPath returns the log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "lexdebate.log")
}

// FindLogFile returns explicit if it exists, otherwise the default log.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("log file not found: %s", explicit)
		}
		return explicit, nil
	}

	path := DefaultLogPath()
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("no log file found at %s; run with --log-file to create one", path)
	}
	return path, nil
}
