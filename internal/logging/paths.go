package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.memex/logs/).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".memex", "logs")
	}
	return filepath.Join(home, ".memex", "logs")
}

// DefaultLogPath returns the debug log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "memex.log")
}
