package testutil

import (
	"path/filepath"
	"testing"
)

// TempDBPath returns a database path inside a fresh temp directory
func TempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(CreateTempDir(t), "history.db")
}
