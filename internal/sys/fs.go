package sys

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalFS reads and writes reply text files, resolving relative paths against a base directory.
type LocalFS struct {
	baseDir string
}

// NewLocalFS creates a LocalFS rooted at baseDir; empty means the working directory.
func NewLocalFS(baseDir string) *LocalFS {
	if baseDir == "" {
		baseDir, _ = os.Getwd()
	}
	return &LocalFS{baseDir: baseDir}
}

// ReadText loads a reply from disk. CRLF becomes LF, a UTF-8 BOM and trailing
// newlines are dropped.
func (l *LocalFS) ReadText(path string) (string, error) {
	data, err := os.ReadFile(l.Resolve(path))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	text := strings.TrimPrefix(string(data), "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimRight(text, "\n"), nil
}

// WriteText saves a reply with a single trailing newline, creating parent directories.
func (l *LocalFS) WriteText(path, text string) error {
	fullPath := l.Resolve(path)

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	return os.WriteFile(fullPath, []byte(strings.TrimRight(text, "\n")+"\n"), 0644)
}

// Resolve makes path absolute against the base directory.
func (l *LocalFS) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.baseDir, path)
}
