package upload

import (
	"context"       // Context for cancellation
	"fmt"           // Error wrapping
	"io"            // Copying
	"os"            // File system
	"path/filepath" // Path joining
	"strings"       // URL trimming
)

// Local stores uploads in a directory served under /uploads
type Local struct {
	dir     string // Target directory
	baseURL string // Public base URL, may be empty for relative links
}

// NewLocal creates the upload directory if needed
func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", dir, err)
	}
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the directory uploads are written to
func (l *Local) Dir() string {
	return l.dir
}

// Put writes body to <dir>/<name> and returns <baseURL>/uploads/<name>
func (l *Local) Put(ctx context.Context, name string, body io.Reader, _ int64, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err // Request already cancelled
	}
	path := filepath.Join(l.dir, filepath.Base(name))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(path) // Do not leave partial files behind
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return l.baseURL + "/uploads/" + filepath.Base(name), nil
}
