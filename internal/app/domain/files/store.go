// Package files is the filesystem-backed store for uploaded book files.
package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openshelf/openshelf/internal/app/models"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename strips path components and unsafe characters from a
// client-supplied name. Returns "" when nothing usable remains.
func SanitizeFilename(name string) string {
	// Windows clients send backslash-separated paths.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" || name == "_" {
		return ""
	}
	return name
}

// Store persists uploaded files under a single storage root, keyed by
// sanitized filename.
type Store struct {
	root   string
	logger *zap.Logger
}

// NewStore creates the storage root if needed.
func NewStore(root string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", root, err)
	}
	return &Store{root: root, logger: logger}, nil
}

// Save sanitizes originalName and writes the stream under it. A name that
// collides with an existing file is deterministically renamed with a short
// random suffix rather than overwritten.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	name := SanitizeFilename(originalName)
	if name == "" {
		return "", fmt.Errorf("unusable filename %q: %w", originalName, models.ErrInvalidInput)
	}

	f, err := os.OpenFile(filepath.Join(s.root, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		name = suffixed(name)
		f, err = os.OpenFile(filepath.Join(s.root, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(filepath.Join(s.root, name))
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(filepath.Join(s.root, name))
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	s.logger.Info("Stored uploaded file", zap.String("filename", name))
	return name, nil
}

// suffixed inserts a short random tag before the extension so a colliding
// upload never clobbers an earlier one.
func suffixed(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return base + "-" + uuid.NewString()[:8] + ext
}

// Path resolves a stored filename to its absolute location, rejecting any
// name that could escape the storage root.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != SanitizeFilename(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("illegal filename %q: %w", name, models.ErrNotFound)
	}
	p := filepath.Join(s.root, name)
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file %s: %w", name, models.ErrNotFound)
		}
		return "", fmt.Errorf("stat %s: %w", name, err)
	}
	return p, nil
}

// Open returns the stored bytes for name.
func (s *Store) Open(name string) (*os.File, error) {
	p, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// Remove deletes a stored file. Used to roll back an upload whose catalog
// insert failed.
func (s *Store) Remove(name string) error {
	p, err := s.Path(name)
	if err != nil {
		return err
	}
	return os.Remove(p)
}
