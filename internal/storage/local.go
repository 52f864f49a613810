package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrTooLarge is returned by Save when the body exceeds the size cap.
var ErrTooLarge = errors.New("file exceeds size limit")

// Local keeps uploaded files and generated artifacts under a base directory.
type Local struct {
	baseDir string
	logger  *slog.Logger
}

func NewLocal(baseDir string, logger *slog.Logger) (*Local, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", baseDir, err)
	}
	return &Local{baseDir: baseDir, logger: logger}, nil
}

func (s *Local) BaseDir() string { return s.baseDir }

// SanitizeFileName strips directories and anything outside [A-Za-z0-9._-].
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	s := strings.Trim(b.String(), ".")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// Save writes r as uuid_<sanitized name> and returns the storage key.
// A body larger than max (when max > 0) is removed and ErrTooLarge returned.
func (s *Local) Save(ctx context.Context, fileName string, r io.Reader, max int64) (string, int64, error) {
	clean, err := SanitizeFileName(fileName)
	if err != nil {
		return "", 0, fmt.Errorf("sanitize file name: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	key := uuid.NewString() + "_" + clean
	full := filepath.Join(s.baseDir, key)

	f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("open file: %w", err)
	}
	src := r
	if max > 0 {
		src = io.LimitReader(r, max+1)
	}
	written, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && max > 0 && written > max {
		err = ErrTooLarge
	}
	if err != nil {
		s.removeQuiet(full)
		if errors.Is(err, ErrTooLarge) {
			return "", written, err
		}
		return "", written, fmt.Errorf("write body: %w", err)
	}
	s.logger.Debug("storage.save.ok", "key", key, "bytes", written)
	return key, written, nil
}

// Path resolves a storage key to a path under the base directory.
func (s *Local) Path(key string) (string, error) {
	clean := filepath.Clean(key)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.baseDir, clean), nil
}

func (s *Local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// Remove deletes the object; a missing object is not an error.
func (s *Local) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Local) removeQuiet(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("storage.remove.failed", "path", path, "error", err)
	}
}
