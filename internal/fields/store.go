package fields

import (
	"log/slog"
	"sync"
)

// Store guards the live configuration. Readers take a Snapshot and pass it on.
type Store struct {
	mu     sync.RWMutex
	cfg    Config
	path   string
	logger *slog.Logger
}

// NewStore wraps cfg. An empty path keeps updates in memory only.
func NewStore(cfg Config, path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{cfg: cfg.clone(), path: path, logger: logger}
}

func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.clone()
}

// Put upserts spec and persists the result. The in-memory config is left
// untouched when the file cannot be written.
func (s *Store) Put(spec Spec) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg.with(spec)
	if s.path != "" {
		if err := Save(s.path, next); err != nil {
			s.logger.Error("fields.save.failed", "path", s.path, "key", spec.Key, "error", err)
			return s.cfg.clone(), err
		}
	}
	s.cfg = next
	s.logger.Info("fields.updated", "key", spec.Key, "extract", spec.Extract, "required", spec.Required)
	return next.clone(), nil
}
