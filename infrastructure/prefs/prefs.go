// Package prefs provides the persisted preference store. Values are keyed
// by (module identity, setting name), loaded once at startup and written
// back on relevant changes and at shutdown.
package prefs

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store is a mutex-guarded key-value store backed by a YAML file.
type Store struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	values map[string]any
}

// DefaultPath returns the default preference file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "sirena", "prefs.yaml")
}

// Open loads the store from path. A missing or unreadable file yields an
// empty store; preferences are not worth failing startup over.
func Open(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		path:   path,
		logger: logger,
		values: make(map[string]any),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Could not read preferences, starting empty", "path", path, "error", err)
		}
		return s
	}
	if err := yaml.Unmarshal(data, &s.values); err != nil {
		logger.Warn("Could not parse preferences, starting empty", "path", path, "error", err)
		s.values = make(map[string]any)
	}
	return s
}

func key(module, name string) string {
	return module + "." + name
}

// Set changes the value of a preference.
func (s *Store) Set(module, name string, value any) {
	s.mu.Lock()
	s.values[key(module, name)] = value
	s.mu.Unlock()
}

// Get retrieves the raw value of a preference, or def if unset.
func (s *Store) Get(module, name string, def any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key(module, name)]; ok {
		return v
	}
	return def
}

// GetString retrieves a string preference, or def if unset or mistyped.
func (s *Store) GetString(module, name, def string) string {
	if v, ok := s.Get(module, name, def).(string); ok {
		return v
	}
	return def
}

// GetBool retrieves a boolean preference, or def if unset or mistyped.
func (s *Store) GetBool(module, name string, def bool) bool {
	if v, ok := s.Get(module, name, def).(bool); ok {
		return v
	}
	return def
}

// GetInt retrieves an integer preference, or def if unset or mistyped.
func (s *Store) GetInt(module, name string, def int) int {
	if v, ok := s.Get(module, name, def).(int); ok {
		return v
	}
	return def
}

// GetStrings retrieves a string-list preference, or def if unset. YAML
// round-trips lists as []any, so both shapes are accepted.
func (s *Store) GetStrings(module, name string, def []string) []string {
	switch v := s.Get(module, name, nil).(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return def
	}
}

// Save writes the store back to disk, creating the directory if needed.
func (s *Store) Save() error {
	s.mu.Lock()
	data, err := yaml.Marshal(s.values)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
