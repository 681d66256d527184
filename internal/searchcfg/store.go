package searchcfg

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/crosslink/internal/domain"
)

// Store loads, validates, persists, and merges the search configuration.
// The installed config is an immutable value: every update swaps the whole
// instance, so in-flight requests keep the config they started with.
type Store struct {
	savedPath   string
	defaultPath string
	logger      *zap.Logger

	mu      sync.RWMutex
	current Config
	raw     map[string]any
	loaded  bool
}

// NewStore creates a configuration store. savedPath holds operator updates;
// defaultPath holds the shipped default document.
func NewStore(savedPath, defaultPath string, logger *zap.Logger) *Store {
	return &Store{
		savedPath:   savedPath,
		defaultPath: defaultPath,
		logger:      logger,
	}
}

// Load reads the configuration: the saved document if present and valid,
// otherwise the default document, otherwise an error. The result is
// installed as the current config.
func (s *Store) Load() (Config, error) {
	raw, err := s.loadRaw()
	if err != nil {
		return Config{}, err
	}

	cfg, err := FromRaw(raw)
	if err != nil {
		return Config{}, err
	}

	s.mu.Lock()
	s.current = cfg
	s.raw = raw
	s.loaded = true
	s.mu.Unlock()

	return cfg, nil
}

// Current returns the installed configuration, loading it on first use.
func (s *Store) Current() (Config, error) {
	s.mu.RLock()
	if s.loaded {
		cfg := s.current
		s.mu.RUnlock()
		return cfg, nil
	}
	s.mu.RUnlock()
	return s.Load()
}

// Save merges a partial update onto the current document, re-validates the
// merged result, persists it, and installs it. An invalid merge leaves both
// the on-disk state and the installed config untouched. Unknown keys are
// rejected.
func (s *Store) Save(update map[string]any) (Config, error) {
	merged, cfg, err := s.merge(update)
	if err != nil {
		return Config{}, err
	}

	if err := writeYAML(s.savedPath, merged); err != nil {
		return Config{}, fmt.Errorf("persist config: %w", err)
	}

	s.mu.Lock()
	s.current = cfg
	s.raw = merged
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("search config saved", zap.Int("updated_fields", len(update)))
	return cfg, nil
}

// WithOverrides merges a partial update onto the current document and
// validates it, without persisting or installing anything. Used for
// per-request config overrides.
func (s *Store) WithOverrides(update map[string]any) (Config, error) {
	if len(update) == 0 {
		return s.Current()
	}
	_, cfg, err := s.merge(update)
	return cfg, err
}

// ResetToDefaults installs the factory configuration in memory without
// touching persisted state.
func (s *Store) ResetToDefaults() Config {
	cfg := Default()

	s.mu.Lock()
	s.current = cfg
	s.raw = cfg.ToRaw()
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("search config reset to factory defaults")
	return cfg
}

func (s *Store) merge(update map[string]any) (map[string]any, Config, error) {
	if len(update) == 0 {
		return nil, Config{}, domain.NewValidationError("config", "no configuration data provided")
	}

	if _, err := s.Current(); err != nil {
		return nil, Config{}, err
	}

	s.mu.RLock()
	merged := make(map[string]any, len(s.raw))
	for k, v := range s.raw {
		merged[k] = v
	}
	s.mu.RUnlock()

	for k, v := range update {
		if _, known := merged[k]; !known {
			return nil, Config{}, domain.NewValidationError(k, "unknown configuration key")
		}
		merged[k] = v
	}

	cfg, err := FromRaw(merged)
	if err != nil {
		return nil, Config{}, err
	}

	// Canonicalize coerced values so the persisted document round-trips.
	return cfg.ToRaw(), cfg, nil
}

// loadRaw reads the saved document, falling back to the default document.
func (s *Store) loadRaw() (map[string]any, error) {
	saved, err := readYAML(s.savedPath)
	switch {
	case err == nil:
		vErr := Validate(saved)
		if vErr == nil {
			return saved, nil
		}
		s.logger.Warn("saved config invalid, falling back to defaults",
			zap.String("path", s.savedPath), zap.Error(vErr))
	case !os.IsNotExist(err):
		s.logger.Warn("failed to read saved config, falling back to defaults",
			zap.String("path", s.savedPath), zap.Error(err))
	}

	raw, err := readYAML(s.defaultPath)
	if err != nil {
		return nil, fmt.Errorf("load default config %s: %w", s.defaultPath, err)
	}
	return raw, nil
}

func readYAML(path string) (map[string]any, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return raw, nil
}

// writeYAML persists atomically via a temp file and rename, so a failed
// write never corrupts the saved document.
func writeYAML(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
