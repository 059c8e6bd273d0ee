// Package settings persists per-project state that phptdd learns at runtime,
// such as whether the PHP interpreter needs extensions loaded explicitly.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// Dir is the per-project state directory.
	Dir = ".phptdd"

	fileName      = "settings.local.json"
	schemaVersion = "1"
)

// Settings is the content of .phptdd/settings.local.json.
type Settings struct {
	ExtensionsEnabled bool      `json:"extensions_enabled"` // php needs -d extension=... to tokenize
	UpdatedAt         time.Time `json:"updated_at"`
	SchemaVersion     string    `json:"schema_version"`
}

// Path returns the settings file location for a project.
func Path(projectPath string) string {
	return filepath.Join(projectPath, Dir, fileName)
}

// LoadOrCreate loads existing settings or returns defaults when the file is
// missing, unreadable or malformed.
func LoadOrCreate(projectPath string) *Settings {
	data, err := os.ReadFile(Path(projectPath))
	if err == nil {
		var s Settings
		if json.Unmarshal(data, &s) == nil {
			return &s
		}
	}

	return &Settings{SchemaVersion: schemaVersion}
}

// Save writes settings to disk using atomic write (temp + rename).
// Creates the .phptdd directory if it doesn't exist.
func (s *Settings) Save(projectPath string) error {
	dir := filepath.Join(projectPath, Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if s.SchemaVersion == "" {
		s.SchemaVersion = schemaVersion
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	path := Path(projectPath)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return nil
}

// Store keeps the capability flag for the tokenizer: read before every
// tokenize call, written only when a retry proves extensions are needed.
type Store struct {
	mu          sync.Mutex
	projectPath string
	settings    *Settings
	now         func() time.Time
}

// NewStore loads the project's settings. When enabled is true the flag is
// forced on for this session without being written.
func NewStore(projectPath string, enabled bool) *Store {
	s := LoadOrCreate(projectPath)
	if enabled {
		s.ExtensionsEnabled = true
	}
	return &Store{projectPath: projectPath, settings: s, now: time.Now}
}

// ExtensionsEnabled implements tokenizer.Capabilities.
func (s *Store) ExtensionsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.ExtensionsEnabled
}

// EnableExtensions implements tokenizer.Capabilities. The flag is set in
// memory even when saving fails.
func (s *Store) EnableExtensions() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.ExtensionsEnabled = true
	s.settings.UpdatedAt = s.now().UTC()
	if err := s.settings.Save(s.projectPath); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.settings
}
