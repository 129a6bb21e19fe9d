// Package config loads and saves user-configurable settings from config.json.
package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Config holds all user-configurable settings loaded from config.json
type Config struct {
	Search  SearchConfig  `json:"search"`
	Index   IndexConfig   `json:"index"`
	History HistoryConfig `json:"history"`
}

// SearchConfig holds search-related settings
type SearchConfig struct {
	DebounceMs int `json:"debounceMs"` // Delay before search-as-you-type dispatches

	// ContentScanCap bounds how many bytes of a file a local content search
	// reads. PreviewScanCap is the separate cap used when indexing content
	// for preview-style lookups; the two are independent settings.
	ContentScanCap int64 `json:"contentScanCap"`
	PreviewScanCap int64 `json:"previewScanCap"`

	RegexDefault bool `json:"regexDefault"` // Start new searches in regex mode
}

// IndexConfig holds background index settings
type IndexConfig struct {
	Enabled         bool     `json:"enabled"`
	ContentSearch   bool     `json:"contentSearch"` // Index file contents for global content search
	Roots           []string `json:"roots"`         // Directories covered by the index
	DBPath          string   `json:"dbPath"`        // SQLite database location, empty for default
	WatchDebounceMs int      `json:"watchDebounceMs"`
}

// HistoryConfig holds search history settings
type HistoryConfig struct {
	Enabled    bool `json:"enabled"`
	MaxEntries int  `json:"maxEntries"`
}

// Manager handles loading, saving, and accessing configuration
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	parseErr error // Stores parsing error if config failed to load
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config: DefaultConfig(),
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Search: SearchConfig{
			DebounceMs:     250,
			ContentScanCap: 50 * 1024,  // 50KB per file for live content scans
			PreviewScanCap: 100 * 1024, // 100KB per file when indexing content
			RegexDefault:   false,
		},
		Index: IndexConfig{
			Enabled:         true,
			ContentSearch:   false,
			Roots:           []string{home},
			DBPath:          "", // Resolved to DefaultDBPath at open time
			WatchDebounceMs: 200,
		},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: 200,
		},
	}
}

// ConfigPath returns the config file path: ~/.config/scour/config.json
// This is consistent across all platforms (Windows, macOS, Linux)
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "scour", "config.json")
}

// DefaultDBPath returns the default location for the index/history database.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "scour", "scour.db")
}

// Load reads the configuration from the config file
// If the file doesn't exist, creates it with defaults
// If parsing fails, stores the error and returns defaults
func (m *Manager) Load() error {
	return m.LoadFrom(ConfigPath())
}

// LoadFrom reads the configuration from an explicit path.
func (m *Manager) LoadFrom(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.path = path
	m.parseErr = nil

	// Ensure config directory exists
	configDir := filepath.Dir(m.path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		log.Printf("Config: failed to create directory %s: %v", configDir, err)
		return err
	}

	// Try to read existing config
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		// Create default config file
		m.config = DefaultConfig()
		if saveErr := m.saveUnlocked(); saveErr != nil {
			log.Printf("Config: failed to save default config: %v", saveErr)
			return saveErr
		}
		return nil
	}
	if err != nil {
		log.Printf("Config: failed to read %s: %v", m.path, err)
		return err
	}

	// Parse JSON
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		// Store error for UI display, use defaults
		log.Printf("Config: JSON parse error: %v", err)
		m.parseErr = err
		m.config = DefaultConfig()
		return nil // Don't return error - we're using defaults
	}

	m.config = &cfg
	return nil
}

// saveUnlocked saves config without acquiring lock (caller must hold lock)
func (m *Manager) saveUnlocked() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveUnlocked()
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return *DefaultConfig()
	}
	return *m.config
}

// ParseError returns the parsing error if config failed to load
func (m *Manager) ParseError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseErr
}

// SetIndexEnabled updates the index enabled setting
func (m *Manager) SetIndexEnabled(enabled bool) {
	m.mu.Lock()
	m.config.Index.Enabled = enabled
	m.mu.Unlock()
	m.Save()
}

// SetContentSearch updates the index content-search capability
func (m *Manager) SetContentSearch(enabled bool) {
	m.mu.Lock()
	m.config.Index.ContentSearch = enabled
	m.mu.Unlock()
	m.Save()
}

// SetDebounce updates the search debounce interval
func (m *Manager) SetDebounce(ms int) {
	m.mu.Lock()
	m.config.Search.DebounceMs = ms
	m.mu.Unlock()
	m.Save()
}
