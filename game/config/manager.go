package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/wricardo/tic-tac-two/game/engine"
	"github.com/wricardo/tic-tac-two/game/service"
)

// Shared with the service layer so callers can match with errors.Is
var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = service.ErrInvalidConfig
)

// DefaultConfigID is the preset used when a session names none
const DefaultConfigID = "classic"

var configIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Manager handles match configuration loading and caching
type Manager struct {
	configDir     string
	defaultID     string
	defaultConfig *service.MatchConfig
	configs       map[string]*service.MatchConfig
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*service.MatchConfig),
	}

	m.loadDefaultConfig()
	return m, nil
}

// LoadConfig loads a configuration by name
func (m *Manager) LoadConfig(name string) (*service.MatchConfig, error) {
	name = strings.TrimSuffix(name, ".json")
	if !configIDPattern.MatchString(name) {
		return nil, fmt.Errorf("%w: bad config name %q", ErrInvalidConfig, name)
	}

	m.mu.RLock()
	// Check cache first
	if config, exists := m.configs[name]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	// Load from file
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[name]; exists {
		return config, nil
	}

	config, err := m.readConfig(name)
	if err != nil {
		return nil, err
	}

	m.configs[name] = config
	return config, nil
}

func (m *Manager) readConfig(name string) (*service.MatchConfig, error) {
	data, err := os.ReadFile(filepath.Join(m.configDir, name+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			if name == DefaultConfigID {
				return builtinClassic(), nil
			}
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config service.MatchConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := service.ValidateMatchConfig(&config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// ListConfigs returns information about all available configurations
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo
	sawDefault := false

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		// Remove .json extension for config name
		name := strings.TrimSuffix(entry.Name(), ".json")

		// Try to load the config to get details
		config, err := m.LoadConfig(name)
		if err != nil {
			// Skip invalid configs
			continue
		}

		sawDefault = sawDefault || name == DefaultConfigID
		configs = append(configs, configInfo(entry.Name(), name, config))
	}

	// The built-in classic preset is always available
	if !sawDefault {
		configs = append(configs, configInfo("", DefaultConfigID, builtinClassic()))
	}

	return configs, nil
}

func configInfo(filename, id string, config *service.MatchConfig) *service.ConfigInfo {
	return &service.ConfigInfo{
		Filename:             filename,
		ConfigID:             id, // This is the identifier to use for session creation
		Name:                 config.Name,
		Description:          config.Description,
		AIPlayers:            config.AIPlayers,
		TurnTimeLimitSeconds: config.TurnTimeLimitSeconds,
	}
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *service.MatchConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// DefaultID returns the identifier of the default configuration
func (m *Manager) DefaultID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultID
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = strings.TrimSuffix(name, ".json")
	m.defaultConfig = config
	return nil
}

// RefreshCache drops cached configurations so they are re-read from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.configs = make(map[string]*service.MatchConfig)
	m.mu.Unlock()

	m.loadDefaultConfig()
}

// loadDefaultConfig loads classic.json, falling back to the built-in preset
func (m *Manager) loadDefaultConfig() {
	config, err := m.LoadConfig(DefaultConfigID)
	if err != nil {
		config = builtinClassic()
	}

	m.mu.Lock()
	m.defaultID = DefaultConfigID
	m.defaultConfig = config
	m.mu.Unlock()
}

// SaveConfig saves a configuration to disk
func (m *Manager) SaveConfig(name string, config *service.MatchConfig) error {
	name = strings.TrimSuffix(name, ".json")
	if !configIDPattern.MatchString(name) {
		return fmt.Errorf("%w: bad config name %q", ErrInvalidConfig, name)
	}

	// Validate config before saving
	if err := service.ValidateMatchConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	// Marshal config to JSON with indentation
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(m.configDir, name+".json")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Update cache
	m.mu.Lock()
	m.configs[name] = config
	if name == m.defaultID {
		m.defaultConfig = config
	}
	m.mu.Unlock()

	return nil
}

// ValidationResult reports whether one preset file can be used
type ValidationResult struct {
	ConfigID string
	Filename string
	Err      error
}

// Valid reports whether the file passed validation
func (r ValidationResult) Valid() bool {
	return r.Err == nil
}

// ValidateAll re-reads every preset file from disk, bypassing the cache,
// and reports each one's validation result in directory order.
func (m *Manager) ValidateAll() ([]ValidationResult, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var results []ValidationResult
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		result := ValidationResult{ConfigID: id, Filename: entry.Name()}
		if !configIDPattern.MatchString(id) {
			result.Err = fmt.Errorf("%w: bad config name %q", ErrInvalidConfig, id)
		} else if _, err := m.readConfig(id); err != nil {
			result.Err = err
		}
		results = append(results, result)
	}

	return results, nil
}

// builtinClassic is the human vs human preset used when no file provides one
func builtinClassic() *service.MatchConfig {
	return &service.MatchConfig{
		Name:        "Classic",
		Description: "Two players share the board, X moves first",
		AIPlayers:   []engine.Player{},
	}
}
