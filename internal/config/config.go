package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	v         *viper.Viper
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	for _, e := range DefaultEntries() {
		cm.v.SetDefault(e.Key, e.Value)
	}

	// Environment variables with CARDFIX_ prefix (service.base_url -> CARDFIX_SERVICE_BASE_URL)
	cm.v.SetEnvPrefix("CARDFIX")
	cm.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cm.v.AutomaticEnv()

	if cfgFile != "" {
		cm.v.SetConfigFile(cfgFile)
	} else {
		cm.v.SetConfigName("config")
		cm.v.SetConfigType("yaml")
		cm.v.AddConfigPath(".")
		cm.v.AddConfigPath("$HOME/.cardfix")
	}

	// Config file is optional
	if err := cm.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFile returns the file the configuration was read from, if any.
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig reloads the file whenever it changes and notifies OnChange
// callbacks. A file that no longer parses keeps the previous configuration.
func (cm *Manager) WatchConfig(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		next, err := cm.load()
		if err != nil {
			logger.Warn("config reload failed, keeping previous values", "file", e.Name, "error", err)
			return
		}
		logger.Debug("config reloaded", "file", e.Name, "op", e.Op.String())

		cm.mu.Lock()
		cm.config = next
		notify := append([]func(*Config){}, cm.callbacks...)
		cm.mu.Unlock()

		for _, fn := range notify {
			fn(next)
		}
	})
	cm.v.WatchConfig()
}

// Lookup returns the effective value of a known key with its description.
func (cm *Manager) Lookup(key string) (*Entry, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	def := GetDefault(key)
	if def == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoDefault, key)
	}
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return &Entry{Key: key, Value: cm.v.Get(key), Description: def.Description}, nil
}

// Entries returns the effective value of every known key, sorted by key.
func (cm *Manager) Entries() []Entry {
	defaults := DefaultEntries()
	entries := make([]Entry, 0, len(defaults))
	cm.mu.RLock()
	for _, d := range defaults {
		entries = append(entries, Entry{Key: d.Key, Value: cm.v.Get(d.Key), Description: d.Description})
	}
	cm.mu.RUnlock()
	sortEntries(entries)
	return entries
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// WriteDefault writes the default configuration to the specified path.
// It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	header := []byte(`# cardfix configuration
# The auth token uses ${ENV_VAR} syntax to reference environment variables
# Any key can also be set as CARDFIX_<KEY>, e.g. CARDFIX_SERVICE_BASE_URL

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
