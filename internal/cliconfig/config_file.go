package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/bft-labs/appship/internal/adapters/hook"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Destinations  map[string][]string    `toml:"destinations" yaml:"destinations"`
	DefaultServer string                 `toml:"default_server" yaml:"default_server"`
	Hooks         map[string][]hook.Spec `toml:"hooks" yaml:"hooks"`
	HTTPTimeout   string                 `toml:"http_timeout" yaml:"http_timeout"`
	WatchDebounce string                 `toml:"watch_debounce" yaml:"watch_debounce"`
	LogLevel      string                 `toml:"log_level" yaml:"log_level"`
	LogFile       string                 `toml:"log_file" yaml:"log_file"`
}

// LoadFileConfig reads and parses a config file from the given path.
// Files ending in .yaml or .yml are read as YAML, everything else as TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, err
	}
	return ParseFileConfig(b, filepath.Ext(path))
}

// ParseFileConfig decodes config file content. ext selects the format.
func ParseFileConfig(b []byte, ext string) (FileConfig, error) {
	var fc FileConfig
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		if err := toml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse toml: %w", err)
		}
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.appship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".appship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("default-server", fc.DefaultServer, &cfg.DefaultServer)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-file", fc.LogFile, &cfg.LogFile)

	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("watch-debounce", fc.WatchDebounce, &cfg.WatchDebounce); err != nil {
		return err
	}

	mergeDestinations(cfg, fc.Destinations)
	mergeHooks(cfg, fc.Hooks)
	return nil
}

// mergeDestinations overrides destinations by name.
func mergeDestinations(cfg *Config, dests map[string][]string) {
	if len(dests) == 0 {
		return
	}
	if cfg.Destinations == nil {
		cfg.Destinations = make(map[string][]string, len(dests))
	}
	for name, urls := range dests {
		cfg.Destinations[name] = append([]string(nil), urls...)
	}
}

// mergeHooks appends hooks after the ones already registered.
func mergeHooks(cfg *Config, hooks map[string][]hook.Spec) {
	if len(hooks) == 0 {
		return
	}
	if cfg.Hooks == nil {
		cfg.Hooks = make(map[string][]hook.Spec, len(hooks))
	}
	for event, specs := range hooks {
		cfg.Hooks[event] = append(cfg.Hooks[event], specs...)
	}
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
