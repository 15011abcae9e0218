package cliconfig

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/appship/internal/adapters/hook"
	"github.com/bft-labs/appship/internal/domain"
)

// DefaultServer is the server bare database names are created on.
const DefaultServer = "http://127.0.0.1:5984"

// Config holds CLI configuration for appship.
type Config struct {
	// Destinations maps a destination name to its database URLs
	Destinations map[string][]string

	// DefaultServer is used for destinations given as a bare database name
	DefaultServer string

	// Hooks maps a lifecycle event to the hooks run for it
	Hooks map[string][]hook.Spec

	HTTPTimeout   time.Duration
	WatchDebounce time.Duration

	LogLevel string
	LogFile  string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Destinations:  map[string][]string{},
		DefaultServer: DefaultServer,
		Hooks:         map[string][]hook.Spec{},
		HTTPTimeout:   30 * time.Second,
		WatchDebounce: 300 * time.Millisecond,
		LogLevel:      "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%w: http timeout must be positive", domain.ErrInvalidConfig)
	}
	if c.WatchDebounce <= 0 {
		return fmt.Errorf("%w: watch debounce must be positive", domain.ErrInvalidConfig)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log level %q", domain.ErrInvalidConfig, c.LogLevel)
	}

	// Ensure no trailing slash
	c.DefaultServer = strings.TrimRight(c.DefaultServer, "/")
	if c.DefaultServer != "" {
		if err := checkServerURL(c.DefaultServer); err != nil {
			return fmt.Errorf("%w: default server: %v", domain.ErrInvalidConfig, err)
		}
	}

	for name, urls := range c.Destinations {
		if len(urls) == 0 {
			return fmt.Errorf("%w: destination %q has no database", domain.ErrInvalidConfig, name)
		}
		for _, u := range urls {
			if err := checkServerURL(u); err != nil {
				return fmt.Errorf("%w: destination %q: %v", domain.ErrInvalidConfig, name, err)
			}
		}
	}

	for event, specs := range c.Hooks {
		for i, spec := range specs {
			if spec.Kind != "" && spec.Kind != hook.KindShell && spec.Kind != hook.KindScript {
				return fmt.Errorf("%w: hook %s[%d]: unknown kind %q", domain.ErrInvalidConfig, event, i, spec.Kind)
			}
			if spec.Command == "" {
				return fmt.Errorf("%w: hook %s[%d]: command is required", domain.ErrInvalidConfig, event, i)
			}
		}
	}
	return nil
}

func checkServerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must use http or https", u.Redacted())
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", u.Redacted())
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}
