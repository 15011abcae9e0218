package cliconfig

import (
	"errors"
	"testing"
	"time"

	"github.com/bft-labs/appship/internal/adapters/hook"
	"github.com/bft-labs/appship/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DefaultServer != DefaultServer {
		t.Errorf("DefaultServer = %v, want %v", cfg.DefaultServer, DefaultServer)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want 30s", cfg.HTTPTimeout)
	}
	if cfg.WatchDebounce != 300*time.Millisecond {
		t.Errorf("WatchDebounce = %v, want 300ms", cfg.WatchDebounce)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config { return DefaultConfig() }

	tests := []struct {
		name              string
		mutate            func(*Config)
		wantErr           bool
		wantDefaultServer string
	}{
		{
			name:              "valid default config",
			mutate:            func(*Config) {},
			wantDefaultServer: DefaultServer,
		},
		{
			name:              "trims trailing slash",
			mutate:            func(c *Config) { c.DefaultServer = "http://couch:5984/" },
			wantDefaultServer: "http://couch:5984",
		},
		{
			name:    "non-positive timeout",
			mutate:  func(c *Config) { c.HTTPTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "non-positive debounce",
			mutate:  func(c *Config) { c.WatchDebounce = -time.Second },
			wantErr: true,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: true,
		},
		{
			name:    "bad destination url",
			mutate:  func(c *Config) { c.Destinations["prod"] = []string{"couch:5984/db"} },
			wantErr: true,
		},
		{
			name:    "empty destination",
			mutate:  func(c *Config) { c.Destinations["prod"] = nil },
			wantErr: true,
		},
		{
			name: "unknown hook kind",
			mutate: func(c *Config) {
				c.Hooks["pre-push"] = []hook.Spec{{Kind: "python", Command: "x.py"}}
			},
			wantErr: true,
		},
		{
			name: "hook without command",
			mutate: func(c *Config) {
				c.Hooks["pre-push"] = []hook.Spec{{Kind: hook.KindShell}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, domain.ErrInvalidConfig) {
					t.Errorf("error %v is not ErrInvalidConfig", err)
				}
				return
			}
			if cfg.DefaultServer != tt.wantDefaultServer {
				t.Errorf("DefaultServer = %v, want %v", cfg.DefaultServer, tt.wantDefaultServer)
			}
		})
	}
}

func TestConfigSetter(t *testing.T) {
	s := newConfigSetter(map[string]bool{"log-level": true})

	level := "info"
	s.setString("log-level", "debug", &level)
	if level != "info" {
		t.Errorf("changed flag overwritten: %v", level)
	}

	file := ""
	s.setString("log-file", "/tmp/appship.log", &file)
	if file != "/tmp/appship.log" {
		t.Errorf("log-file = %v", file)
	}

	var d time.Duration
	if err := s.setDuration("timeout", "5s", &d); err != nil || d != 5*time.Second {
		t.Errorf("setDuration = %v, %v", d, err)
	}
	if err := s.setDuration("timeout", "soon", &d); err == nil {
		t.Error("expected parse error")
	}
}
