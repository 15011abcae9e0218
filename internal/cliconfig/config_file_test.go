package cliconfig

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/bft-labs/appship/internal/adapters/hook"
)

const tomlConfig = `
default_server = "http://couch:5984"
http_timeout = "10s"
log_level = "debug"

[destinations]
default = ["http://couch:5984/dev"]
prod = ["https://a.example.com/app", "https://b.example.com/app"]

[[hooks.pre-push]]
kind = "shell"
command = "npm run build"
`

const yamlConfig = `
default_server: http://couch:5984
http_timeout: 10s
log_level: debug
destinations:
  default: [http://couch:5984/dev]
  prod:
    - https://a.example.com/app
    - https://b.example.com/app
hooks:
  pre-push:
    - kind: shell
      command: npm run build
`

func TestLoadFileConfig_Formats(t *testing.T) {
	want := FileConfig{
		DefaultServer: "http://couch:5984",
		HTTPTimeout:   "10s",
		LogLevel:      "debug",
		Destinations: map[string][]string{
			"default": {"http://couch:5984/dev"},
			"prod":    {"https://a.example.com/app", "https://b.example.com/app"},
		},
		Hooks: map[string][]hook.Spec{
			"pre-push": {{Kind: "shell", Command: "npm run build"}},
		},
	}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "toml", file: "config.toml", content: tomlConfig},
		{name: "yaml", file: "config.yaml", content: yamlConfig},
		{name: "yml", file: "config.yml", content: yamlConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write config: %v", err)
			}

			got, err := LoadFileConfig(path)
			if err != nil {
				t.Fatalf("LoadFileConfig() error = %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("LoadFileConfig() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestLoadFileConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFileConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("default_server = "), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFileConfig(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyFileConfig(t *testing.T) {
	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		expected   func(Config) Config
		wantErr    bool
	}{
		{
			name: "applies values",
			fileConfig: FileConfig{
				DefaultServer: "http://couch:5984",
				HTTPTimeout:   "10s",
				WatchDebounce: "1s",
				LogFile:       "/var/log/appship.log",
				Destinations:  map[string][]string{"default": {"http://couch:5984/dev"}},
			},
			changed: map[string]bool{},
			expected: func(c Config) Config {
				c.DefaultServer = "http://couch:5984"
				c.HTTPTimeout = 10 * time.Second
				c.WatchDebounce = time.Second
				c.LogFile = "/var/log/appship.log"
				c.Destinations = map[string][]string{"default": {"http://couch:5984/dev"}}
				return c
			},
		},
		{
			name:       "respects changed flags",
			fileConfig: FileConfig{LogLevel: "debug", HTTPTimeout: "10s"},
			changed:    map[string]bool{"log-level": true},
			expected: func(c Config) Config {
				c.HTTPTimeout = 10 * time.Second
				return c
			},
		},
		{
			name:       "invalid duration",
			fileConfig: FileConfig{HTTPTimeout: "ten seconds"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyFileConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if want := tt.expected(DefaultConfig()); !reflect.DeepEqual(cfg, want) {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, want)
			}
		})
	}
}

func TestMergeAppConfig(t *testing.T) {
	fs := memfs.New()
	rc := `
[destinations]
default = ["http://couch:5984/app"]

[[hooks.post-push]]
kind = "script"
command = "./notify"
`
	if err := util.WriteFile(fs, "/work/app/.appshiprc", []byte(rc), 0644); err != nil {
		t.Fatal(err)
	}

	fc, ok, err := LoadAppConfig(fs, "/work/app")
	if err != nil || !ok {
		t.Fatalf("LoadAppConfig() = %v, %v", ok, err)
	}

	cfg := DefaultConfig()
	cfg.Destinations["default"] = []string{"http://couch:5984/user"}
	cfg.Hooks["post-push"] = []hook.Spec{{Kind: "shell", Command: "echo user"}}

	if err := MergeAppConfig(&cfg, fc); err != nil {
		t.Fatalf("MergeAppConfig() error = %v", err)
	}
	if got := cfg.Destinations["default"]; !reflect.DeepEqual(got, []string{"http://couch:5984/app"}) {
		t.Errorf("default destination = %v", got)
	}
	wantHooks := []hook.Spec{
		{Kind: "shell", Command: "echo user"},
		{Kind: "script", Command: "./notify"},
	}
	if got := cfg.Hooks["post-push"]; !reflect.DeepEqual(got, wantHooks) {
		t.Errorf("post-push hooks = %v, want %v", got, wantHooks)
	}

	if _, ok, err := LoadAppConfig(fs, "/work/other"); ok || err != nil {
		t.Errorf("LoadAppConfig(missing) = %v, %v", ok, err)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	if path == "" {
		t.Skip("no home directory")
	}
	if filepath.Base(path) != "config.toml" || filepath.Base(filepath.Dir(path)) != ".appship" {
		t.Errorf("DefaultConfigPath() = %v", path)
	}
}
