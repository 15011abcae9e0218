package cliconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	fsAdapter "github.com/bft-labs/appship/internal/adapters/fs"
)

// LoadAppConfig reads the rc file at the root of an application. It returns
// false when the application has none.
func LoadAppConfig(fs billy.Filesystem, appDir string) (FileConfig, bool, error) {
	path := filepath.Join(appDir, fsAdapter.AppRCFile)
	b, err := util.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, fmt.Errorf("read %s: %w", path, err)
	}

	fc, err := ParseFileConfig(b, ".toml")
	if err != nil {
		return FileConfig{}, false, fmt.Errorf("%s: %w", path, err)
	}
	return fc, true, nil
}

// MergeAppConfig applies an application rc file on top of cfg. Destinations
// of the same name are replaced and hooks run after the user's hooks.
// Logging settings are not taken from application files.
func MergeAppConfig(cfg *Config, fc FileConfig) error {
	if fc.DefaultServer != "" {
		cfg.DefaultServer = fc.DefaultServer
	}
	mergeDestinations(cfg, fc.Destinations)
	mergeHooks(cfg, fc.Hooks)
	return cfg.Validate()
}
