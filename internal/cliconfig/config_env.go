package cliconfig

import "os"

// ApplyEnvConfig applies APPSHIP_* environment variables to cfg. Explicitly
// set flags (changed map) win over the environment.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("default-server", os.Getenv("APPSHIP_DEFAULT_SERVER"), &cfg.DefaultServer)
	s.setString("log-level", os.Getenv("APPSHIP_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-file", os.Getenv("APPSHIP_LOG_FILE"), &cfg.LogFile)

	if err := s.setDuration("timeout", os.Getenv("APPSHIP_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("watch-debounce", os.Getenv("APPSHIP_WATCH_DEBOUNCE"), &cfg.WatchDebounce); err != nil {
		return err
	}

	// APPSHIP_DB replaces the default destination
	if db := os.Getenv("APPSHIP_DB"); db != "" {
		mergeDestinations(cfg, map[string][]string{"default": {db}})
	}
	return nil
}
