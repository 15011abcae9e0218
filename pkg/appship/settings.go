package appship

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5"

	"github.com/bft-labs/appship/internal/adapters/hook"
	httpAdapter "github.com/bft-labs/appship/internal/adapters/http"
	"github.com/bft-labs/appship/internal/cliconfig"
	"github.com/bft-labs/appship/internal/ports"
)

// hookConfig is the configuration handed to script hooks.
type hookConfig struct {
	Destinations  map[string][]string `json:"destinations"`
	DefaultServer string              `json:"default_server"`
}

// settings implements ports.Configurer for one push. The user configuration
// is kept intact; Update layers an application rc file on top of it.
type settings struct {
	base   Config
	fs     billy.Filesystem
	client ports.HTTPClient
	logger ports.Logger

	registry *hook.Registry
	resolver *httpAdapter.Resolver
}

func newSettings(cfg Config, fs billy.Filesystem, client ports.HTTPClient, logger ports.Logger) (*settings, error) {
	s := &settings{
		base:   cfg,
		fs:     fs,
		client: client,
		logger: logger,
	}
	if err := s.build(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *settings) build(cfg Config) error {
	registry, err := hook.NewRegistry(cfg.Hooks, hookConfig{
		Destinations:  cfg.Destinations,
		DefaultServer: cfg.DefaultServer,
	}, s.logger)
	if err != nil {
		return err
	}
	s.registry = registry
	s.resolver = httpAdapter.NewResolver(httpAdapter.ResolverConfig{
		Destinations:  cfg.Destinations,
		DefaultServer: cfg.DefaultServer,
	}, s.client, s.logger)
	return nil
}

// Update merges the rc file of appDir into a copy of the user configuration.
func (s *settings) Update(appDir string) error {
	fc, ok, err := cliconfig.LoadAppConfig(s.fs, appDir)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	cfg := cloneConfig(s.base)
	if err := cliconfig.MergeAppConfig(&cfg, fc); err != nil {
		return fmt.Errorf("application config: %w", err)
	}
	s.logger.Debug("merged application config", ports.String("path", appDir))
	return s.build(cfg)
}

// Hooks returns the hooks registered for name.
func (s *settings) Hooks(name string) ([]ports.Hook, error) {
	return s.registry.Hooks(name)
}

// Resolve returns the databases behind dest.
func (s *settings) Resolve(ctx context.Context, dest string) ([]ports.Database, error) {
	return s.resolver.Resolve(ctx, dest)
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Destinations = make(map[string][]string, len(cfg.Destinations))
	for k, v := range cfg.Destinations {
		out.Destinations[k] = append([]string(nil), v...)
	}
	out.Hooks = make(map[string][]HookSpec, len(cfg.Hooks))
	for k, v := range cfg.Hooks {
		out.Hooks[k] = append([]HookSpec(nil), v...)
	}
	return out
}
