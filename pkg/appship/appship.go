package appship

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"

	fsAdapter "github.com/bft-labs/appship/internal/adapters/fs"
	"github.com/bft-labs/appship/internal/app"
	"github.com/bft-labs/appship/internal/domain"
	"github.com/bft-labs/appship/internal/ports"
)

// Appship pushes applications and companion documents.
// Use New() to create an instance.
type Appship struct {
	config Config
	opts   options
	logger ports.Logger
}

// New creates a new Appship instance with the given configuration.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Appship, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Apply options
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	o := defaultOptions(httpClient)
	for _, opt := range opts {
		opt(&o)
	}

	// Fail early on invalid hook declarations
	if _, err := newSettings(cfg, o.fs, o.httpClient, o.logger); err != nil {
		return nil, err
	}

	return &Appship{
		config: cfg,
		opts:   o,
		logger: o.logger,
	}, nil
}

// env builds the engine environment of one invocation. Every invocation
// gets its own settings and push id.
func (a *Appship) env() (app.Env, error) {
	s, err := newSettings(a.config, a.opts.fs, a.opts.httpClient, a.logger)
	if err != nil {
		return app.Env{}, err
	}
	pushID := uuid.NewString()
	return app.Env{
		Config:  s,
		Loader:  fsAdapter.NewLoader(a.opts.fs),
		FS:      a.opts.fs,
		Stdout:  a.opts.stdout,
		Browser: a.opts.browser,
		Logger:  &taggedLogger{next: a.logger, pushID: pushID},
		PushID:  pushID,
		Getwd:   a.opts.getwd,
	}, nil
}

// Push pushes an application.
//
// With two arguments the first is the application directory and the second
// the destination. Otherwise appDir is the application and the single
// argument, if any, the destination. In export mode a single argument names
// the application when appDir is empty.
func (a *Appship) Push(ctx context.Context, appDir string, args []string, opts PushOptions) error {
	env, err := a.env()
	if err != nil {
		return err
	}
	return app.NewPusher(env).Push(ctx, appDir, args, opts)
}

// PushDocs pushes every companion document found directly under source.
func (a *Appship) PushDocs(ctx context.Context, source, dest string, opts PushOptions) (SyncReport, error) {
	env, err := a.env()
	if err != nil {
		return SyncReport{}, err
	}
	if !filepath.IsAbs(source) {
		cwd, err := a.opts.getwd()
		if err != nil {
			return SyncReport{}, fmt.Errorf("working directory: %w", err)
		}
		source = filepath.Join(cwd, source)
	}

	report, err := app.NewCompanionSyncer(env).SyncCompanions(ctx, source, dest, opts)
	if err != nil {
		return report, err
	}
	app.LogSyncReport(env.Logger, report)
	return report, nil
}

// Watch pushes the application, then pushes it again whenever its files
// change, until ctx is cancelled. Failed pushes are logged and watching
// goes on; only configuration errors end it.
//
// Changes are observed on the host filesystem, so Watch returns
// ErrInvalidConfig when the Appship was built WithFilesystem.
func (a *Appship) Watch(ctx context.Context, appDir string, args []string, opts PushOptions) error {
	if opts.Export {
		return fmt.Errorf("%w: export and watch cannot be combined", domain.ErrInvalidConfig)
	}
	if !a.opts.hostFS {
		return fmt.Errorf("%w: watch requires the host filesystem", domain.ErrInvalidConfig)
	}

	cwd, err := a.opts.getwd()
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}
	source, _, err := app.ResolveTarget(appDir, args, false, cwd)
	if err != nil {
		return err
	}

	push := func(ctx context.Context) error {
		err := a.Push(ctx, appDir, args, opts)
		if err != nil && !isConfigError(err) {
			a.logger.Error("push failed", ports.Err(err))
			return nil
		}
		return err
	}

	if err := push(ctx); err != nil {
		return err
	}

	w := fsAdapter.NewWatcher(source, a.config.WatchDebounce, a.logger)
	return w.Run(ctx, func(ctx context.Context) {
		a.logger.Info("change detected, pushing", ports.String("path", source))
		if err := push(ctx); err != nil {
			a.logger.Error("push failed", ports.Err(err))
		}
	})
}

func isConfigError(err error) bool {
	return errors.Is(err, domain.ErrNotInApp) ||
		errors.Is(err, domain.ErrNoDestination) ||
		errors.Is(err, domain.ErrInvalidConfig)
}

// taggedLogger adds the push id to every entry.
type taggedLogger struct {
	next   ports.Logger
	pushID string
}

func (l *taggedLogger) with(fields []ports.Field) []ports.Field {
	return append(fields, ports.String("push_id", l.pushID))
}

func (l *taggedLogger) Debug(msg string, fields ...ports.Field) { l.next.Debug(msg, l.with(fields)...) }
func (l *taggedLogger) Info(msg string, fields ...ports.Field)  { l.next.Info(msg, l.with(fields)...) }
func (l *taggedLogger) Warn(msg string, fields ...ports.Field)  { l.next.Warn(msg, l.with(fields)...) }
func (l *taggedLogger) Error(msg string, fields ...ports.Field) { l.next.Error(msg, l.with(fields)...) }
