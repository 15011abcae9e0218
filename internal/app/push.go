package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bft-labs/appship/internal/domain"
	"github.com/bft-labs/appship/internal/ports"
)

// CompanionDir is the directory of companion documents inside an application.
const CompanionDir = "_docs"

// Pusher is the entry point of a push: it loads the application document,
// runs the push hooks, sends the document to every destination and then
// synchronizes the companion documents.
type Pusher struct {
	env         Env
	hooks       *HookDispatcher
	transmitter *Transmitter
	syncer      *CompanionSyncer
}

// NewPusher creates a pusher for env.
func NewPusher(env Env) *Pusher {
	env = env.withDefaults()
	return &Pusher{
		env:         env,
		hooks:       NewHookDispatcher(env.Config, env.Logger, env.PushID),
		transmitter: NewTransmitter(env.Logger),
		syncer:      NewCompanionSyncer(env),
	}
}

// Syncer returns the companion syncer sharing the pusher's environment.
func (p *Pusher) Syncer() *CompanionSyncer {
	return p.syncer
}

// ResolveTarget decides which directory is pushed and where.
//
// With two or more arguments the first is the source, resolved against cwd,
// and the second the destination; appDir is ignored. With fewer arguments the
// source is appDir and the single argument is the destination, except in
// export mode where it names the source when appDir is empty.
func ResolveTarget(appDir string, args []string, export bool, cwd string) (source, dest string, err error) {
	switch {
	case len(args) >= 2:
		source = absPath(cwd, args[0])
		dest = args[1]
	case export:
		source = appDir
		if source == "" && len(args) == 1 {
			source = absPath(cwd, args[0])
		}
	default:
		source = appDir
		if len(args) == 1 {
			dest = args[0]
		}
	}

	if source == "" {
		return "", "", domain.ErrNotInApp
	}
	return source, dest, nil
}

func absPath(cwd, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(cwd, p)
}

// Push pushes the application found from appDir and args (see ResolveTarget).
// Export mode writes the document JSON instead and never contacts a destination.
func (p *Pusher) Push(ctx context.Context, appDir string, args []string, opts domain.PushOptions) error {
	cwd, err := p.env.Getwd()
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}

	source, dest, err := ResolveTarget(appDir, args, opts.Export, cwd)
	if err != nil {
		return err
	}

	if err := p.env.Config.Update(source); err != nil {
		return fmt.Errorf("load application config: %w", err)
	}

	doc, err := p.env.Loader.Load(source, ports.LoadOptions{DocID: opts.DocID, Design: true})
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	p.env.Logger.Debug("loaded document",
		ports.String("app", doc.AppName()),
		ports.String("path", source),
		ports.String("id", doc.ID),
		ports.Int("attachments", len(doc.Attachments)),
	)

	if opts.Export {
		return writeExport(p.env, opts.Output, doc.JSON())
	}

	dbs, err := p.env.Config.Resolve(ctx, dest)
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}

	if err := p.hooks.Dispatch(ctx, source, ports.HookPrePush, dbs); err != nil {
		return err
	}

	topts := TransmitOptions{NoAtomic: opts.NoAtomic, Force: opts.Force}
	for _, db := range dbs {
		if err := p.transmitter.Transmit(ctx, db, doc, topts); err != nil {
			return fmt.Errorf("push to %s: %w", db.Name(), err)
		}
		if opts.Browse {
			openDocument(p.env, db, doc)
		}
	}

	if err := p.hooks.Dispatch(ctx, source, ports.HookPostPush, dbs); err != nil {
		return err
	}

	docsDir := filepath.Join(source, CompanionDir)
	if fi, err := p.env.FS.Stat(docsDir); err == nil && fi.IsDir() {
		report, err := p.syncer.SyncCompanions(ctx, docsDir, dest, opts)
		if err != nil {
			return fmt.Errorf("push companion documents: %w", err)
		}
		LogSyncReport(p.env.Logger, report)
	}
	return nil
}

// LogSyncReport summarizes a companion synchronization run.
func LogSyncReport(logger ports.Logger, report domain.SyncReport) {
	for _, dr := range report.Destinations {
		if dr.Clean() {
			continue
		}
		fields := []ports.Field{
			ports.String("db", dr.Destination),
			ports.Int("saved", len(dr.Saved)),
			ports.Strings("dropped", dr.Dropped),
			ports.Int("unresolved", len(dr.Unresolved)),
		}
		if dr.Err != nil {
			fields = append(fields, ports.Err(dr.Err))
		}
		logger.Warn("companion documents incomplete", fields...)
	}
	if len(report.Skipped) > 0 {
		logger.Warn("skipped malformed companion files", ports.Strings("files", report.Skipped))
	}
}

// openDocument opens the pushed document of db in a browser.
func openDocument(env Env, db ports.Database, doc *domain.Document) {
	if env.Browser == nil {
		return
	}
	path := doc.ID
	if _, ok := doc.Attachment("index.html"); ok {
		path += "/index.html"
	}
	url := db.URL(path)
	if err := env.Browser.Open(url); err != nil {
		env.Logger.Warn("failed to open browser", ports.String("url", url), ports.Err(err))
	}
}
