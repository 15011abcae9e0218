package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bft-labs/appship/internal/domain"
	"github.com/bft-labs/appship/internal/ports"
)

// CompanionSyncer sends a directory of independent documents to destinations.
type CompanionSyncer struct {
	env         Env
	resolver    *ConflictResolver
	transmitter *Transmitter
}

// NewCompanionSyncer creates a syncer for env.
func NewCompanionSyncer(env Env) *CompanionSyncer {
	env = env.withDefaults()
	return &CompanionSyncer{
		env:         env,
		resolver:    NewConflictResolver(env.Logger),
		transmitter: NewTransmitter(env.Logger),
	}
}

// SyncCompanions discovers the companion documents directly under sourceDir
// and sends them to dest. Hidden entries and non-JSON files are ignored and
// subdirectories are loaded as documents.
//
// In export mode, or unless NoAtomic is set, all items form one batch: it is
// exported as {"docs": [...]} or saved on every destination through the
// conflict resolver. With NoAtomic each item is sent on its own as soon as it
// is discovered.
//
// Failures of individual saves are logged and reported, never returned; the
// error is reserved for destination resolution, directory and loader failures.
func (s *CompanionSyncer) SyncCompanions(ctx context.Context, sourceDir, dest string, opts domain.PushOptions) (domain.SyncReport, error) {
	var report domain.SyncReport

	var dbs []ports.Database
	if !opts.Export {
		var err error
		dbs, err = s.env.Config.Resolve(ctx, dest)
		if err != nil {
			return report, fmt.Errorf("resolve destination: %w", err)
		}
	}

	entries, err := s.env.FS.ReadDir(sourceDir)
	if err != nil {
		return report, fmt.Errorf("read %s: %w", sourceDir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	accumulate := opts.Export || !opts.NoAtomic
	batch := domain.NewBatch()
	immediate := newImmediateReports(dbs)

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(sourceDir, name)

		var item domain.CompanionItem
		if entry.IsDir() {
			doc, err := s.env.Loader.Load(full, ports.LoadOptions{})
			if err != nil {
				return report, fmt.Errorf("load companion %s: %w", full, err)
			}
			item = &domain.DocumentItem{Doc: doc}
		} else {
			if filepath.Ext(name) != ".json" {
				continue
			}
			body, err := s.env.Loader.LoadJSON(full)
			if err != nil {
				if errors.Is(err, domain.ErrMalformedDocument) {
					s.env.Logger.Warn("skipping malformed companion document",
						ports.String("file", full),
						ports.Err(err),
					)
					report.Skipped = append(report.Skipped, full)
					continue
				}
				return report, fmt.Errorf("load companion %s: %w", full, err)
			}
			item = domain.NewRawItem(strings.TrimSuffix(name, ".json"), body)
		}

		report.Items++
		if accumulate {
			batch.Add(item)
			continue
		}
		s.sendNow(ctx, dbs, item, opts, immediate)
	}

	if !accumulate {
		report.Destinations = immediate.list()
		return report, nil
	}
	if batch.Empty() {
		return report, nil
	}

	if opts.Export {
		return report, writeExport(s.env, opts.Output, batch.Export())
	}

	for _, db := range dbs {
		docs := s.batchFor(ctx, db, batch, opts.Force)
		report.Destinations = append(report.Destinations, s.resolver.ResolveAndSave(ctx, db, docs))
	}
	return report, nil
}

// batchFor serializes batch for one destination. Raw items carry the
// destination's current revision, or none when the document is new there.
// With force, document items carry every attachment inline.
func (s *CompanionSyncer) batchFor(ctx context.Context, db ports.Database, batch *domain.Batch, force bool) []map[string]any {
	docs := make([]map[string]any, 0, batch.Size())
	for _, item := range batch.Items {
		switch it := item.(type) {
		case *domain.RawItem:
			rev, err := db.FetchCurrentRevision(ctx, it.ID())
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				s.env.Logger.Warn("revision lookup failed, sending as new",
					ports.String("db", db.Name()),
					ports.String("id", it.ID()),
					ports.Err(err),
				)
			}
			docs = append(docs, it.WithRevision(rev))
		case *domain.DocumentItem:
			body, err := s.transmitter.Prepare(ctx, db, it.Doc, force)
			if err != nil {
				s.env.Logger.Warn("remote lookup failed, sending full document",
					ports.String("db", db.Name()),
					ports.String("id", it.ID()),
					ports.Err(err),
				)
				body = it.Export()
			}
			docs = append(docs, body)
		}
	}
	return docs
}

// sendNow sends one item to every destination without batching.
func (s *CompanionSyncer) sendNow(ctx context.Context, dbs []ports.Database, item domain.CompanionItem, opts domain.PushOptions, reports *immediateReports) {
	for _, db := range dbs {
		var err error
		switch it := item.(type) {
		case *domain.RawItem:
			_, err = db.SaveDocument(ctx, it.Export(), ports.SaveOptions{ForceUpdate: true})
		case *domain.DocumentItem:
			err = s.transmitter.Transmit(ctx, db, it.Doc, TransmitOptions{NoAtomic: true, Force: opts.Force})
			if err == nil && opts.Browse {
				openDocument(s.env, db, it.Doc)
			}
		}
		reports.record(db, item.ID(), err)
		if err != nil {
			s.env.Logger.Error("companion document not saved",
				ports.String("db", db.Name()),
				ports.String("id", item.ID()),
				ports.Err(err),
			)
		}
	}
}

// immediateReports collects per-destination results when items are sent one by one.
type immediateReports struct {
	order   []string
	reports map[string]*domain.ResolveReport
}

func newImmediateReports(dbs []ports.Database) *immediateReports {
	r := &immediateReports{reports: make(map[string]*domain.ResolveReport, len(dbs))}
	for _, db := range dbs {
		r.order = append(r.order, db.Name())
		r.reports[db.Name()] = &domain.ResolveReport{Destination: db.Name()}
	}
	return r
}

func (r *immediateReports) record(db ports.Database, id string, err error) {
	rep := r.reports[db.Name()]
	if err == nil {
		rep.Saved = append(rep.Saved, id)
		return
	}
	rep.Unresolved = append(rep.Unresolved, domain.BulkOutcome{
		ID:       id,
		Error:    err.Error(),
		Conflict: errors.Is(err, domain.ErrConflict),
	})
}

func (r *immediateReports) list() []domain.ResolveReport {
	out := make([]domain.ResolveReport, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.reports[name])
	}
	return out
}
