package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/bft-labs/appship/internal/domain"
	"github.com/bft-labs/appship/internal/ports"
)

// ConflictResolver saves a companion batch and reconciles the documents a
// destination rejects. Reconciliation is bounded: rejected documents get
// their revision refreshed and are resubmitted once, and whatever the retry
// reports is final.
type ConflictResolver struct {
	logger ports.Logger
}

// NewConflictResolver creates a resolver.
func NewConflictResolver(logger ports.Logger) *ConflictResolver {
	return &ConflictResolver{logger: logger}
}

// ResolveAndSave submits docs to db in one multi-document save and retries
// the rejected ones once with their current revision. Rejected documents that
// no longer exist on db are dropped. It issues at most two SaveMany calls.
func (r *ConflictResolver) ResolveAndSave(ctx context.Context, db ports.Database, docs []map[string]any) domain.ResolveReport {
	report := domain.ResolveReport{Destination: db.Name()}
	if len(docs) == 0 {
		return report
	}

	outcomes, err := db.SaveMany(ctx, docs)
	if err != nil {
		report.Err = fmt.Errorf("save batch: %w", err)
		r.logger.Error("batch save failed",
			ports.String("db", db.Name()),
			ports.Int("docs", len(docs)),
			ports.Err(err),
		)
		return report
	}

	failed := recordSaved(&report, outcomes)
	if len(failed) == 0 {
		r.logger.Info("saved companion documents",
			ports.String("db", db.Name()),
			ports.Int("docs", len(report.Saved)),
		)
		return report
	}

	submitted := indexByID(docs)
	retry := make([]map[string]any, 0, len(failed))
	for _, o := range failed {
		id := outcomeID(o)
		doc := o.Doc
		if doc == nil {
			doc = submitted[id]
		}

		rev, err := db.FetchCurrentRevision(ctx, id)
		if err != nil || doc == nil {
			report.Dropped = append(report.Dropped, id)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				r.logger.Warn("revision lookup failed, dropping document",
					ports.String("db", db.Name()),
					ports.String("id", id),
					ports.Err(err),
				)
			} else {
				r.logger.Debug("rejected document has no stored revision, dropping",
					ports.String("db", db.Name()),
					ports.String("id", id),
					ports.String("error", o.Error),
				)
			}
			continue
		}

		stamped := make(map[string]any, len(doc))
		for k, v := range doc {
			stamped[k] = v
		}
		stamped[domain.FieldRev] = rev
		retry = append(retry, stamped)
		report.Retried = append(report.Retried, id)
	}

	if len(retry) == 0 {
		return report
	}

	outcomes, err = db.SaveMany(ctx, retry)
	if err != nil {
		report.Err = fmt.Errorf("retry batch: %w", err)
		r.logger.Error("batch retry failed",
			ports.String("db", db.Name()),
			ports.Int("docs", len(retry)),
			ports.Err(err),
		)
		return report
	}

	for _, o := range recordSaved(&report, outcomes) {
		report.Unresolved = append(report.Unresolved, o)
		r.logger.Warn("document rejected after retry",
			ports.String("db", db.Name()),
			ports.String("id", outcomeID(o)),
			ports.String("error", o.Error),
			ports.String("reason", o.Reason),
		)
	}

	r.logger.Info("saved companion documents",
		ports.String("db", db.Name()),
		ports.Int("docs", len(report.Saved)),
		ports.Int("retried", len(report.Retried)),
		ports.Int("dropped", len(report.Dropped)),
		ports.Int("unresolved", len(report.Unresolved)),
	)
	return report
}

// recordSaved appends the saved identifiers to report and returns the failures.
func recordSaved(report *domain.ResolveReport, outcomes []domain.BulkOutcome) []domain.BulkOutcome {
	for _, o := range outcomes {
		if o.OK() {
			report.Saved = append(report.Saved, outcomeID(o))
		}
	}
	return domain.Failed(outcomes)
}

func outcomeID(o domain.BulkOutcome) string {
	if o.ID != "" {
		return o.ID
	}
	return domain.DocID(o.Doc)
}

func indexByID(docs []map[string]any) map[string]map[string]any {
	index := make(map[string]map[string]any, len(docs))
	for _, d := range docs {
		if id := domain.DocID(d); id != "" {
			index[id] = d
		}
	}
	return index
}
