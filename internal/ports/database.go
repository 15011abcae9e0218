package ports

import (
	"context"

	"github.com/bft-labs/appship/internal/domain"
)

// SaveOptions tunes a single-document save.
type SaveOptions struct {
	// ForceUpdate overwrites whatever revision the destination holds: on a
	// conflict the current revision is fetched and the save is retried once.
	ForceUpdate bool
}

// Database is a live handle to one remote document store.
type Database interface {
	// Name returns a printable identifier (the URL without credentials).
	Name() string

	// SaveDocument stores a single document and returns its new revision.
	// A stale revision is reported as *domain.ConflictError.
	SaveDocument(ctx context.Context, doc map[string]any, opts SaveOptions) (string, error)

	// SaveMany stores several documents in one request and reports one
	// outcome per submitted document, in submission order. The error is
	// reserved for transport failures; rejected documents are outcomes.
	SaveMany(ctx context.Context, docs []map[string]any) ([]domain.BulkOutcome, error)

	// FetchCurrentRevision returns the stored revision of id.
	// Returns domain.ErrNotFound if the document does not exist.
	FetchCurrentRevision(ctx context.Context, id string) (string, error)

	// FetchDocument returns the stored document.
	// Returns domain.ErrNotFound if the document does not exist.
	FetchDocument(ctx context.Context, id string) (map[string]any, error)

	// PutAttachment uploads one attachment to an existing document revision
	// and returns the new document revision.
	PutAttachment(ctx context.Context, docID, rev string, att domain.Attachment) (string, error)

	// URL returns the browsable URL of a document path on this database.
	URL(path string) string
}

// DestinationResolver turns a symbolic or literal destination into live databases.
type DestinationResolver interface {
	// Resolve returns the databases behind dest. An empty dest selects the
	// default destination. Returns domain.ErrNoDestination when nothing matches.
	Resolve(ctx context.Context, dest string) ([]Database, error)
}

// DatabaseNames returns the printable names of dbs.
func DatabaseNames(dbs []Database) []string {
	names := make([]string, len(dbs))
	for i, db := range dbs {
		names[i] = db.Name()
	}
	return names
}
