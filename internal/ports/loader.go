package ports

import "github.com/bft-labs/appship/internal/domain"

// LoadOptions tunes how a document directory is loaded.
type LoadOptions struct {
	// DocID overrides the computed identifier
	DocID string

	// Design loads the directory as the primary application document
	Design bool
}

// DocumentLoader reads documents from the local application tree.
type DocumentLoader interface {
	// Load reads the document rooted at dir.
	Load(dir string, opts LoadOptions) (*domain.Document, error)

	// LoadJSON decodes a JSON object from a single file.
	// Returns domain.ErrMalformedDocument if the content is not a JSON object.
	LoadJSON(path string) (map[string]any, error)
}
