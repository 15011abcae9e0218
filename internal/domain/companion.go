package domain

// CompanionItem is one entry of a companion batch. The set of variants is
// closed: a CompanionItem is either a *RawItem or a *DocumentItem.
type CompanionItem interface {
	// ID returns the document identifier.
	ID() string

	// Export returns the destination-agnostic JSON body.
	Export() map[string]any

	companion()
}

// RawItem is a JSON object loaded from a single companion file.
type RawItem struct {
	Body map[string]any
}

// NewRawItem applies the companion defaults to body: the identifier defaults
// to stem and the metadata namespace to an empty object. Values already
// present are kept, so applying the defaults twice yields the same body.
func NewRawItem(stem string, body map[string]any) *RawItem {
	if body == nil {
		body = map[string]any{}
	}
	if _, ok := body[FieldID]; !ok {
		body[FieldID] = stem
	}
	if _, ok := body[MetadataKey]; !ok {
		body[MetadataKey] = map[string]any{}
	}
	return &RawItem{Body: body}
}

// ID returns the identifier of the raw body.
func (r *RawItem) ID() string { return DocID(r.Body) }

// Export returns the body as loaded.
func (r *RawItem) Export() map[string]any { return r.Body }

// WithRevision returns a copy of the body carrying rev. An empty rev removes
// any revision so the body is saved as a new document.
func (r *RawItem) WithRevision(rev string) map[string]any {
	out := copyMap(r.Body)
	delete(out, FieldRev)
	if rev != "" {
		out[FieldRev] = rev
	}
	return out
}

func (*RawItem) companion() {}

// DocumentItem is a companion document loaded from a subdirectory.
type DocumentItem struct {
	Doc *Document
}

// ID returns the identifier of the loaded document.
func (d *DocumentItem) ID() string { return d.Doc.ID }

// Export returns the destination-agnostic serialization of the document.
func (d *DocumentItem) Export() map[string]any { return d.Doc.JSON() }

func (*DocumentItem) companion() {}
