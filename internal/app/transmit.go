package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/bft-labs/appship/internal/domain"
	"github.com/bft-labs/appship/internal/ports"
)

// TransmitOptions selects how a document reaches a destination.
type TransmitOptions struct {
	// NoAtomic saves the document first and uploads attachments one by one
	NoAtomic bool

	// Force resends attachments whose signature matches the stored copy
	Force bool
}

// Transmitter sends loaded documents to destinations.
type Transmitter struct {
	logger ports.Logger
}

// NewTransmitter creates a transmitter.
func NewTransmitter(logger ports.Logger) *Transmitter {
	return &Transmitter{logger: logger}
}

// remoteState is what a destination currently holds for a document.
type remoteState struct {
	rev         string
	signatures  map[string]string
	attachments map[string]bool
}

// unchanged returns true if the destination already stores a.
func (s remoteState) unchanged(a domain.Attachment) bool {
	return s.attachments[a.Name] && s.signatures[a.Name] == a.Signature
}

func (t *Transmitter) fetchRemote(ctx context.Context, db ports.Database, id string) (remoteState, error) {
	remote, err := db.FetchDocument(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return remoteState{}, nil
		}
		return remoteState{}, fmt.Errorf("fetch %s: %w", id, err)
	}

	st := remoteState{
		signatures:  map[string]string{},
		attachments: map[string]bool{},
	}
	st.rev, _ = remote[domain.FieldRev].(string)
	if meta, ok := remote[domain.MetadataKey].(map[string]any); ok {
		if sigs, ok := meta["signatures"].(map[string]any); ok {
			for name, sig := range sigs {
				if s, ok := sig.(string); ok {
					st.signatures[name] = s
				}
			}
		}
	}
	if atts, ok := remote[domain.FieldAttachments].(map[string]any); ok {
		for name := range atts {
			st.attachments[name] = true
		}
	}
	return st, nil
}

// Prepare returns the body of doc for db: the stored revision is injected and
// attachments already stored with the same signature are sent as stubs.
func (t *Transmitter) Prepare(ctx context.Context, db ports.Database, doc *domain.Document, force bool) (map[string]any, error) {
	st, err := t.fetchRemote(ctx, db, doc.ID)
	if err != nil {
		return nil, err
	}
	return doc.Revisioned(st.rev, t.attachmentsFor(doc, st, force)), nil
}

func (t *Transmitter) attachmentsFor(doc *domain.Document, st remoteState, force bool) map[string]any {
	if len(doc.Attachments) == 0 {
		return nil
	}
	atts := make(map[string]any, len(doc.Attachments))
	for _, a := range doc.Attachments {
		if !force && st.unchanged(a) {
			atts[a.Name] = a.Stub()
			continue
		}
		atts[a.Name] = a.Inline()
	}
	return atts
}

// Transmit sends doc to db. In atomic mode the document and its attachments
// travel in one save; otherwise the document is saved with stubs for the
// attachments the destination already holds and every other attachment is
// uploaded separately.
func (t *Transmitter) Transmit(ctx context.Context, db ports.Database, doc *domain.Document, opts TransmitOptions) error {
	st, err := t.fetchRemote(ctx, db, doc.ID)
	if err != nil {
		return err
	}

	if !opts.NoAtomic {
		body := doc.Revisioned(st.rev, t.attachmentsFor(doc, st, opts.Force))
		rev, err := db.SaveDocument(ctx, body, ports.SaveOptions{})
		if err != nil {
			return fmt.Errorf("save %s: %w", doc.ID, err)
		}
		t.logger.Info("pushed document",
			ports.String("db", db.Name()),
			ports.String("id", doc.ID),
			ports.Bool("design", doc.Design),
			ports.String("rev", rev),
			ports.Int("attachments", len(doc.Attachments)),
		)
		return nil
	}

	var stubs map[string]any
	pending := make([]domain.Attachment, 0, len(doc.Attachments))
	for _, a := range doc.Attachments {
		if !opts.Force && st.unchanged(a) {
			if stubs == nil {
				stubs = map[string]any{}
			}
			stubs[a.Name] = a.Stub()
			continue
		}
		pending = append(pending, a)
	}

	rev, err := db.SaveDocument(ctx, doc.Revisioned(st.rev, stubs), ports.SaveOptions{})
	if err != nil {
		return fmt.Errorf("save %s: %w", doc.ID, err)
	}

	for _, a := range pending {
		rev, err = db.PutAttachment(ctx, doc.ID, rev, a)
		if err != nil {
			return fmt.Errorf("upload attachment %s of %s: %w", a.Name, doc.ID, err)
		}
	}

	t.logger.Info("pushed document",
		ports.String("db", db.Name()),
		ports.String("id", doc.ID),
		ports.Bool("design", doc.Design),
		ports.String("rev", rev),
		ports.Int("uploaded", len(pending)),
		ports.Int("unchanged", len(stubs)),
	)
	return nil
}
