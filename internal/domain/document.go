package domain

import (
	"encoding/base64"
	"strings"
)

// Reserved document fields.
const (
	FieldID          = "_id"
	FieldRev         = "_rev"
	FieldAttachments = "_attachments"

	// MetadataKey is the namespace appship keeps inside every document body.
	MetadataKey = "appship"

	// DesignPrefix is the identifier prefix of design documents.
	DesignPrefix = "_design/"
)

// Attachment is a file stored alongside a document.
type Attachment struct {
	// Name is the slash-separated path relative to the attachments directory
	Name string

	// ContentType is the MIME type sent to the destination
	ContentType string

	// Data is the raw file content
	Data []byte

	// Signature is the hex md5 of Data, used for change detection
	Signature string
}

// Inline returns the inline attachment representation used in document bodies.
func (a Attachment) Inline() map[string]any {
	return map[string]any{
		"content_type": a.ContentType,
		"data":         base64.StdEncoding.EncodeToString(a.Data),
	}
}

// Stub returns the attachment stub that tells a destination to keep its stored copy.
func (a Attachment) Stub() map[string]any {
	return map[string]any{
		"content_type": a.ContentType,
		"stub":         true,
	}
}

// Document is a document loaded from an application directory.
// The identifier is fixed when the document is loaded and stays the same for
// the whole push.
type Document struct {
	// ID is the document identifier
	ID string

	// Body holds every field except _id, _rev and _attachments
	Body map[string]any

	// Attachments are the files found under _attachments, ordered by name
	Attachments []Attachment

	// Design marks the primary application document
	Design bool
}

// AppName returns the application name of a design document, or the ID otherwise.
func (d *Document) AppName() string {
	return strings.TrimPrefix(d.ID, DesignPrefix)
}

// Signatures returns the attachment signatures keyed by attachment name.
func (d *Document) Signatures() map[string]string {
	sigs := make(map[string]string, len(d.Attachments))
	for _, a := range d.Attachments {
		sigs[a.Name] = a.Signature
	}
	return sigs
}

// Attachment returns the attachment with the given name.
func (d *Document) Attachment(name string) (Attachment, bool) {
	for _, a := range d.Attachments {
		if a.Name == name {
			return a, true
		}
	}
	return Attachment{}, false
}

// JSON returns the destination-agnostic body: all fields, the identifier and
// every attachment inline.
func (d *Document) JSON() map[string]any {
	var atts map[string]any
	if len(d.Attachments) > 0 {
		atts = make(map[string]any, len(d.Attachments))
		for _, a := range d.Attachments {
			atts[a.Name] = a.Inline()
		}
	}
	return d.Revisioned("", atts)
}

// Revisioned returns a body for a specific destination. rev is omitted when
// empty (a new document); attachments is omitted when nil.
func (d *Document) Revisioned(rev string, attachments map[string]any) map[string]any {
	out := copyMap(d.Body)
	out[FieldID] = d.ID
	if rev != "" {
		out[FieldRev] = rev
	}
	if attachments != nil {
		out[FieldAttachments] = attachments
	}
	return out
}

// DocID extracts the identifier of a raw JSON body.
func DocID(body map[string]any) string {
	id, _ := body[FieldID].(string)
	return id
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+3)
	for k, v := range in {
		out[k] = v
	}
	return out
}
