package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bft-labs/appship/internal/domain"
	"github.com/bft-labs/appship/internal/ports"
)

const (
	bulkDocsEndpoint = "_bulk_docs"
	contentTypeJSON  = "application/json"
)

// Database implements ports.Database against the CouchDB HTTP API.
type Database struct {
	base   string
	user   *url.Userinfo
	client ports.HTTPClient
	logger ports.Logger
}

// NewDatabase creates a database handle for rawURL. Credentials embedded in
// the URL are removed from it and sent as basic auth instead.
func NewDatabase(rawURL string, client ports.HTTPClient, logger ports.Logger) (*Database, error) {
	base, user, err := SanitizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	return &Database{
		base:   base,
		user:   user,
		client: client,
		logger: logger,
	}, nil
}

// SanitizeURL validates a database URL and splits off its credentials.
func SanitizeURL(rawURL string) (string, *url.Userinfo, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", nil, fmt.Errorf("%w: parse database url: %v", domain.ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", nil, fmt.Errorf("%w: database url %q must use http or https", domain.ErrInvalidConfig, u.Redacted())
	}
	if u.Host == "" {
		return "", nil, fmt.Errorf("%w: database url %q has no host", domain.ErrInvalidConfig, u.Redacted())
	}
	if strings.Trim(u.Path, "/") == "" {
		return "", nil, fmt.Errorf("%w: database url %q has no database name", domain.ErrInvalidConfig, u.Redacted())
	}

	user := u.User
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	// Work on the escaped form so a database name containing %2F stays one segment
	escaped := strings.TrimRight(u.EscapedPath(), "/")
	path, err := url.PathUnescape(escaped)
	if err != nil {
		return "", nil, fmt.Errorf("%w: database url %q: %v", domain.ErrInvalidConfig, u.Redacted(), err)
	}
	u.Path = path
	u.RawPath = escaped
	return u.String(), user, nil
}

// Name returns the database URL without credentials.
func (d *Database) Name() string {
	return d.base
}

// URL returns the browsable URL of a document path on this database.
func (d *Database) URL(path string) string {
	return d.base + "/" + escapePath(path)
}

// EnsureExists creates the database if it is missing.
func (d *Database) EnsureExists(ctx context.Context) error {
	resp, err := d.do(ctx, http.MethodPut, d.base, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode/100 == 2:
		d.logger.Info("created database", ports.String("db", d.base))
		return nil
	case resp.StatusCode == http.StatusPreconditionFailed:
		// Already exists
		return nil
	default:
		return statusError(resp)
	}
}

// FetchCurrentRevision returns the stored revision of id using a HEAD request.
func (d *Database) FetchCurrentRevision(ctx context.Context, id string) (string, error) {
	resp, err := d.do(ctx, http.MethodHead, d.docURL(id), nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%s: %w", id, domain.ErrNotFound)
	case resp.StatusCode/100 != 2:
		return "", statusError(resp)
	}

	rev := strings.Trim(resp.Header.Get("ETag"), `"`)
	if rev == "" {
		return "", fmt.Errorf("%s: no revision in response", id)
	}
	return rev, nil
}

// FetchDocument returns the stored document with attachment stubs.
func (d *Database) FetchDocument(ctx context.Context, id string) (map[string]any, error) {
	resp, err := d.do(ctx, http.MethodGet, d.docURL(id), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", id, domain.ErrNotFound)
	case resp.StatusCode/100 != 2:
		return nil, statusError(resp)
	}

	var doc map[string]any
	if err := decodeBody(resp.Body, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return doc, nil
}

type saveResponse struct {
	OK     bool   `json:"ok"`
	ID     string `json:"id"`
	Rev    string `json:"rev"`
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// SaveDocument stores doc and returns its new revision. With ForceUpdate a
// conflict is resolved by fetching the current revision and saving once more.
func (d *Database) SaveDocument(ctx context.Context, doc map[string]any, opts ports.SaveOptions) (string, error) {
	rev, err := d.save(ctx, doc)
	if err == nil || !opts.ForceUpdate || !errors.Is(err, domain.ErrConflict) {
		return rev, err
	}

	id := domain.DocID(doc)
	current, lookupErr := d.FetchCurrentRevision(ctx, id)
	if lookupErr != nil {
		return "", fmt.Errorf("refresh revision of %s: %w", id, lookupErr)
	}
	d.logger.Debug("overwriting stored revision", ports.String("id", id), ports.String("rev", current))

	stamped := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		stamped[k] = v
	}
	stamped[domain.FieldRev] = current
	return d.save(ctx, stamped)
}

func (d *Database) save(ctx context.Context, doc map[string]any) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	id := domain.DocID(doc)
	method, target := http.MethodPut, d.docURL(id)
	if id == "" {
		method, target = http.MethodPost, d.base
	}

	resp, err := d.do(ctx, method, target, bytes.NewReader(body), contentTypeJSON)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		var sr saveResponse
		_ = decodeBody(resp.Body, &sr)
		rev, _ := doc[domain.FieldRev].(string)
		return "", &domain.ConflictError{ID: id, Rev: rev, Reason: sr.Reason}
	}
	if resp.StatusCode/100 != 2 {
		return "", statusError(resp)
	}

	var sr saveResponse
	if err := decodeBody(resp.Body, &sr); err != nil {
		return "", fmt.Errorf("decode save response: %w", err)
	}
	return sr.Rev, nil
}

// SaveMany stores docs with one _bulk_docs request.
func (d *Database) SaveMany(ctx context.Context, docs []map[string]any) ([]domain.BulkOutcome, error) {
	body, err := json.Marshal(map[string]any{"docs": docs})
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	resp, err := d.do(ctx, http.MethodPost, d.base+"/"+bulkDocsEndpoint, bytes.NewReader(body), contentTypeJSON)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, statusError(resp)
	}

	var results []saveResponse
	if err := decodeBody(resp.Body, &results); err != nil {
		return nil, fmt.Errorf("decode bulk response: %w", err)
	}

	// Results come back in submission order
	outcomes := make([]domain.BulkOutcome, len(results))
	for i, r := range results {
		o := domain.BulkOutcome{
			ID:       r.ID,
			Rev:      r.Rev,
			Error:    r.Error,
			Reason:   r.Reason,
			Conflict: r.Error == "conflict",
		}
		if i < len(docs) {
			o.Doc = docs[i]
			if o.ID == "" {
				o.ID = domain.DocID(docs[i])
			}
		}
		outcomes[i] = o
	}
	return outcomes, nil
}

// PutAttachment uploads one attachment and returns the new document revision.
func (d *Database) PutAttachment(ctx context.Context, docID, rev string, att domain.Attachment) (string, error) {
	target := d.docURL(docID) + "/" + escapePath(att.Name)
	if rev != "" {
		target += "?" + url.Values{"rev": {rev}}.Encode()
	}

	resp, err := d.do(ctx, http.MethodPut, target, bytes.NewReader(att.Data), att.ContentType)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		var sr saveResponse
		_ = decodeBody(resp.Body, &sr)
		return "", &domain.ConflictError{ID: docID, Rev: rev, Reason: sr.Reason}
	}
	if resp.StatusCode/100 != 2 {
		return "", statusError(resp)
	}

	var sr saveResponse
	if err := decodeBody(resp.Body, &sr); err != nil {
		return "", fmt.Errorf("decode attachment response: %w", err)
	}
	return sr.Rev, nil
}

func (d *Database) docURL(id string) string {
	return d.base + "/" + escapeID(id)
}

func (d *Database) do(ctx context.Context, method, target string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", contentTypeJSON)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if d.user != nil {
		pass, _ := d.user.Password()
		req.SetBasicAuth(d.user.Username(), pass)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, d.base, err)
	}
	return resp, nil
}

// escapeID escapes a document identifier for use in a path. Design document
// identifiers keep their prefix slash.
func escapeID(id string) string {
	if rest, ok := strings.CutPrefix(id, domain.DesignPrefix); ok {
		return domain.DesignPrefix + url.PathEscape(rest)
	}
	return url.PathEscape(id)
}

// escapePath escapes every segment of a slash-separated path.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func decodeBody(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec.Decode(v)
}

func statusError(resp *http.Response) error {
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
}
