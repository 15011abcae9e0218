package app

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	fsAdapter "github.com/bft-labs/appship/internal/adapters/fs"
	logAdapter "github.com/bft-labs/appship/internal/adapters/log"
	"github.com/bft-labs/appship/internal/domain"
	"github.com/bft-labs/appship/internal/ports"
)

// events records the order of side effects across stubs.
type events struct {
	list []string
}

func (e *events) add(format string, args ...any) {
	if e != nil {
		e.list = append(e.list, fmt.Sprintf(format, args...))
	}
}

// stubDB is an in-memory ports.Database.
type stubDB struct {
	name   string
	events *events

	// revs holds the stored revision per document id
	revs map[string]string

	// remote holds documents returned by FetchDocument
	remote map[string]map[string]any

	// bulk decides the outcome of each SaveMany call; all saved when nil
	bulk    func(call int, docs []map[string]any) []domain.BulkOutcome
	bulkErr error

	saveErr error

	saveManyCalls [][]map[string]any
	saved         []map[string]any
	saveOpts      []ports.SaveOptions
	attachments   []string
}

func newStubDB(name string) *stubDB {
	return &stubDB{
		name:   name,
		revs:   map[string]string{},
		remote: map[string]map[string]any{},
	}
}

func (d *stubDB) Name() string { return d.name }

func (d *stubDB) URL(path string) string { return d.name + "/" + path }

func (d *stubDB) SaveDocument(_ context.Context, doc map[string]any, opts ports.SaveOptions) (string, error) {
	d.events.add("save %s %s", d.name, domain.DocID(doc))
	d.saved = append(d.saved, doc)
	d.saveOpts = append(d.saveOpts, opts)
	if d.saveErr != nil {
		return "", d.saveErr
	}
	return "1-saved", nil
}

func (d *stubDB) SaveMany(_ context.Context, docs []map[string]any) ([]domain.BulkOutcome, error) {
	d.events.add("bulk %s %d", d.name, len(docs))
	d.saveManyCalls = append(d.saveManyCalls, docs)
	if d.bulkErr != nil {
		return nil, d.bulkErr
	}
	if d.bulk != nil {
		return d.bulk(len(d.saveManyCalls), docs), nil
	}
	return allSaved(docs), nil
}

func (d *stubDB) FetchCurrentRevision(_ context.Context, id string) (string, error) {
	if rev, ok := d.revs[id]; ok {
		return rev, nil
	}
	return "", domain.ErrNotFound
}

func (d *stubDB) FetchDocument(_ context.Context, id string) (map[string]any, error) {
	if doc, ok := d.remote[id]; ok {
		return doc, nil
	}
	return nil, domain.ErrNotFound
}

func (d *stubDB) PutAttachment(_ context.Context, docID, rev string, att domain.Attachment) (string, error) {
	d.attachments = append(d.attachments, fmt.Sprintf("%s/%s@%s", docID, att.Name, rev))
	return rev + "+", nil
}

func allSaved(docs []map[string]any) []domain.BulkOutcome {
	out := make([]domain.BulkOutcome, len(docs))
	for i, doc := range docs {
		out[i] = domain.BulkOutcome{ID: domain.DocID(doc), Rev: "1-bulk", Doc: doc}
	}
	return out
}

func allConflict(docs []map[string]any) []domain.BulkOutcome {
	out := make([]domain.BulkOutcome, len(docs))
	for i, doc := range docs {
		out[i] = domain.BulkOutcome{ID: domain.DocID(doc), Error: "conflict", Conflict: true, Doc: doc}
	}
	return out
}

// panicDB fails the test on any use.
type panicDB struct{}

func (panicDB) Name() string      { return "panic" }
func (panicDB) URL(string) string { panic("destination contacted") }
func (panicDB) SaveDocument(context.Context, map[string]any, ports.SaveOptions) (string, error) {
	panic("destination contacted")
}
func (panicDB) SaveMany(context.Context, []map[string]any) ([]domain.BulkOutcome, error) {
	panic("destination contacted")
}
func (panicDB) FetchCurrentRevision(context.Context, string) (string, error) {
	panic("destination contacted")
}
func (panicDB) FetchDocument(context.Context, string) (map[string]any, error) {
	panic("destination contacted")
}
func (panicDB) PutAttachment(context.Context, string, string, domain.Attachment) (string, error) {
	panic("destination contacted")
}

// stubConfig is an in-memory ports.Configurer.
type stubConfig struct {
	dbs        []ports.Database
	resolveErr error
	hooks      map[string][]ports.Hook

	resolved []string
	updated  []string
}

func (c *stubConfig) Resolve(_ context.Context, dest string) ([]ports.Database, error) {
	c.resolved = append(c.resolved, dest)
	if c.resolveErr != nil {
		return nil, c.resolveErr
	}
	return c.dbs, nil
}

func (c *stubConfig) Hooks(name string) ([]ports.Hook, error) {
	return c.hooks[name], nil
}

func (c *stubConfig) Update(appDir string) error {
	c.updated = append(c.updated, appDir)
	return nil
}

// recordingHook records its invocations.
type recordingHook struct {
	label  string
	events *events
	err    error
	calls  []ports.HookContext
}

func (h *recordingHook) Run(_ context.Context, hc ports.HookContext) error {
	h.events.add("hook %s %s", hc.Name, h.label)
	h.calls = append(h.calls, hc)
	return h.err
}

func (h *recordingHook) String() string { return h.label }

// recordingBrowser records opened URLs.
type recordingBrowser struct {
	urls []string
}

func (b *recordingBrowser) Open(url string) error {
	b.urls = append(b.urls, url)
	return nil
}

func writeTree(t *testing.T, fs billy.Filesystem, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
	}
}

// scenarioTree is an application with a raw companion file, hidden files and
// directories, and a companion directory.
func scenarioTree(t *testing.T) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	writeTree(t, fs, map[string]string{
		"/app/title":              "Blog\n",
		"/app/_docs/a.json":       `{"k":1}`,
		"/app/_docs/.hidden":      `{"hidden":true}`,
		"/app/_docs/.secret.json": `{"token":"s3cr3t"}`,
		"/app/_docs/.cache/title": "Cached\n",
		"/app/_docs/sub/title":    "Sub\n",
	})
	return fs
}

func testEnv(fs billy.Filesystem, cfg ports.Configurer, stdout *bytes.Buffer) Env {
	return Env{
		Config: cfg,
		Loader: fsAdapter.NewLoader(fs),
		FS:     fs,
		Stdout: stdout,
		Logger: logAdapter.NewNoopLogger(),
		PushID: "push-test",
		Getwd:  func() (string, error) { return "/", nil },
	}
}
