package fs

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/bft-labs/appship/internal/domain"
	"github.com/bft-labs/appship/internal/ports"
)

// Reserved names inside a document directory.
const (
	idFile         = "_id"
	attachmentsDir = "_attachments"
	companionDir   = "_docs"
)

const defaultContentType = "application/octet-stream"

// Loader implements ports.DocumentLoader over a billy filesystem.
type Loader struct {
	fs billy.Filesystem
}

// NewLoader creates a loader reading from fs.
func NewLoader(fs billy.Filesystem) *Loader {
	return &Loader{fs: fs}
}

// Load reads the document rooted at dir.
//
// Every regular file becomes a field named after its stem: *.json files hold
// JSON values, other files hold their text with one trailing newline removed.
// Subdirectories become nested objects and _attachments holds the attachments.
// Hidden entries and the _docs directory are not part of the document.
func (l *Loader) Load(dir string, opts ports.LoadOptions) (*domain.Document, error) {
	fi, err := l.fs.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	id, err := l.documentID(dir, opts)
	if err != nil {
		return nil, err
	}

	body := map[string]any{}
	var manifest []string
	if err := l.loadFields(dir, "", body, &manifest); err != nil {
		return nil, err
	}

	atts, err := l.loadAttachments(filepath.Join(dir, attachmentsDir))
	if err != nil {
		return nil, err
	}

	sort.Strings(manifest)
	doc := &domain.Document{
		ID:          id,
		Body:        body,
		Attachments: atts,
		Design:      opts.Design,
	}

	meta, _ := body[domain.MetadataKey].(map[string]any)
	if meta == nil {
		meta = map[string]any{}
	}
	if manifest == nil {
		manifest = []string{}
	}
	meta["manifest"] = manifest
	meta["signatures"] = doc.Signatures()
	body[domain.MetadataKey] = meta
	return doc, nil
}

func (l *Loader) documentID(dir string, opts ports.LoadOptions) (string, error) {
	if opts.DocID != "" {
		return opts.DocID, nil
	}

	data, err := util.ReadFile(l.fs, filepath.Join(dir, idFile))
	switch {
	case err == nil:
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("read %s: %w", idFile, err)
	}

	name := filepath.Base(dir)
	if opts.Design {
		return domain.DesignPrefix + name, nil
	}
	return name, nil
}

// loadFields fills target with the entries of dir. rel is the slash-separated
// path of dir relative to the document root.
func (l *Loader) loadFields(dir, rel string, target map[string]any, manifest *[]string) error {
	entries, err := l.fs.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if skipEntry(name, rel == "") {
			continue
		}
		full := filepath.Join(dir, name)
		relName := path.Join(rel, name)

		if entry.IsDir() {
			child := map[string]any{}
			if existing, ok := target[name].(map[string]any); ok {
				child = existing
			}
			if err := l.loadFields(full, relName, child, manifest); err != nil {
				return err
			}
			target[name] = child
			continue
		}

		data, err := util.ReadFile(l.fs, full)
		if err != nil {
			return fmt.Errorf("read %s: %w", full, err)
		}

		ext := filepath.Ext(name)
		key := strings.TrimSuffix(name, ext)
		if ext == ".json" {
			v, err := decodeJSON(data)
			if err != nil {
				return fmt.Errorf("decode %s: %w", full, err)
			}
			target[key] = v
		} else {
			target[key] = strings.TrimSuffix(string(data), "\n")
		}
		*manifest = append(*manifest, relName)
	}
	return nil
}

// skipEntry reports whether an entry is kept out of the document body.
func skipEntry(name string, top bool) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if !top {
		return false
	}
	switch name {
	case idFile, attachmentsDir, companionDir, domain.FieldRev:
		return true
	}
	return false
}

func (l *Loader) loadAttachments(dir string) ([]domain.Attachment, error) {
	if _, err := l.fs.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}

	var atts []domain.Attachment
	err := util.Walk(l.fs, dir, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p != dir && strings.HasPrefix(fi.Name(), ".") {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if fi.IsDir() {
			return nil
		}

		data, err := util.ReadFile(l.fs, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		atts = append(atts, newAttachment(filepath.ToSlash(rel), data))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(atts, func(i, j int) bool { return atts[i].Name < atts[j].Name })
	return atts, nil
}

func newAttachment(name string, data []byte) domain.Attachment {
	sum := md5.Sum(data)
	ct := mime.TypeByExtension(path.Ext(name))
	if ct == "" {
		ct = defaultContentType
	}
	return domain.Attachment{
		Name:        name,
		ContentType: ct,
		Data:        data,
		Signature:   hex.EncodeToString(sum[:]),
	}
}

// LoadJSON decodes the JSON object stored in p.
func (l *Loader) LoadJSON(p string) (map[string]any, error) {
	data, err := util.ReadFile(l.fs, p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	v, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedDocument, p, err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: not a JSON object", domain.ErrMalformedDocument, p)
	}
	return obj, nil
}

// decodeJSON keeps numbers as json.Number so they are re-encoded verbatim.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}
