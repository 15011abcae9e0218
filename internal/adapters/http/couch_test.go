package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeCouch is a minimal in-memory CouchDB server.
type fakeCouch struct {
	t *testing.T

	mu       sync.Mutex
	dbs      map[string]map[string]map[string]any
	requests []string
	auth     []string
	atts     map[string][]byte
}

func newFakeCouch(t *testing.T) (*fakeCouch, *httptest.Server) {
	fc := &fakeCouch{
		t:    t,
		dbs:  map[string]map[string]map[string]any{},
		atts: map[string][]byte{},
	}
	ts := httptest.NewServer(http.HandlerFunc(fc.serve))
	t.Cleanup(ts.Close)
	return fc, ts
}

func (fc *fakeCouch) put(db, id string, doc map[string]any) string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.dbs[db] == nil {
		fc.dbs[db] = map[string]map[string]any{}
	}
	return fc.store(db, id, doc)
}

// store assigns the next revision. Callers hold mu.
func (fc *fakeCouch) store(db, id string, doc map[string]any) string {
	n := 1
	if cur, ok := fc.dbs[db][id]; ok {
		fmt.Sscanf(cur["_rev"].(string), "%d-", &n)
		n++
	}
	rev := fmt.Sprintf("%d-x", n)
	stored := map[string]any{}
	for k, v := range doc {
		stored[k] = v
	}
	stored["_id"] = id
	stored["_rev"] = rev
	fc.dbs[db][id] = stored
	return rev
}

func (fc *fakeCouch) doc(db, id string) map[string]any {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.dbs[db][id]
}

func (fc *fakeCouch) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// saveLocked applies the CouchDB revision check. Callers hold mu.
func (fc *fakeCouch) saveLocked(db, id string, doc map[string]any) (string, bool) {
	cur, exists := fc.dbs[db][id]
	rev, _ := doc["_rev"].(string)
	if exists && cur["_rev"] != rev {
		return "", false
	}
	if !exists && rev != "" {
		return "", false
	}
	return fc.store(db, id, doc), true
}

func (fc *fakeCouch) serve(w http.ResponseWriter, r *http.Request) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	path := strings.TrimPrefix(r.URL.EscapedPath(), "/")
	fc.requests = append(fc.requests, r.Method+" /"+path)
	if user, pass, ok := r.BasicAuth(); ok {
		fc.auth = append(fc.auth, user+":"+pass)
	}

	parts := strings.SplitN(path, "/", 2)
	db := parts[0]
	if len(parts) == 1 || parts[1] == "" {
		if r.Method != http.MethodPut {
			fc.writeJSON(w, http.StatusMethodNotAllowed, nil)
			return
		}
		if _, ok := fc.dbs[db]; ok {
			fc.writeJSON(w, http.StatusPreconditionFailed, map[string]any{"error": "file_exists"})
			return
		}
		fc.dbs[db] = map[string]map[string]any{}
		fc.writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
		return
	}
	if _, ok := fc.dbs[db]; !ok {
		fc.writeJSON(w, http.StatusNotFound, map[string]any{"error": "not_found", "reason": "no_db_file"})
		return
	}

	rest := parts[1]
	if rest == "_bulk_docs" {
		var req struct {
			Docs []map[string]any `json:"docs"`
		}
		require.NoError(fc.t, json.NewDecoder(r.Body).Decode(&req))
		var results []map[string]any
		for _, d := range req.Docs {
			id, _ := d["_id"].(string)
			if rev, ok := fc.saveLocked(db, id, d); ok {
				results = append(results, map[string]any{"ok": true, "id": id, "rev": rev})
			} else {
				results = append(results, map[string]any{"id": id, "error": "conflict", "reason": "Document update conflict."})
			}
		}
		fc.writeJSON(w, http.StatusCreated, results)
		return
	}

	// Split the document id from an attachment name
	id, att := rest, ""
	if strings.HasPrefix(rest, "_design/") {
		segs := strings.SplitN(strings.TrimPrefix(rest, "_design/"), "/", 2)
		id = "_design/" + segs[0]
		if len(segs) == 2 {
			att = segs[1]
		}
	} else if i := strings.Index(rest, "/"); i >= 0 {
		id, att = rest[:i], rest[i+1:]
	}
	id = unescape(fc.t, id)

	switch {
	case att != "" && r.Method == http.MethodPut:
		cur, ok := fc.dbs[db][id]
		if !ok || cur["_rev"] != r.URL.Query().Get("rev") {
			fc.writeJSON(w, http.StatusConflict, map[string]any{"error": "conflict"})
			return
		}
		data, _ := io.ReadAll(r.Body)
		fc.atts[id+"/"+att] = data
		rev := fc.store(db, id, cur)
		fc.writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": id, "rev": rev})
	case r.Method == http.MethodHead || r.Method == http.MethodGet:
		cur, ok := fc.dbs[db][id]
		if !ok {
			fc.writeJSON(w, http.StatusNotFound, map[string]any{"error": "not_found", "reason": "missing"})
			return
		}
		w.Header().Set("ETag", `"`+cur["_rev"].(string)+`"`)
		fc.writeJSON(w, http.StatusOK, cur)
	case r.Method == http.MethodPut:
		var d map[string]any
		require.NoError(fc.t, json.NewDecoder(r.Body).Decode(&d))
		rev, ok := fc.saveLocked(db, id, d)
		if !ok {
			fc.writeJSON(w, http.StatusConflict, map[string]any{"error": "conflict", "reason": "Document update conflict."})
			return
		}
		fc.writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": id, "rev": rev})
	default:
		fc.writeJSON(w, http.StatusMethodNotAllowed, nil)
	}
}
