package docstore

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/utafrali/plantstore/pkg/httpclient"
)

// fakeStore is a small in-memory json-server: collections of JSON objects,
// equality and _gte/_lte filters, _limit, and GET/POST/PUT/PATCH by id.
type fakeStore struct {
	mu          sync.Mutex
	collections map[string][]map[string]any
	failWith    int
	requests    []string
}

func newFakeStore(t *testing.T) (*fakeStore, *Client) {
	t.Helper()
	fs := &fakeStore{collections: map[string][]map[string]any{}}
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)

	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	cfg.Timeout = 2 * time.Second
	return fs, NewClient(srv.URL+"/", httpclient.New(cfg))
}

func (fs *fakeStore) seed(collection string, raw string) {
	var docs []map[string]any
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		panic(err)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.collections[collection] = append(fs.collections[collection], docs...)
}

func (fs *fakeStore) all(collection string) []map[string]any {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]map[string]any(nil), fs.collections[collection]...)
}

func (fs *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.requests = append(fs.requests, r.Method+" "+r.URL.RequestURI())

	if fs.failWith != 0 {
		w.WriteHeader(fs.failWith)
		_, _ = w.Write([]byte("store failure"))
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	coll := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			writeJSON(w, http.StatusOK, fs.filter(coll, r))
		case http.MethodPost:
			var doc map[string]any
			if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if doc["id"] == nil || doc["id"] == "" {
				doc["id"] = strconv.Itoa(len(fs.collections[coll]) + 1)
			}
			fs.collections[coll] = append(fs.collections[coll], doc)
			writeJSON(w, http.StatusCreated, doc)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id := parts[1]
	for i, doc := range fs.collections[coll] {
		if fmt.Sprint(doc["id"]) != id {
			continue
		}
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, doc)
		case http.MethodPatch, http.MethodPut:
			var patch map[string]any
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if r.Method == http.MethodPut {
				doc = map[string]any{"id": doc["id"]}
			}
			for k, v := range patch {
				doc[k] = v
			}
			fs.collections[coll][i] = doc
			writeJSON(w, http.StatusOK, doc)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]any{})
}

func (fs *fakeStore) filter(coll string, r *http.Request) []map[string]any {
	out := []map[string]any{}
	limit := -1
	if v := r.URL.Query().Get("_limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	for _, doc := range fs.collections[coll] {
		if matches(doc, r) {
			out = append(out, doc)
		}
		if limit >= 0 && len(out) == limit {
			break
		}
	}
	return out
}

func matches(doc map[string]any, r *http.Request) bool {
	for key, values := range r.URL.Query() {
		if strings.HasPrefix(key, "_") {
			continue
		}
		want := values[0]
		switch {
		case strings.HasSuffix(key, "_gte"):
			n, _ := strconv.ParseFloat(want, 64)
			if v, ok := doc[strings.TrimSuffix(key, "_gte")].(float64); !ok || v < n {
				return false
			}
		case strings.HasSuffix(key, "_lte"):
			n, _ := strconv.ParseFloat(want, 64)
			if v, ok := doc[strings.TrimSuffix(key, "_lte")].(float64); !ok || v > n {
				return false
			}
		default:
			if fmt.Sprint(doc[key]) != want {
				return false
			}
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonUnmarshal(s string, v any) error {
	return json.Unmarshal([]byte(s), v)
}
