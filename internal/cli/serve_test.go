package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/HunRotation/umato/pkg/cache"
	"github.com/HunRotation/umato/pkg/store"
)

func newTestHandler(t *testing.T) (http.Handler, *store.Run) {
	t.Helper()

	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	run := store.NewRun()
	run.DatasetPath = "iris.csv"
	run.Embedding = [][]float64{{0, 0}, {1, 0}, {0.5, 1}}
	run.Labels = []int{0, 1, 0}
	run.Costs = []float64{0.8, 0.6, 0.5}
	if err := st.Save(context.Background(), run); err != nil {
		t.Fatalf("Save: %v", err)
	}

	return newServeHandler(st, cache.NewNullCache()), run
}

// countingCache is an in-memory Cache recording hit and set counts.
type countingCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	hits    int
	sets    int
}

func newCountingCache() *countingCache {
	return &countingCache{entries: map[string][]byte{}}
}

func (c *countingCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return data, ok, nil
}

func (c *countingCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	c.sets++
	return nil
}

func (c *countingCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *countingCache) Close() error { return nil }

func doRequest(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServeHealthz(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body %q, want ok", rec.Body.String())
	}
}

func TestServeListRuns(t *testing.T) {
	h, run := newTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/runs")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	var runs []store.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].ID != run.ID {
		t.Errorf("listed ID %q, want %q", runs[0].ID, run.ID)
	}
	if runs[0].Points != 3 {
		t.Errorf("listed points %d, want 3", runs[0].Points)
	}
}

func TestServeGetRun(t *testing.T) {
	h, run := newTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/runs/"+run.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	var got store.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if got.ID != run.ID {
		t.Errorf("ID %q, want %q", got.ID, run.ID)
	}
	if len(got.Embedding) != 3 || len(got.Costs) != 3 {
		t.Errorf("payload truncated: %d points, %d costs", len(got.Embedding), len(got.Costs))
	}
}

func TestServeGetMissingRun(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/runs/does-not-exist")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["code"] != "RUN_NOT_FOUND" {
		t.Errorf("error code %q, want RUN_NOT_FOUND", body["code"])
	}
}

func TestServeRunSVG(t *testing.T) {
	h, run := newTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/runs/"+run.ID+"/svg")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Error("body is not an SVG document")
	}
}

func TestServeRunPNG(t *testing.T) {
	h, run := newTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/runs/"+run.ID+"/png")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type %q", ct)
	}
	body := rec.Body.Bytes()
	if len(body) < 8 || body[0] != 0x89 || string(body[1:4]) != "PNG" {
		t.Error("body is not a PNG image")
	}
}

func TestServePlotArtifactIsCached(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer st.Close()

	run := store.NewRun()
	run.Embedding = [][]float64{{0, 0}, {1, 0}, {0.5, 1}}
	run.Labels = []int{0, 1, 0}
	if err := st.Save(context.Background(), run); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cc := newCountingCache()
	h := newServeHandler(st, cc)

	first := doRequest(t, h, http.MethodGet, "/api/runs/"+run.ID+"/svg")
	if first.Code != http.StatusOK {
		t.Fatalf("first status %d, want 200", first.Code)
	}
	if cc.sets != 1 || cc.hits != 0 {
		t.Fatalf("first request: sets=%d hits=%d, want 1/0", cc.sets, cc.hits)
	}

	second := doRequest(t, h, http.MethodGet, "/api/runs/"+run.ID+"/svg")
	if second.Code != http.StatusOK {
		t.Fatalf("second status %d, want 200", second.Code)
	}
	if cc.hits != 1 || cc.sets != 1 {
		t.Errorf("second request: sets=%d hits=%d, want 1/1", cc.sets, cc.hits)
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("cached artifact differs from rendered artifact")
	}

	// Changing labels changes the plotted colors, so the key must change.
	run.Labels = []int{1, 1, 1}
	if err := st.Save(context.Background(), run); err != nil {
		t.Fatalf("re-save: %v", err)
	}
	third := doRequest(t, h, http.MethodGet, "/api/runs/"+run.ID+"/svg")
	if third.Code != http.StatusOK {
		t.Fatalf("third status %d, want 200", third.Code)
	}
	if cc.sets != 2 {
		t.Errorf("relabeled run should render a new artifact: sets=%d", cc.sets)
	}
}

func TestServeDeleteRun(t *testing.T) {
	h, run := newTestHandler(t)

	rec := doRequest(t, h, http.MethodDelete, "/api/runs/"+run.ID)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status %d, want 204", rec.Code)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/runs/"+run.ID)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status %d, want 404", rec.Code)
	}
}
