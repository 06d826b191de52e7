package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/IshaanNene/StashGoat/internal/config"
	"github.com/IshaanNene/StashGoat/internal/observability"
	"github.com/IshaanNene/StashGoat/internal/pipeline"
	"github.com/IshaanNene/StashGoat/internal/storage"
	"github.com/IshaanNene/StashGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const stubHTML = `<html><head><title>Server Software News</title></head><body><article>
<p>New server software shipped today with a faster network stack for the internet at large.</p>
<p>The release focuses on computer security hardening and cyber resilience for production users.</p>
</article></body></html>`

type stubFetcher struct {
	err error
}

func (f *stubFetcher) Fetch(context.Context, string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte(stubHTML), nil
}

func (f *stubFetcher) Close() error { return nil }

func newTestServer(t *testing.T, fetchErr error) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "test.db")

	store, err := storage.New(&cfg.Storage, testLogger)
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}

	metrics := observability.NewMetrics(testLogger)
	p := pipeline.New(cfg, store, metrics, testLogger,
		pipeline.WithFetcher(&stubFetcher{err: fetchErr}))
	t.Cleanup(func() { p.Close() })

	return NewServer(p, metrics, &cfg.API)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d, want 200", w.Code)
	}
}

func TestIngestEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodPost, "/api/v1/articles", map[string]string{
		"owner_id": "alice",
		"url":      "https://example.com/post",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /articles status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Article types.Article `json:"article"`
		Created bool          `json:"created"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Created {
		t.Error("created = false, want true")
	}
	if resp.Article.Title != "Server Software News" {
		t.Errorf("title = %q", resp.Article.Title)
	}
	if resp.Article.Category != "technology" {
		t.Errorf("category = %q, want technology", resp.Article.Category)
	}

	// Same URL again dedups to the stored article.
	w = doJSON(t, s, http.MethodPost, "/api/v1/articles", map[string]string{
		"owner_id": "alice",
		"url":      "https://example.com/post",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("duplicate POST status = %d, want 200", w.Code)
	}
}

func TestIngestEndpointValidation(t *testing.T) {
	s := newTestServer(t, nil)

	// Missing owner_id.
	w := doJSON(t, s, http.MethodPost, "/api/v1/articles", map[string]string{"url": "https://example.com/"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing owner_id status = %d, want 400", w.Code)
	}

	// Unsupported scheme.
	w = doJSON(t, s, http.MethodPost, "/api/v1/articles", map[string]string{
		"owner_id": "alice",
		"url":      "ftp://example.com/file",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad scheme status = %d, want 400", w.Code)
	}
}

func TestIngestEndpointFetchFailure(t *testing.T) {
	s := newTestServer(t, &types.FetchError{URL: "https://down.example.com/", Attempts: 4, Err: types.ErrFetchFailed})

	w := doJSON(t, s, http.MethodPost, "/api/v1/articles", map[string]string{
		"owner_id": "alice",
		"url":      "https://down.example.com/",
	})
	if w.Code != http.StatusBadGateway {
		t.Errorf("fetch failure status = %d, want 502", w.Code)
	}
}

func TestListEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	for _, url := range []string{"https://example.com/1", "https://example.com/2"} {
		w := doJSON(t, s, http.MethodPost, "/api/v1/articles", map[string]string{
			"owner_id": "alice",
			"url":      url,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("POST %s status = %d", url, w.Code)
		}
	}

	w := doJSON(t, s, http.MethodGet, "/api/v1/articles?owner_id=alice&page=0", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /articles status = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Articles []types.Article `json:"articles"`
		Count    int             `json:"count"`
		HasMore  bool            `json:"has_more"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Count != 2 || len(resp.Articles) != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
	if resp.HasMore {
		t.Error("has_more = true, want false")
	}

	// Compressed bodies never leak into the JSON payload.
	if bytes.Contains(w.Body.Bytes(), []byte("body_compressed")) {
		t.Error("response exposes body_compressed")
	}

	// Unknown owner gets an empty page, not an error.
	w = doJSON(t, s, http.MethodGet, "/api/v1/articles?owner_id=nobody", nil)
	if w.Code != http.StatusOK {
		t.Errorf("GET unknown owner status = %d, want 200", w.Code)
	}
}

func TestListEndpointValidation(t *testing.T) {
	s := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodGet, "/api/v1/articles", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing owner_id status = %d, want 400", w.Code)
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/articles?owner_id=alice&page=-1", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative page status = %d, want 400", w.Code)
	}
}

func TestGetAndDeleteEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodPost, "/api/v1/articles", map[string]string{
		"owner_id": "alice",
		"url":      "https://example.com/post",
	})
	var created struct {
		Article types.Article `json:"article"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	id := created.Article.ID

	w = doJSON(t, s, http.MethodGet, "/api/v1/articles/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /articles/%s status = %d", id, w.Code)
	}
	var got struct {
		Body string `json:"body"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got.Body == "" {
		t.Error("article body empty")
	}

	if w = doJSON(t, s, http.MethodDelete, "/api/v1/articles/"+id, nil); w.Code != http.StatusBadRequest {
		t.Errorf("DELETE without owner_id status = %d, want 400", w.Code)
	}
	if w = doJSON(t, s, http.MethodDelete, "/api/v1/articles/"+id+"?owner_id=alice", nil); w.Code != http.StatusOK {
		t.Errorf("DELETE status = %d, want 200", w.Code)
	}
	if w = doJSON(t, s, http.MethodGet, "/api/v1/articles/"+id, nil); w.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want 404", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	doJSON(t, s, http.MethodPost, "/api/v1/articles", map[string]string{
		"owner_id": "alice",
		"url":      "https://example.com/post",
	})

	w := doJSON(t, s, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("stashgoat_ingest_total 1")) {
		t.Errorf("metrics output missing ingest counter: %s", w.Body.String())
	}
}
