package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/sakuin/internal/config"
	"github.com/hyperjump/sakuin/internal/indexer"
	"github.com/hyperjump/sakuin/internal/models"
	"github.com/hyperjump/sakuin/internal/schema"
	"github.com/hyperjump/sakuin/internal/search"
	"github.com/hyperjump/sakuin/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.SQLiteStore) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStore(filepath.Join(dir, "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	s, err := schema.New("entry", "blog.entry",
		[]schema.FieldDef{{Accessor: schema.Field("text"), Kind: schema.KindText}},
		[]schema.TagDef{
			{Name: "author", Accessor: schema.Chain("author", "name"), Kind: schema.KindText},
			{Name: "count", Accessor: schema.Field("asset_count"), Kind: schema.KindInt},
		},
		schema.WithAliases(map[string][]string{"author": {"user"}}),
	)
	if err != nil {
		t.Fatal(err)
	}
	index, err := indexer.OpenIndex(filepath.Join(dir, "idx"), s)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = index.Close() })

	ctx := context.Background()
	seeds := []struct {
		pk    string
		text  string
		name  string
		count int
	}{
		{"1", "solar panels generate clean power", "alice", 2},
		{"2", "wind turbines generate power at night", "bob", 5},
		{"3", "solar batteries bank surplus power", "alice", 9},
	}
	for _, seed := range seeds {
		attrs := map[string]interface{}{
			"text":        seed.text,
			"asset_count": seed.count,
			"author":      map[string]interface{}{"id": 1, "name": seed.name},
		}
		if err := store.UpsertRecord(ctx, "entry", seed.pk, attrs); err != nil {
			t.Fatal(err)
		}
	}
	ix := indexer.New(s, index, store)
	if _, err := ix.Update(ctx, nil, indexer.UpdateOptions{}); err != nil {
		t.Fatal(err)
	}
	// Seeding left change entries behind; the tests drive indexing directly.
	for {
		entries, err := store.ListChanges(ctx, 100)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) == 0 {
			break
		}
		for _, e := range entries {
			if err := store.RemoveChange(ctx, e.ID); err != nil {
				t.Fatal(err)
			}
		}
	}

	services := map[string]*Service{
		"entry": {Indexer: ix, Searcher: search.NewSearcher(s, index)},
	}
	cfg := &config.ServerConfig{Host: "localhost", Port: 8080}
	return NewServer(services, store, cfg, zap.NewNop()), store
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleSearch(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/search", &models.SearchRequest{
		Type: "entry", Query: "power",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp models.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 3 {
		t.Errorf("Total = %d, want 3", resp.Total)
	}
	if resp.ParsedQuery == "" {
		t.Error("ParsedQuery should be populated")
	}
	for _, m := range resp.Matches {
		if m.PrimaryKey == "" || m.Type != "entry" {
			t.Errorf("match %+v missing metadata", m)
		}
	}
}

func TestHandleSearchSortAndFilter(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/search", &models.SearchRequest{
		Type: "entry", Query: "power", OrderBy: "-count",
		Filter: map[string]string{"user": "alice"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp models.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 {
		t.Fatalf("Total = %d, want 2", resp.Total)
	}
	if resp.Matches[0].PrimaryKey != "3" {
		t.Errorf("first match pk = %s, want 3 (highest count)", resp.Matches[0].PrimaryKey)
	}
}

func TestHandleSearchSuggestsCorrection(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/search", &models.SearchRequest{
		Type: "entry", Query: "solr",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp models.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 0 {
		t.Fatalf("Total = %d, want 0 for misspelled query", resp.Total)
	}
	if resp.Suggestion != "solar" {
		t.Errorf("Suggestion = %q, want solar", resp.Suggestion)
	}

	// Well-spelled queries with matches get no suggestion. Decode into a
	// fresh struct: omitempty would leave the earlier value in place.
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/search", &models.SearchRequest{
		Type: "entry", Query: "solar",
	})
	var again models.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &again); err != nil {
		t.Fatal(err)
	}
	if again.Total == 0 {
		t.Error("Total = 0, want matches for well-spelled query")
	}
	if again.Suggestion != "" {
		t.Errorf("unexpected Suggestion %q", again.Suggestion)
	}
}

func TestHandleSearchErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		req  interface{}
		want int
	}{
		{"unknown type", &models.SearchRequest{Type: "widget", Query: "x"}, http.StatusNotFound},
		{"missing query", &models.SearchRequest{Type: "entry"}, http.StatusBadRequest},
		{"unknown sort field", &models.SearchRequest{Type: "entry", Query: "x", OrderBy: "bogus"}, http.StatusBadRequest},
		{"unknown filter field", &models.SearchRequest{Type: "entry", Query: "x", Filter: map[string]string{"color": "red"}}, http.StatusBadRequest},
		{"bad filter value", &models.SearchRequest{Type: "entry", Query: "x", Filter: map[string]string{"count": "soon"}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/v1/search", tt.req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestHandleSearchInvalidBody(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleRelated(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/related", &models.RelatedRequest{
		Type: "entry", Query: "solar",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp models.RelatedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ExpandedQuery == "" {
		t.Fatal("expanded query should not be empty")
	}
	if !strings.Contains(resp.ExpandedQuery, " OR ") && !strings.Contains(resp.ExpandedQuery, "solar") {
		t.Errorf("ExpandedQuery = %q, want disjunctive expansion", resp.ExpandedQuery)
	}
	if resp.Total == 0 {
		t.Error("expanded query should match documents")
	}
}

func TestHandleRelatedByUID(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/related", &models.RelatedRequest{
		Type: "entry", UIDs: []string{"UID-1-entry-blog.entry", "UID-3-entry-blog.entry"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp models.RelatedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ExpandedQuery == "" {
		t.Fatal("expanded query should not be empty")
	}
	if resp.Total == 0 {
		t.Error("expanded query should match documents")
	}

	// Neither a query nor uids is a client error.
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/related", &models.RelatedRequest{Type: "entry"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleReindex(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/reindex", &models.ReindexRequest{})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]indexer.UpdateStats
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["entry"].Indexed != 3 {
		t.Errorf("Indexed = %d, want 3", resp["entry"].Indexed)
	}
}

func TestHandleRecordLifecycle(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()

	rec := doJSON(t, srv, http.MethodPut, "/api/v1/records/entry/9", map[string]interface{}{
		"text":        "geothermal power from below",
		"asset_count": 1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("upsert status = %d, body %s", rec.Code, rec.Body.String())
	}
	pending, err := store.CountChanges(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if pending != 1 {
		t.Errorf("pending changes = %d, want 1", pending)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/records/entry/9", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/records/entry/9", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/records/entry/9", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestHandleStatusAndClear(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Indices        []*models.IndexStatus `json:"indices"`
		PendingChanges int64                 `json:"pending_changes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Indices) != 1 || resp.Indices[0].Documents != 3 || resp.Indices[0].Records != 3 {
		t.Errorf("indices = %+v, want entry with 3/3", resp.Indices)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/indices/entry", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/status", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Indices[0].Documents != 0 {
		t.Errorf("documents after clear = %d, want 0", resp.Indices[0].Documents)
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
