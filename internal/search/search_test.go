package search

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/sakuin/internal/indexer"
	"github.com/hyperjump/sakuin/internal/schema"
	"github.com/hyperjump/sakuin/internal/storage"
)

func entrySchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New("entry", "blog.entry",
		[]schema.FieldDef{{Accessor: schema.Field("text"), Kind: schema.KindText}},
		[]schema.TagDef{
			{Name: "author", Accessor: schema.Chain("author", "name"), Kind: schema.KindText},
			{Name: "title", Accessor: schema.Field("title"), Kind: schema.KindText, Weight: 3},
			{Name: "count", Accessor: schema.Field("asset_count"), Kind: schema.KindInt},
		},
		schema.WithAliases(map[string][]string{"author": {"user"}}),
		schema.WithTrigger(func(rec schema.Record) bool {
			v, ok := rec.Attr("is_active")
			return !ok || v.Bool
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// testSearcher seeds three active records (and one inactive) and returns a
// searcher over the resulting index.
func testSearcher(t *testing.T) *Searcher {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStore(filepath.Join(dir, "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	s := entrySchema(t)
	index, err := indexer.OpenIndex(filepath.Join(dir, "idx"), s)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = index.Close() })

	ctx := context.Background()
	seeds := []struct {
		pk     string
		title  string
		text   string
		author string
		count  int
		active bool
	}{
		{"1", "Solar power basics", "solar panels convert sunlight into power", "alice", 2, true},
		{"2", "Wind energy", "wind turbines feed power into the grid", "bob", 5, true},
		{"3", "Solar storage", "solar batteries store surplus power", "alice", 9, true},
		{"4", "Knitting patterns", "knitting wool has nothing to do with power", "carol", 1, false},
	}
	for _, seed := range seeds {
		attrs := map[string]interface{}{
			"title":       seed.title,
			"text":        seed.text,
			"asset_count": seed.count,
			"is_active":   seed.active,
			"author":      map[string]interface{}{"id": 1, "name": seed.author},
		}
		if err := store.UpsertRecord(ctx, "entry", seed.pk, attrs); err != nil {
			t.Fatal(err)
		}
	}
	ix := indexer.New(s, index, store)
	if _, err := ix.Update(ctx, nil, indexer.UpdateOptions{}); err != nil {
		t.Fatal(err)
	}
	return NewSearcher(s, index)
}

func uids(res *Result) []string {
	out := make([]string, len(res.Hits))
	for i, h := range res.Hits {
		out[i] = h.UID
	}
	return out
}

func TestSearchExcludesUntriggeredRecords(t *testing.T) {
	sr := testSearcher(t)

	res, err := sr.Search(Query{Text: "power"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 3 {
		t.Errorf("Total = %d, want 3", res.Total)
	}
	for _, uid := range uids(res) {
		if uid == "UID-4-entry-blog.entry" {
			t.Errorf("inactive record %s must not match", uid)
		}
	}
}

func TestSearchSortByNumericTagAscending(t *testing.T) {
	sr := testSearcher(t)

	res, err := sr.Search(Query{Text: "power", OrderBy: "count"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"UID-1-entry-blog.entry", "UID-2-entry-blog.entry", "UID-3-entry-blog.entry"}
	got := uids(res)
	if len(got) != len(want) {
		t.Fatalf("got %d hits, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("hit[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSearchSortDescending(t *testing.T) {
	sr := testSearcher(t)

	res, err := sr.Search(Query{Text: "power", OrderBy: "-count"})
	if err != nil {
		t.Fatal(err)
	}
	got := uids(res)
	if len(got) != 3 || got[0] != "UID-3-entry-blog.entry" {
		t.Errorf("descending sort got %v, want UID-3 first", got)
	}
}

func TestSearchUnknownSortFieldFailsFast(t *testing.T) {
	sr := testSearcher(t)

	_, err := sr.Search(Query{Text: "power", OrderBy: "nonexistent"})
	if !errors.Is(err, ErrUnknownSortField) {
		t.Fatalf("err = %v, want ErrUnknownSortField", err)
	}
}

func TestSearchAliasEquivalence(t *testing.T) {
	sr := testSearcher(t)

	canonical, err := sr.Search(Query{Text: "author:alice"})
	if err != nil {
		t.Fatal(err)
	}
	aliased, err := sr.Search(Query{Text: "user:alice"})
	if err != nil {
		t.Fatal(err)
	}
	if canonical.Total != 2 || aliased.Total != canonical.Total {
		t.Fatalf("canonical=%d aliased=%d, want both 2", canonical.Total, aliased.Total)
	}
	c, a := uids(canonical), uids(aliased)
	for i := range c {
		if c[i] != a[i] {
			t.Errorf("hit[%d]: canonical %s != aliased %s", i, c[i], a[i])
		}
	}
}

func TestSearchFilterByTag(t *testing.T) {
	sr := testSearcher(t)

	res, err := sr.Search(Query{Text: "power", Filter: map[string]string{"author": "alice"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 2 {
		t.Errorf("Total = %d, want 2", res.Total)
	}
	for _, uid := range uids(res) {
		if uid == "UID-2-entry-blog.entry" {
			t.Errorf("filter author=alice must not match bob's %s", uid)
		}
	}
}

func TestSearchExcludeByTag(t *testing.T) {
	sr := testSearcher(t)

	res, err := sr.Search(Query{Text: "power", Exclude: map[string]string{"author": "alice"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 || res.Hits[0].UID != "UID-2-entry-blog.entry" {
		t.Errorf("exclude author=alice got %v (total %d), want only UID-2", uids(res), res.Total)
	}
}

func TestSearchFilterCoercesDeclaredKind(t *testing.T) {
	sr := testSearcher(t)

	res, err := sr.Search(Query{Text: "power", Filter: map[string]string{"count": "5"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 || res.Hits[0].UID != "UID-2-entry-blog.entry" {
		t.Errorf("filter count=5 got %v, want only UID-2", uids(res))
	}
}

func TestSearchFilterUnknownFieldFails(t *testing.T) {
	sr := testSearcher(t)

	_, err := sr.Search(Query{Text: "power", Filter: map[string]string{"color": "red"}})
	if err == nil {
		t.Fatal("expected error for unknown filter field")
	}
}

func TestSearchFilterCountsAcceptedHitsForPagination(t *testing.T) {
	sr := testSearcher(t)

	res, err := sr.Search(Query{
		Text:    "power",
		Filter:  map[string]string{"author": "alice"},
		Offset:  1,
		Limit:   10,
		OrderBy: "count",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 2 {
		t.Errorf("Total = %d, want 2", res.Total)
	}
	if len(res.Hits) != 1 || res.Hits[0].UID != "UID-3-entry-blog.entry" {
		t.Errorf("offset over accepted hits got %v, want only UID-3", uids(res))
	}
}

func TestRelatedQueryFromMatches(t *testing.T) {
	sr := testSearcher(t)

	res, err := sr.Search(Query{Text: "solar"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 2 {
		t.Fatalf("Total = %d, want 2 solar matches", res.Total)
	}
	related, err := sr.Related(res.Hits)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(related, "solar") {
		t.Errorf("related query %q should carry the dominant term", related)
	}
	if strings.Contains(related, "knitting") || strings.Contains(related, "wool") {
		t.Errorf("related query %q leaked terms from unmatched records", related)
	}

	again, err := sr.Search(Query{Text: related})
	if err != nil {
		t.Fatal(err)
	}
	if again.Total == 0 {
		t.Error("related query returned no matches")
	}
}

func TestRelatedEmptyMatchSet(t *testing.T) {
	sr := testSearcher(t)

	q, err := sr.Related(nil)
	if err != nil {
		t.Fatal(err)
	}
	if q != "" {
		t.Errorf("related of empty set = %q, want empty", q)
	}
}

func TestClampExpansion(t *testing.T) {
	tests := []struct {
		matches int
		want    int
	}{
		{0, 10},
		{1, 10},
		{10, 10},
		{25, 25},
		{40, 40},
		{1000, 40},
	}
	for _, tt := range tests {
		if got := ClampExpansion(tt.matches); got != tt.want {
			t.Errorf("ClampExpansion(%d) = %d, want %d", tt.matches, got, tt.want)
		}
	}
}

func TestSuggestCorrectsMisspelledQuery(t *testing.T) {
	sr := testSearcher(t)

	res, err := sr.Search(Query{Text: "solr"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 0 {
		t.Fatalf("Total = %d, want 0 for misspelled query", res.Total)
	}

	corrected, ok := sr.Suggest("solr")
	if !ok {
		t.Fatal("expected a suggestion for solr")
	}
	if corrected != "solar" {
		t.Errorf("Suggest(solr) = %q, want solar", corrected)
	}

	again, err := sr.Search(Query{Text: corrected})
	if err != nil {
		t.Fatal(err)
	}
	if again.Total == 0 {
		t.Error("corrected query returned no matches")
	}
}

func TestSuggestLeavesKnownTermsAlone(t *testing.T) {
	sr := testSearcher(t)

	if corrected, ok := sr.Suggest("solar power"); ok {
		t.Errorf("unexpected suggestion %q for a well-spelled query", corrected)
	}
}

func TestSearchPhraseMatchesStemmedIndex(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewSQLiteStore(filepath.Join(dir, "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	s := entrySchema(t)
	index, err := indexer.OpenIndex(filepath.Join(dir, "idx"), s)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = index.Close() })

	ctx := context.Background()
	attrs := map[string]interface{}{
		"title":       "Morning run",
		"text":        "running fast through the morning",
		"asset_count": 1,
		"is_active":   true,
		"author":      map[string]interface{}{"id": 1, "name": "alice"},
	}
	if err := store.UpsertRecord(ctx, "entry", "1", attrs); err != nil {
		t.Fatal(err)
	}
	ix := indexer.New(s, index, store, indexer.WithStemLang("en"))
	if _, err := ix.Update(ctx, nil, indexer.UpdateOptions{}); err != nil {
		t.Fatal(err)
	}
	sr := NewSearcher(s, index, WithDefaultLang("en"))

	for _, text := range []string{"running", `"running fast"`, `title:"morning run"`} {
		res, err := sr.Search(Query{Text: text})
		if err != nil {
			t.Fatal(err)
		}
		if res.Total != 1 {
			t.Errorf("Search(%q) Total = %d, want 1", text, res.Total)
		}
	}
}
