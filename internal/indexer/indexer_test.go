package indexer

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

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

func testIndexer(t *testing.T) (*Indexer, *storage.SQLiteStore) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStore(filepath.Join(dir, "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	s := entrySchema(t)
	index, err := OpenIndex(filepath.Join(dir, "idx"), s)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = index.Close() })
	return New(s, index, store), store
}

func entryAttrs(title, text string, count int, active bool) map[string]interface{} {
	return map[string]interface{}{
		"title":       title,
		"text":        text,
		"asset_count": count,
		"is_active":   active,
		"author":      map[string]interface{}{"id": 1, "name": "Alex"},
	}
}

func seedEntries(t *testing.T, store *storage.SQLiteStore) {
	t.Helper()
	ctx := context.Background()
	seeds := []struct {
		pk    string
		attrs map[string]interface{}
	}{
		{"1", entryAttrs("Test entry", "not large text which helps us test", 0, true)},
		{"2", entryAttrs("Another test entry", "another not useful text message", 5, true)},
		{"3", entryAttrs("Third entry", "third message text", 7, true)},
		{"4", entryAttrs("Inactive entry", "text which will not be indexed", 9, false)},
	}
	for _, s := range seeds {
		if err := store.UpsertRecord(ctx, "entry", s.pk, s.attrs); err != nil {
			t.Fatal(err)
		}
	}
}

func TestUpdateIndexesActiveRecordsOnly(t *testing.T) {
	ix, store := testIndexer(t)
	seedEntries(t, store)

	stats, err := ix.Update(context.Background(), nil, UpdateOptions{Transaction: true})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Indexed != 3 {
		t.Errorf("Indexed = %d, want 3", stats.Indexed)
	}
	if stats.Removed != 1 {
		t.Errorf("Removed = %d, want 1 (inactive trigger)", stats.Removed)
	}
	n, err := ix.DocumentCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("DocumentCount = %d, want 3", n)
	}
}

func TestUpdateIsIdempotent(t *testing.T) {
	ix, store := testIndexer(t)
	seedEntries(t, store)
	ctx := context.Background()

	if _, err := ix.Update(ctx, nil, UpdateOptions{}); err != nil {
		t.Fatal(err)
	}
	before, err := ix.DocumentCount()
	if err != nil {
		t.Fatal(err)
	}
	slotsBefore := storedSlots(t, ix, "1")

	if _, err := ix.Update(ctx, nil, UpdateOptions{}); err != nil {
		t.Fatal(err)
	}
	after, err := ix.DocumentCount()
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Errorf("DocumentCount changed across idempotent update: %d -> %d", before, after)
	}
	slotsAfter := storedSlots(t, ix, "1")
	for slot, v := range slotsBefore {
		if slotsAfter[slot] != v {
			t.Errorf("slot %s changed: %q -> %q", slot, v, slotsAfter[slot])
		}
	}
}

func storedSlots(t *testing.T, ix *Indexer, pk string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	found, err := ix.Index().VisitStoredFields(ix.UID(pk), func(field, value string) {
		if strings.HasPrefix(field, "value_") {
			out[field] = value
		}
	})
	if err != nil || !found {
		t.Fatalf("document for pk %s: found=%v err=%v", pk, found, err)
	}
	return out
}

func TestTriggerToggleUnpublishes(t *testing.T) {
	ix, store := testIndexer(t)
	seedEntries(t, store)
	ctx := context.Background()

	if _, err := ix.Update(ctx, nil, UpdateOptions{}); err != nil {
		t.Fatal(err)
	}
	before, _ := ix.DocumentCount()

	// Deactivate record 2 and re-run the update: its document must go.
	if err := store.UpsertRecord(ctx, "entry", "2",
		entryAttrs("Another test entry", "another not useful text message", 5, false)); err != nil {
		t.Fatal(err)
	}
	if _, err := ix.Update(ctx, nil, UpdateOptions{}); err != nil {
		t.Fatal(err)
	}
	after, _ := ix.DocumentCount()
	if after != before-1 {
		t.Errorf("DocumentCount = %d, want %d", after, before-1)
	}
}

func TestDeleteNeverIndexedIsNoOp(t *testing.T) {
	ix, _ := testIndexer(t)
	if err := ix.Delete(context.Background(), "no-such-pk"); err != nil {
		t.Errorf("delete of never-indexed record: %v", err)
	}
}

func TestOversizedTermFailsOnlyItsRecord(t *testing.T) {
	ix, store := testIndexer(t)
	ctx := context.Background()

	if err := store.UpsertRecord(ctx, "entry", "ok",
		entryAttrs("Fine", "ordinary words", 1, true)); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertRecord(ctx, "entry", "bad",
		entryAttrs("Broken", strings.Repeat("x", 4096), 2, true)); err != nil {
		t.Fatal(err)
	}

	stats, err := ix.Update(ctx, nil, UpdateOptions{Transaction: true})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1", stats.Failed)
	}
	if stats.Indexed != 1 {
		t.Errorf("Indexed = %d, want 1 (batch must continue past the bad record)", stats.Indexed)
	}
}

func TestUpdateOnEachCallback(t *testing.T) {
	ix, store := testIndexer(t)
	seedEntries(t, store)

	var seen []string
	_, err := ix.Update(context.Background(), nil, UpdateOptions{
		OnEach: func(rec schema.Record) { seen = append(seen, rec.PrimaryKey()) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 3 {
		t.Errorf("OnEach called %d times, want 3 (not for the unpublished record)", len(seen))
	}
}

func TestUpdateExplicitSubset(t *testing.T) {
	ix, store := testIndexer(t)
	seedEntries(t, store)
	ctx := context.Background()

	rec, err := store.GetRecord(ctx, "entry", "1")
	if err != nil {
		t.Fatal(err)
	}
	stats, err := ix.Update(ctx, []schema.Record{rec}, UpdateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Indexed != 1 {
		t.Errorf("Indexed = %d, want 1", stats.Indexed)
	}
	n, _ := ix.DocumentCount()
	if n != 1 {
		t.Errorf("DocumentCount = %d, want 1", n)
	}
}

func TestBuildDocumentSlots(t *testing.T) {
	ix, store := testIndexer(t)
	ctx := context.Background()
	if err := store.UpsertRecord(ctx, "entry", "9", entryAttrs("Hello", "body", 42, true)); err != nil {
		t.Fatal(err)
	}
	rec, err := store.GetRecord(ctx, "entry", "9")
	if err != nil {
		t.Fatal(err)
	}
	doc, err := ix.BuildDocument(rec)
	if err != nil {
		t.Fatal(err)
	}
	if doc.UID() != "UID-9-entry-blog.entry" {
		t.Errorf("UID = %q", doc.UID())
	}
	if v, _ := doc.Value(schema.SlotPrimaryKey); v != "9" {
		t.Errorf("slot 1 = %q, want 9", v)
	}
	if v, _ := doc.Value(schema.SlotTypeName); v != "entry" {
		t.Errorf("slot 2 = %q, want entry", v)
	}
	countSlot, _ := ix.Schema().TagSlot("count")
	if v, _ := doc.Value(countSlot); v != "000000000042" {
		t.Errorf("count slot = %q, want 000000000042", v)
	}
}

func TestStemLangMulti(t *testing.T) {
	s, err := schema.New("entry", "blog.entry",
		[]schema.FieldDef{{Accessor: schema.Field("text"), Kind: schema.KindText}},
		nil,
		schema.WithStemAccessor(schema.Field("lang")),
	)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	index, err := OpenIndex(filepath.Join(dir, "idx"), s)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = index.Close() })
	ix := New(s, index, nil, WithStemLang(schema.StemMulti))

	withLang := storage.NewStoredRecord("entry", "1", map[string]interface{}{"lang": "de"})
	if got := ix.StemLangFor(withLang); got != "de" {
		t.Errorf("StemLangFor = %q, want de", got)
	}
	without := storage.NewStoredRecord("entry", "2", map[string]interface{}{})
	if got := ix.StemLangFor(without); got != schema.StemNone {
		t.Errorf("StemLangFor = %q, want none", got)
	}
}
