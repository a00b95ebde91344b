// Package engine wraps the Bleve full-text engine with the slot/term document
// model the indexing pipeline drives: identity-keyed replace, value slots for
// sorting and filtering, single-writer sessions, and relevance-set term
// expansion.
package engine

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	index "github.com/blevesearch/bleve_index_api"
	"go.uber.org/zap"
)

// Reserved document field names. Tag prefixes become additional text fields,
// so they must not collide with these.
const (
	// FieldText is the catch-all field holding every field's unprefixed terms.
	FieldText = "text"
	// valueFieldPrefix prefixes the per-slot keyword fields.
	valueFieldPrefix = "value_"
)

// ErrWriterOpen is returned when a second write session is opened against an
// index that already has one.
var ErrWriterOpen = errors.New("engine: a write session is already open")

// Index is a Bleve index holding the documents of one indexer. Concurrent
// readers are always allowed; writes go through a single Writer session.
type Index struct {
	idx    bleve.Index
	path   string
	logger *zap.Logger

	mu     sync.Mutex
	writer bool
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets a logger for debug events.
func WithLogger(l *zap.Logger) Option {
	return func(ix *Index) { ix.logger = l }
}

// Open creates or opens an index at path. textFields lists the searchable
// text fields beyond the catch-all (one per tag prefix); slots lists the
// value slot numbers the documents will carry. Both feed the field mappings,
// so changing a schema's tags requires removing the index directory and
// reindexing.
func Open(path string, textFields []string, slots []int, opts ...Option) (*Index, error) {
	for _, f := range textFields {
		if reservedField(f) {
			return nil, fmt.Errorf("tag prefix %q collides with a reserved index field", f)
		}
	}
	ix := &Index{path: path}
	for _, opt := range opts {
		opt(ix)
	}

	if _, err := os.Stat(path); err == nil {
		idx, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open index: %w", openErr)
		}
		ix.idx = idx
		return ix, nil
	}

	idx, err := bleve.New(path, buildMapping(textFields, slots))
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	ix.idx = idx
	return ix, nil
}

// buildMapping maps the catch-all and tag text fields with the standard
// analyzer (lowercase, no stemming; stemming is applied upstream so the
// per-record language survives) and every value slot as a stored keyword.
func buildMapping(textFields []string, slots []int) *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	text.Store = true
	doc.AddFieldMappingsAt(FieldText, text)
	for _, f := range textFields {
		tagText := bleve.NewTextFieldMapping()
		tagText.Analyzer = standard.Name
		tagText.Store = true
		doc.AddFieldMappingsAt(f, tagText)
	}
	for _, slot := range slots {
		kw := bleve.NewKeywordFieldMapping()
		kw.Store = true
		kw.IncludeInAll = false
		doc.AddFieldMappingsAt(ValueField(slot), kw)
	}

	im.DefaultMapping = doc
	return im
}

func reservedField(name string) bool {
	return name == FieldText || strings.HasPrefix(name, valueFieldPrefix)
}

// ValueField returns the document field name for a value slot.
func ValueField(slot int) string {
	return valueFieldPrefix + strconv.Itoa(slot)
}

// valueSlot parses a value field name back to its slot number.
func valueSlot(field string) (int, bool) {
	if !strings.HasPrefix(field, valueFieldPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(field, valueFieldPrefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

// DocCount returns the number of documents in the index.
func (ix *Index) DocCount() (uint64, error) {
	return ix.idx.DocCount()
}

// Delete removes the document with the given UID. Deleting an absent
// document is a no-op.
func (ix *Index) Delete(uid string) error {
	return ix.idx.Delete(uid)
}

// Clear removes every document. The index directory and mapping stay in
// place, so no reindex of the mapping is needed afterwards.
func (ix *Index) Clear() error {
	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = clearPageSize
	for {
		res, err := ix.idx.Search(req)
		if err != nil {
			return fmt.Errorf("failed to enumerate documents: %w", err)
		}
		if len(res.Hits) == 0 {
			return nil
		}
		batch := ix.idx.NewBatch()
		for _, hit := range res.Hits {
			batch.Delete(hit.ID)
		}
		if err := ix.idx.Batch(batch); err != nil {
			return fmt.Errorf("failed to delete documents: %w", err)
		}
	}
}

const clearPageSize = 1000

// DictEntry is one term of a field's dictionary with its document frequency.
type DictEntry struct {
	Term  string
	Count uint64
}

// FieldTerms enumerates a field's term dictionary in term order.
func (ix *Index) FieldTerms(field string) ([]DictEntry, error) {
	dict, err := ix.idx.FieldDict(field)
	if err != nil {
		return nil, fmt.Errorf("failed to open field dictionary: %w", err)
	}
	defer dict.Close()

	var entries []DictEntry
	for {
		e, err := dict.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to read field dictionary: %w", err)
		}
		if e == nil {
			return entries, nil
		}
		entries = append(entries, DictEntry{Term: e.Term, Count: e.Count})
	}
}

// VisitStoredFields calls visit for each stored field of the document with
// the given UID. Returns false without error when the document is absent.
func (ix *Index) VisitStoredFields(uid string, visit func(field, value string)) (bool, error) {
	doc, err := ix.idx.Document(uid)
	if err != nil {
		return false, err
	}
	if doc == nil {
		return false, nil
	}
	doc.VisitFields(func(f index.Field) {
		visit(f.Name(), string(f.Value()))
	})
	return true, nil
}

// Close closes the underlying index.
func (ix *Index) Close() error {
	return ix.idx.Close()
}
