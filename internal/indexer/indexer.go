// Package indexer maps application records into engine documents: the write
// path of the index. One Indexer owns one record type's schema and index.
package indexer

import (
	"context"
	"fmt"

	"github.com/hyperjump/sakuin/internal/docid"
	"github.com/hyperjump/sakuin/internal/engine"
	"github.com/hyperjump/sakuin/internal/schema"
	"github.com/hyperjump/sakuin/internal/storage"
	"go.uber.org/zap"
)

// DefaultPageSize bounds memory while paginating the record source.
const DefaultPageSize = 1000

// Indexer indexes records of one type into one engine index.
type Indexer struct {
	schema     *schema.Schema
	index      *engine.Index
	source     storage.RecordSource
	pageSize   int
	stemLang   string
	flushEvery int
	logger     *zap.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets a logger for per-record debug and warn events.
func WithLogger(l *zap.Logger) Option {
	return func(ix *Indexer) { ix.logger = l }
}

// WithPageSize overrides the record source page size.
func WithPageSize(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.pageSize = n
		}
	}
}

// WithStemLang sets the global stemming language default ("none" disables,
// "multi" resolves per record through the schema's stem accessor).
func WithStemLang(lang string) Option {
	return func(ix *Indexer) { ix.stemLang = lang }
}

// WithFlushEvery overrides the periodic flush counter for update sessions.
func WithFlushEvery(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.flushEvery = n
		}
	}
}

// New creates an indexer over the given schema, engine index, and record
// source.
func New(s *schema.Schema, index *engine.Index, source storage.RecordSource, opts ...Option) *Indexer {
	ix := &Indexer{
		schema:   s,
		index:    index,
		source:   source,
		pageSize: DefaultPageSize,
		stemLang: schema.StemNone,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// OpenIndex opens (or creates) the engine index for a schema at dir: one
// text field per tag prefix plus the metadata and tag value slots.
func OpenIndex(dir string, s *schema.Schema, opts ...engine.Option) (*engine.Index, error) {
	tags := s.Tags()
	fields := make([]string, 0, len(tags))
	slots := []int{schema.SlotPrimaryKey, schema.SlotTypeName, schema.SlotDescriptor}
	for _, t := range tags {
		fields = append(fields, t.Prefix)
		slots = append(slots, t.Slot)
	}
	return engine.Open(dir, fields, slots, opts...)
}

// Schema returns the indexer's schema.
func (ix *Indexer) Schema() *schema.Schema { return ix.schema }

// Index returns the underlying engine index (the read path shares it).
func (ix *Indexer) Index() *engine.Index { return ix.index }

// UID returns the document identity for a primary key under this indexer.
func (ix *Indexer) UID(pk string) string {
	return docid.UID(pk, ix.schema.TypeName(), ix.schema.Descriptor())
}

// UpdateOptions configure one update run.
type UpdateOptions struct {
	// OnEach is invoked after each successfully indexed record.
	OnEach func(schema.Record)
	// Transaction is accepted for API compatibility and has no effect:
	// updates are always per-record transactional (commit on success,
	// cancel on failure), whether or not it is set.
	Transaction bool
	// FlushEach flushes after every document instead of periodically.
	FlushEach bool
}

// UpdateStats accounts per-record outcomes of one update run.
type UpdateStats struct {
	Indexed int
	Removed int
	Failed  int
}

// Update indexes the given records, or every record of the owned type when
// records is nil (paginated to bound memory). A record whose trigger
// predicate is false has its document deleted instead. Failures are isolated
// per record: the record's staged mutations are rolled back and the run
// continues. The session always ends with a final flush.
func (ix *Indexer) Update(ctx context.Context, records []schema.Record, opts UpdateOptions) (stats UpdateStats, err error) {
	w, err := ix.index.OpenWriter(engine.WriterOptions{
		FlushEach:  opts.FlushEach,
		FlushEvery: ix.flushEvery,
	})
	if err != nil {
		return stats, err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if records != nil {
		for _, rec := range records {
			ix.updateOne(w, rec, opts, &stats)
		}
		return stats, err
	}

	for offset := 0; ; offset += ix.pageSize {
		page, listErr := ix.source.ListRecords(ctx, ix.schema.TypeName(), offset, ix.pageSize)
		if listErr != nil {
			err = fmt.Errorf("failed to list records: %w", listErr)
			return stats, err
		}
		for _, rec := range page {
			ix.updateOne(w, rec, opts, &stats)
		}
		if len(page) < ix.pageSize {
			return stats, err
		}
	}
}

// updateOne processes a single record inside an update session. Each record
// is its own transaction: commit on success, cancel on failure.
func (ix *Indexer) updateOne(w *engine.Writer, rec schema.Record, opts UpdateOptions, stats *UpdateStats) {
	uid := ix.UID(rec.PrimaryKey())

	if !ix.schema.Trigger(rec) {
		// Unpublish on demand: a false trigger removes any existing document.
		w.Delete(uid)
		if err := w.Commit(); err != nil {
			ix.warn("failed to remove unpublished record", rec, err)
			stats.Failed++
			return
		}
		stats.Removed++
		return
	}

	doc, err := ix.BuildDocument(rec)
	if err != nil {
		ix.warn("failed to build document", rec, err)
		stats.Failed++
		return
	}
	w.Index(doc)
	if err := w.Commit(); err != nil {
		w.Cancel()
		ix.warn("failed to commit document", rec, err)
		stats.Failed++
		return
	}
	stats.Indexed++
	if opts.OnEach != nil {
		opts.OnEach(rec)
	}
}

// BuildDocument turns one record into an engine document: the identity UID,
// metadata value slots 1-3, free-text fields, then tag fields. Tag values
// are additionally slot-encoded for sorting and filtering, and every field
// is indexed both under its prefix and unprefixed. Fields that fail to
// resolve are skipped silently.
func (ix *Indexer) BuildDocument(rec schema.Record) (*engine.Document, error) {
	doc := engine.NewDocument(ix.UID(rec.PrimaryKey()))
	doc.SetValue(schema.SlotPrimaryKey, rec.PrimaryKey())
	doc.SetValue(schema.SlotTypeName, ix.schema.TypeName())
	doc.SetValue(schema.SlotDescriptor, ix.schema.Descriptor())

	stem := schema.NewStemmer(ix.StemLangFor(rec))

	for _, f := range ix.schema.Fields() {
		v, ok := f.Resolve(rec)
		if !ok {
			continue
		}
		if err := doc.AddText(engine.FieldText, stem.Text(v.SearchText()), f.Weight); err != nil {
			return nil, err
		}
	}
	for _, f := range ix.schema.Tags() {
		v, ok := f.Resolve(rec)
		if !ok {
			continue
		}
		doc.SetValue(f.Slot, schema.SortKey(v, f.Kind))
		text := stem.Text(v.SearchText())
		if err := doc.AddText(f.Prefix, text, f.Weight); err != nil {
			return nil, err
		}
		if err := doc.AddText(engine.FieldText, text, f.Weight); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// StemLangFor resolves the stemming language for one record: the global
// default, or in multi mode the record's own language via the schema's stem
// accessor ("none" when it does not resolve).
func (ix *Indexer) StemLangFor(rec schema.Record) string {
	if ix.stemLang != schema.StemMulti {
		return ix.stemLang
	}
	if sf := ix.schema.StemField(); sf != nil && rec != nil {
		if v, ok := sf.Resolve(rec); ok {
			return v.Text
		}
	}
	return schema.StemNone
}

// Delete removes the document for the given primary key. Deleting a record
// that was never indexed is a no-op; engine-level trouble during delete is
// treated as already-absent.
func (ix *Indexer) Delete(ctx context.Context, pk string) error {
	if err := ix.index.Delete(ix.UID(pk)); err != nil {
		if ix.logger != nil {
			ix.logger.Warn("delete treated as already absent",
				zap.String("type", ix.schema.TypeName()),
				zap.String("pk", pk),
				zap.Error(err))
		}
	}
	return nil
}

// DeleteRecord removes the document for the given record.
func (ix *Indexer) DeleteRecord(ctx context.Context, rec schema.Record) error {
	return ix.Delete(ctx, rec.PrimaryKey())
}

// DocumentCount returns the number of documents in the index.
func (ix *Indexer) DocumentCount() (uint64, error) {
	return ix.index.DocCount()
}

// Clear removes every document from the index.
func (ix *Indexer) Clear() error {
	return ix.index.Clear()
}

func (ix *Indexer) warn(msg string, rec schema.Record, err error) {
	if ix.logger == nil {
		return
	}
	ix.logger.Warn(msg,
		zap.String("type", ix.schema.TypeName()),
		zap.String("pk", rec.PrimaryKey()),
		zap.Error(err))
}
