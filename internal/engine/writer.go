package engine

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// DefaultFlushEvery is the periodic flush interval, in committed documents.
const DefaultFlushEvery = 1000

// WriterOptions configure a write session's flush policy.
type WriterOptions struct {
	// FlushEach executes the batch after every committed document.
	FlushEach bool
	// FlushEvery overrides the periodic flush counter; 0 means
	// DefaultFlushEvery. Ignored when FlushEach is set.
	FlushEvery int
}

// Writer is a single write session against an Index. Each document's
// mutations are staged between Begin and Commit; Cancel rolls back only the
// staged mutations. Committed mutations accumulate in a batch that is
// executed by Flush, periodically per the flush policy, and finally on
// Close. Only one Writer may exist per index across the whole system; the
// index directory carries a file lock enforcing that.
type Writer struct {
	ix      *Index
	batch   *bleve.Batch
	staged  []stagedOp
	lock    *flock.Flock
	count   int
	every   int
	each    bool
	pending int
}

type stagedOp struct {
	uid string
	doc *Document // nil means delete
}

// OpenWriter starts a write session. It fails with ErrWriterOpen when
// another session is active in this process or, via the lock file, anywhere
// else on the host.
func (ix *Index) OpenWriter(opts WriterOptions) (*Writer, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.writer {
		return nil, ErrWriterOpen
	}

	lock := flock.New(ix.path + ".writer.lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire writer lock: %w", err)
	}
	if !ok {
		return nil, ErrWriterOpen
	}

	every := opts.FlushEvery
	if every <= 0 {
		every = DefaultFlushEvery
	}
	ix.writer = true
	if ix.logger != nil {
		ix.logger.Debug("write session opened", zap.String("path", ix.path))
	}
	return &Writer{
		ix:    ix,
		batch: ix.idx.NewBatch(),
		lock:  lock,
		every: every,
		each:  opts.FlushEach,
	}, nil
}

// Index stages a replace-by-identity of the document under its UID.
func (w *Writer) Index(doc *Document) {
	w.staged = append(w.staged, stagedOp{uid: doc.UID(), doc: doc})
}

// Delete stages removal of the document with the given UID.
func (w *Writer) Delete(uid string) {
	w.staged = append(w.staged, stagedOp{uid: uid})
}

// Commit moves the staged mutations into the session batch and applies the
// flush policy. One Commit corresponds to one record's transaction.
func (w *Writer) Commit() error {
	for _, op := range w.staged {
		if op.doc == nil {
			w.batch.Delete(op.uid)
			continue
		}
		if err := w.batch.Index(op.uid, op.doc.fields()); err != nil {
			w.Cancel()
			return fmt.Errorf("failed to stage document %q: %w", op.uid, err)
		}
	}
	w.staged = w.staged[:0]
	w.count++
	w.pending++
	if w.each || w.count%w.every == 0 {
		return w.Flush()
	}
	return nil
}

// Cancel discards the staged mutations. Mutations already committed in this
// session are unaffected.
func (w *Writer) Cancel() {
	w.staged = w.staged[:0]
}

// Flush executes the accumulated batch. A flush with nothing pending is a
// no-op.
func (w *Writer) Flush() error {
	if w.pending == 0 && w.batch.Size() == 0 {
		return nil
	}
	if err := w.ix.idx.Batch(w.batch); err != nil {
		return fmt.Errorf("failed to flush batch: %w", err)
	}
	if w.ix.logger != nil {
		w.ix.logger.Debug("batch flushed", zap.Int("documents", w.pending))
	}
	w.batch = w.ix.idx.NewBatch()
	w.pending = 0
	return nil
}

// Close flushes any remaining mutations and releases the session. The
// Writer must not be used afterwards.
func (w *Writer) Close() error {
	flushErr := w.Flush()
	_ = w.lock.Unlock()
	w.ix.mu.Lock()
	w.ix.writer = false
	w.ix.mu.Unlock()
	return flushErr
}
