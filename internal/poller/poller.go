// Package poller drains the record change log into the indexers, either as a
// background loop woken by database writes or on demand.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/sakuin/internal/indexer"
	"github.com/hyperjump/sakuin/internal/models"
	"github.com/hyperjump/sakuin/internal/schema"
	"github.com/hyperjump/sakuin/internal/storage"
)

const (
	// DefaultInterval is the fallback drain cadence when no database write
	// wakes the loop first.
	DefaultInterval = 10 * time.Second
	// DefaultBatchSize is how many change entries are pulled per drain pass.
	DefaultBatchSize = 100

	// wakeDebounce coalesces bursts of database write notifications into
	// one drain pass.
	wakeDebounce = 400 * time.Millisecond
)

// Poller dispatches pending change entries to the indexer owning each record
// type. Entries are processed oldest first and removed once handled; entries
// whose handling fails stay queued for the next pass.
type Poller struct {
	store    storage.Store
	indexers map[string]*indexer.Indexer
	interval time.Duration
	batch    int
	watch    string // database file to watch for early wake-up; empty disables
	logger   *zap.Logger

	mu       sync.Mutex
	started  bool
	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Poller.
type Option func(*Poller)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithInterval sets the fallback drain cadence.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithBatchSize sets how many entries one drain pass pulls at a time.
func WithBatchSize(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.batch = n
		}
	}
}

// WithWatchPath watches the given file (the record database) so writes wake
// the loop before the next tick.
func WithWatchPath(path string) Option {
	return func(p *Poller) { p.watch = path }
}

// New creates a poller draining store into the given indexers. Each indexer
// handles the record type its schema declares; entries for unregistered
// types are dropped with a warning.
func New(store storage.Store, indexers []*indexer.Indexer, opts ...Option) *Poller {
	p := &Poller{
		store:    store,
		indexers: make(map[string]*indexer.Indexer, len(indexers)),
		interval: DefaultInterval,
		batch:    DefaultBatchSize,
		logger:   zap.NewNop(),
		done:     make(chan struct{}),
	}
	for _, ix := range indexers {
		p.indexers[ix.Schema().TypeName()] = ix
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run drains the change log until ctx is cancelled or Stop is called. It
// performs one pass immediately, then waits for the next tick or a database
// write notification.
func (p *Poller) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = true
	p.mu.Unlock()

	var wake <-chan fsnotify.Event
	if p.watch != "" {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer w.Close()
		// In WAL mode SQLite appends to the -wal sibling and rarely
		// touches the main file, so watch both.
		watched := 0
		for _, path := range []string{p.watch, p.watch + "-wal"} {
			if err := w.Add(path); err != nil {
				p.logger.Debug("cannot watch database file",
					zap.String("path", path), zap.Error(err))
				continue
			}
			watched++
		}
		if watched == 0 {
			p.logger.Warn("cannot watch database files, falling back to ticker only",
				zap.String("path", p.watch))
		} else {
			wake = w.Events
		}
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var debounce *time.Timer
	var fire <-chan time.Time
	for {
		if _, err := p.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			p.logger.Error("change log drain failed", zap.Error(err))
		}
	wait:
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-p.done:
				return nil
			case <-ticker.C:
				break wait
			case <-wake:
				// Writes arrive in bursts; drain once they settle.
				if debounce == nil {
					debounce = time.NewTimer(wakeDebounce)
					fire = debounce.C
				} else {
					debounce.Reset(wakeDebounce)
				}
			case <-fire:
				debounce = nil
				fire = nil
				break wait
			}
		}
	}
}

// Stop ends a running Run loop.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
}

// RunOnce drains all pending change entries and returns how many were
// processed. Entries that fail stay in the log.
func (p *Poller) RunOnce(ctx context.Context) (int, error) {
	processed := 0
	for {
		entries, err := p.store.ListChanges(ctx, p.batch)
		if err != nil {
			return processed, err
		}
		if len(entries) == 0 {
			return processed, nil
		}
		progress := false
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return processed, err
			}
			if err := p.apply(ctx, entry); err != nil {
				p.logger.Warn("change entry failed, will retry",
					zap.String("id", entry.ID),
					zap.String("type", entry.RecordType),
					zap.String("pk", entry.RecordPK),
					zap.Error(err))
				continue
			}
			if err := p.store.RemoveChange(ctx, entry.ID); err != nil {
				return processed, err
			}
			processed++
			progress = true
		}
		// Every remaining entry failed; give up until the next pass
		// instead of spinning on them.
		if !progress {
			return processed, nil
		}
	}
}

// apply routes one change entry to its indexer. An upsert whose record has
// meanwhile disappeared is handled as a delete.
func (p *Poller) apply(ctx context.Context, entry *models.ChangeEntry) error {
	ix, ok := p.indexers[entry.RecordType]
	if !ok {
		p.logger.Warn("dropping change for unregistered record type",
			zap.String("type", entry.RecordType), zap.String("pk", entry.RecordPK))
		return nil
	}
	if entry.Action == models.ActionDelete {
		return ix.Delete(ctx, entry.RecordPK)
	}
	rec, err := p.store.GetRecord(ctx, entry.RecordType, entry.RecordPK)
	if errors.Is(err, storage.ErrNotFound) {
		return ix.Delete(ctx, entry.RecordPK)
	}
	if err != nil {
		return err
	}
	_, err = ix.Update(ctx, []schema.Record{rec}, indexer.UpdateOptions{})
	return err
}
