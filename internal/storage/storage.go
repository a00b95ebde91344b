// Package storage persists application records and the change log that
// drives incremental reindexing.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/sakuin/internal/models"
	"github.com/hyperjump/sakuin/internal/schema"
)

// ErrNotFound is returned when a record or change entry does not exist.
var ErrNotFound = errors.New("storage: not found")

// RecordSource is the read side the indexer paginates over.
type RecordSource interface {
	// ListRecords returns records of typeName ordered by primary key,
	// paginated with offset/limit.
	ListRecords(ctx context.Context, typeName string, offset, limit int) ([]schema.Record, error)
	// GetRecord returns one record by primary key, or ErrNotFound.
	GetRecord(ctx context.Context, typeName, pk string) (schema.Record, error)
	// CountRecords returns how many records of typeName exist.
	CountRecords(ctx context.Context, typeName string) (int64, error)
}

// ChangeLog is the ordered stream of record changes consumed by the poller.
type ChangeLog interface {
	// AppendChange enqueues a change entry. The entry's ID and CreatedAt
	// are assigned by the implementation.
	AppendChange(ctx context.Context, typeName, pk string, action models.ChangeAction) error
	// ListChanges returns pending entries oldest first.
	ListChanges(ctx context.Context, limit int) ([]*models.ChangeEntry, error)
	// RemoveChange deletes a processed entry.
	RemoveChange(ctx context.Context, id string) error
	// CountChanges returns how many entries are pending.
	CountChanges(ctx context.Context) (int64, error)
}

// Store is the full persistence surface: record CRUD (writes feed the change
// log), the record source, and the change log itself.
type Store interface {
	RecordSource
	ChangeLog

	// UpsertRecord writes a record's attributes and enqueues an upsert
	// change entry.
	UpsertRecord(ctx context.Context, typeName, pk string, attrs map[string]interface{}) error
	// DeleteRecord removes a record and enqueues a delete change entry.
	// Deleting an absent record is a no-op.
	DeleteRecord(ctx context.Context, typeName, pk string) error

	Close() error
}
