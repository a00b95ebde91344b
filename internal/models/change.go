// Package models defines the shared data structures crossing package
// boundaries: change-log entries, search requests, and search responses.
package models

import "time"

// ChangeAction says what happened to a record.
type ChangeAction string

const (
	// ActionUpsert marks a created or updated record needing reindexing.
	ActionUpsert ChangeAction = "upsert"
	// ActionDelete marks a removed record whose document must go.
	ActionDelete ChangeAction = "delete"
)

// ChangeEntry is one row of the change log: which record changed, how, and
// when. Entries are drained in creation order and removed once processed.
type ChangeEntry struct {
	ID         string       `json:"id"`
	RecordType string       `json:"record_type"`
	RecordPK   string       `json:"record_pk"`
	Action     ChangeAction `json:"action"`
	CreatedAt  time.Time    `json:"created_at"`
}
