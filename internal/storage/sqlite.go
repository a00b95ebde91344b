package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/sakuin/internal/models"
	"github.com/hyperjump/sakuin/internal/schema"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not
// exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS records (
		record_type TEXT NOT NULL,
		pk TEXT NOT NULL,
		attrs TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (record_type, pk)
	);

	CREATE TABLE IF NOT EXISTS changes (
		id TEXT PRIMARY KEY,
		record_type TEXT NOT NULL,
		record_pk TEXT NOT NULL,
		action TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_changes_created_at ON changes(created_at);
	`
	_, err := db.Exec(ddl)
	return err
}

// Path returns the database file path (the poller watches it for changes).
func (s *SQLiteStore) Path() string { return s.path }

// UpsertRecord writes a record's attributes and enqueues an upsert change.
func (s *SQLiteStore) UpsertRecord(ctx context.Context, typeName, pk string, attrs map[string]interface{}) error {
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (record_type, pk, attrs, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(record_type, pk) DO UPDATE SET attrs = excluded.attrs, updated_at = excluded.updated_at`,
		typeName, pk, string(attrsJSON), time.Now(),
	)
	if err != nil {
		return err
	}
	return s.AppendChange(ctx, typeName, pk, models.ActionUpsert)
}

// DeleteRecord removes a record and enqueues a delete change. Absent
// records still enqueue the change so a stale document gets cleaned up.
func (s *SQLiteStore) DeleteRecord(ctx context.Context, typeName, pk string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE record_type = ? AND pk = ?`, typeName, pk,
	); err != nil {
		return err
	}
	return s.AppendChange(ctx, typeName, pk, models.ActionDelete)
}

// GetRecord returns one record by primary key.
func (s *SQLiteStore) GetRecord(ctx context.Context, typeName, pk string) (schema.Record, error) {
	var attrsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT attrs FROM records WHERE record_type = ? AND pk = ?`, typeName, pk,
	).Scan(&attrsJSON)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(typeName, pk, attrsJSON)
}

// ListRecords returns records of typeName ordered by primary key.
func (s *SQLiteStore) ListRecords(ctx context.Context, typeName string, offset, limit int) ([]schema.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pk, attrs FROM records WHERE record_type = ? ORDER BY pk LIMIT ? OFFSET ?`,
		typeName, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schema.Record
	for rows.Next() {
		var pk, attrsJSON string
		if err := rows.Scan(&pk, &attrsJSON); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(typeName, pk, attrsJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountRecords returns how many records of typeName exist.
func (s *SQLiteStore) CountRecords(ctx context.Context, typeName string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE record_type = ?`, typeName,
	).Scan(&n)
	return n, err
}

func decodeRecord(typeName, pk, attrsJSON string) (schema.Record, error) {
	var attrs map[string]interface{}
	if err := json.Unmarshal([]byte(attrsJSON), &attrs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attributes for %s/%s: %w", typeName, pk, err)
	}
	return NewStoredRecord(typeName, pk, attrs), nil
}

// AppendChange enqueues a change entry.
func (s *SQLiteStore) AppendChange(ctx context.Context, typeName, pk string, action models.ChangeAction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO changes (id, record_type, record_pk, action, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), typeName, pk, string(action), time.Now(),
	)
	return err
}

// ListChanges returns pending change entries oldest first.
func (s *SQLiteStore) ListChanges(ctx context.Context, limit int) ([]*models.ChangeEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, record_type, record_pk, action, created_at FROM changes
		 ORDER BY created_at, rowid LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ChangeEntry
	for rows.Next() {
		var e models.ChangeEntry
		var action string
		if err := rows.Scan(&e.ID, &e.RecordType, &e.RecordPK, &action, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = models.ChangeAction(action)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// RemoveChange deletes a processed change entry.
func (s *SQLiteStore) RemoveChange(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM changes WHERE id = ?`, id)
	return err
}

// CountChanges returns how many change entries are pending.
func (s *SQLiteStore) CountChanges(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM changes`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
