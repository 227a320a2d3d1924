package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

const upsertDocument = `INSERT INTO documents (key, value, version, updated_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = excluded.version, updated_at = excluded.updated_at`

// DocumentStore is the local key-value storage: one JSON document per key,
// each tagged with the schema version it was written at.
type DocumentStore struct {
	db *sql.DB
}

func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// LoadDocument returns the raw document for key. found is false when the key
// has never been written.
func (s *DocumentStore) LoadDocument(ctx context.Context, key string) (raw []byte, version int, found bool, err error) {
	var value string
	err = s.db.QueryRowContext(ctx, `SELECT value, version FROM documents WHERE key = ?`, key).Scan(&value, &version)
	if err == sql.ErrNoRows {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("load document %q: %w", key, err)
	}
	return []byte(value), version, true, nil
}

// SaveDocument replaces the document stored under key.
func (s *DocumentStore) SaveDocument(ctx context.Context, key string, raw []byte, version int) error {
	if _, err := s.db.ExecContext(ctx, upsertDocument, key, string(raw), version, time.Now().UTC()); err != nil {
		return fmt.Errorf("save document %q: %w", key, err)
	}
	return nil
}

// SaveDocuments replaces every document in docs in one transaction.
func (s *DocumentStore) SaveDocuments(ctx context.Context, docs map[string][]byte, version int) error {
	keys := make([]string, 0, len(docs))
	for key := range docs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertDocument)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, key := range keys {
		if _, err := stmt.ExecContext(ctx, key, string(docs[key]), version, now); err != nil {
			return fmt.Errorf("save document %q: %w", key, err)
		}
	}
	return tx.Commit()
}

// DeleteDocument removes key. Deleting a missing key is not an error.
func (s *DocumentStore) DeleteDocument(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete document %q: %w", key, err)
	}
	return nil
}

// DocumentInfo describes a stored document without its contents.
type DocumentInfo struct {
	Key       string
	Version   int
	SizeBytes int64
	UpdatedAt time.Time
}

// List describes every stored document, ordered by key.
func (s *DocumentStore) List(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, version, length(value), updated_at FROM documents ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentInfo
	for rows.Next() {
		var d DocumentInfo
		if err := rows.Scan(&d.Key, &d.Version, &d.SizeBytes, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
