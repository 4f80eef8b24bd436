package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/artpar/bandgate/ports"
)

// DefaultNamespace is the local storage namespace used when none is given.
const DefaultNamespace = "default"

// LocalStorage implements ports.LocalStorage using SQLite.
// Items are scoped to a namespace so several profiles can share one file.
type LocalStorage struct {
	db        *DB
	namespace string
}

// NewLocalStorage creates a new SQLite local storage for namespace.
func NewLocalStorage(db *DB, namespace string) *LocalStorage {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &LocalStorage{db: db, namespace: namespace}
}

// GetItem returns the value stored under key.
func (s *LocalStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM local_storage
		WHERE namespace = ? AND key = ?
	`, s.namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetItem stores value under key, replacing any previous value.
func (s *LocalStorage) SetItem(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO local_storage (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE
		SET value = excluded.value, updated_at = excluded.updated_at
	`, s.namespace, key, value, time.Now().UTC())
	return err
}

// RemoveItem deletes key. Removing an absent key is not an error.
func (s *LocalStorage) RemoveItem(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM local_storage
		WHERE namespace = ? AND key = ?
	`, s.namespace, key)
	return err
}

// Keys lists the keys stored in the namespace.
func (s *LocalStorage) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM local_storage
		WHERE namespace = ?
		ORDER BY key
	`, s.namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Ensure interface compliance.
var _ ports.LocalStorage = (*LocalStorage)(nil)
