package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"
)

// KVStore implements kv.Store and kv.Batcher on the kv_records table
type KVStore struct {
	db *DB
}

// NewKVStore creates a new KVStore
func NewKVStore(db *DB) *KVStore {
	return &KVStore{db: db}
}

// Get reads the named records in one query. Missing keys are omitted.
func (s *KVStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	query := `SELECT key, value FROM kv_records WHERE key IN (` + placeholders(len(keys)) + `)`
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		result[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}

	return result, nil
}

// Set upserts every item in one transaction
func (s *KVStore) Set(ctx context.Context, items map[string][]byte) error {
	return s.Apply(ctx, items, nil)
}

// Remove deletes the named records in one transaction
func (s *KVStore) Remove(ctx context.Context, keys ...string) error {
	return s.Apply(ctx, nil, keys)
}

// Apply upserts set and deletes remove atomically
func (s *KVStore) Apply(ctx context.Context, set map[string][]byte, remove []string) error {
	if len(set) == 0 && len(remove) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsert(ctx, tx, set); err != nil {
		return err
	}

	if len(remove) > 0 {
		query := `DELETE FROM kv_records WHERE key IN (` + placeholders(len(remove)) + `)`
		args := make([]interface{}, len(remove))
		for i, k := range remove {
			args[i] = k
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return mapWriteError("failed to remove records", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return mapWriteError("failed to commit records", err)
	}

	return nil
}

// Keys lists every stored key in order
func (s *KVStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv_records ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating key rows: %w", err)
	}

	return keys, nil
}

func upsert(ctx context.Context, tx *sql.Tx, items map[string][]byte) error {
	if len(items) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO kv_records (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	// Sorted keys give a stable write order inside the transaction.
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := time.Now()
	for _, k := range keys {
		if _, err := stmt.ExecContext(ctx, k, items[k], now); err != nil {
			return mapWriteError("failed to set record", err)
		}
	}

	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
