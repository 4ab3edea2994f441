package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/commit-dashboard/internal/repository"
)

// compile-time checks
var (
	_ repository.Namespaces = (*DB)(nil)
	_ repository.KVStore    = (*KV)(nil)
)

// KV is one namespace of the kv table.
type KV struct {
	conn      *sql.DB
	namespace string
}

// Namespace returns the key space for name. It does not touch the database;
// namespaces exist implicitly once a key is written.
func (db *DB) Namespace(name string) repository.KVStore {
	return &KV{conn: db.conn, namespace: name}
}

// Get returns the stored value, or repository.ErrKeyNotFound.
func (kv *KV) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := kv.conn.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE namespace = ? AND key = ?`,
		kv.namespace, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrKeyNotFound
		}
		return "", fmt.Errorf("sqlite: reading %s/%s: %w", kv.namespace, key, err)
	}
	return value, nil
}

// Set inserts or replaces the value for key.
func (kv *KV) Set(ctx context.Context, key, value string) error {
	_, err := kv.conn.ExecContext(ctx,
		`INSERT INTO kv (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		kv.namespace, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing %s/%s: %w", kv.namespace, key, err)
	}
	return nil
}

// Delete removes keys in a single transaction. Missing keys are ignored.
func (kv *KV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := kv.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete in %s: %w", kv.namespace, err)
	}
	defer tx.Rollback() // no-op after Commit

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM kv WHERE namespace = ? AND key = ?`, kv.namespace, key,
		); err != nil {
			return fmt.Errorf("sqlite: deleting %s/%s: %w", kv.namespace, key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete in %s: %w", kv.namespace, err)
	}
	return nil
}
