// Package repository defines the persistence interfaces the services consume.
//
// The dashboard persists everything the way a browser persists local storage:
// string keys mapping to JSON-encoded strings. A KVStore is one such key
// space. The server keeps one namespace per browser device in SQLite; the CLI
// keeps a single namespace in a JSON file.
package repository

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key has never been set or was deleted.
var ErrKeyNotFound = errors.New("repository: key not found")

// KVStore is a string key/value store.
//
// Values are opaque to the store: callers JSON-encode before Set and decode
// after Get. Delete of a missing key is not an error.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Namespaces hands out one KVStore per namespace (device id, "shared", ...).
type Namespaces interface {
	Namespace(name string) KVStore
}
