// Package storage implements the client-local key-value store and the note
// collection persisted inside it.
package storage

import "errors"

// ErrKeyNotFound is returned by KV.Get when the key holds no value.
var ErrKeyNotFound = errors.New("storage: key not found")

// KV is the client-local key-value store. Every value is an opaque blob.
type KV interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(key string) ([]byte, error)
	// Set atomically replaces the value stored under key.
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Clear erases every key in the store.
	Clear() error
}
