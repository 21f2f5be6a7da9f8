// Package kvstorage defines a small keyed blob store used for records that
// live next to the tool configuration, such as settings snapshots.
package kvstorage

import (
	"context"
	"fmt"
	"strings"
)

// KVStore defines the interface for generic key-value persistence.
// Each store operates on a single "table" (a named directory under the
// setbridge home).
type KVStore interface {
	// Set stores a value for the given key, subject to opts.Exists.
	Set(ctx context.Context, key string, value []byte, opts SetOptions) error

	// Get retrieves the value for the given key.
	// Returns ErrKeyNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key and its value.
	// Returns ErrKeyNotFound if the key doesn't exist.
	Delete(ctx context.Context, key string) error

	// List returns all keys in the table in lexical order.
	List(ctx context.Context) ([]string, error)
}

// ExistsMode selects how Set treats the current state of the key.
type ExistsMode int

const (
	// Upsert writes the value whether or not the key exists.
	Upsert ExistsMode = iota
	// FailIfExists makes Set return ErrAlreadyExists for a present key.
	FailIfExists
	// FailIfNotExists makes Set return ErrKeyNotFound for a missing key.
	FailIfNotExists
)

// SetOptions controls Set behavior.
type SetOptions struct {
	Exists ExistsMode
}

// ReservedTableNames are directory names under the setbridge home that
// hold other data. These cannot be used as KV table names.
var ReservedTableNames = []string{"solutions", "logs"}

// ValidateTableName checks that a table name is not reserved and is a
// single path element.
func ValidateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("table name %q is not a plain name", name)
	}
	for _, reserved := range ReservedTableNames {
		if name == reserved {
			return fmt.Errorf("table name %q is reserved: %w", name, ErrReservedTable)
		}
	}
	return nil
}
