// Package docstore abstracts the low-latency document database that mirrors
// a subset of backend records. The backend stays the store of record; every
// caller must treat an unconfigured collection (nil) as "primary only", not
// as an error.
package docstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("docstore: document not found")

// Per-batch operation ceilings. The store rejects batches above
// HardBatchLimit; BatchLimit stays below it to leave headroom.
const (
	HardBatchLimit = 500
	BatchLimit     = 450
)

type Document struct {
	Key  string
	Data map[string]interface{}
}

// Query is a single-field equality filter with optional ordering and limit.
type Query struct {
	Field   string
	Value   interface{}
	OrderBy string
	Desc    bool
	Limit   int
}

type OpKind int

const (
	OpSet OpKind = iota
	OpDelete
)

type BatchOp struct {
	Kind  OpKind
	Key   string
	Data  map[string]interface{}
	Merge bool
}

type Collection interface {
	Get(ctx context.Context, key string) (*Document, error)
	Select(ctx context.Context, q Query) ([]Document, error)
	All(ctx context.Context) ([]Document, error)
	// Add inserts with a store-assigned key and returns it.
	Add(ctx context.Context, data map[string]interface{}) (string, error)
	// Update applies a partial field update to an existing document.
	Update(ctx context.Context, key string, fields map[string]interface{}) error
	// SetMerge upserts with merge semantics: unrelated fields already
	// present on the document are left untouched.
	SetMerge(ctx context.Context, key string, data map[string]interface{}) error
	Delete(ctx context.Context, key string) error
	// CommitBatch applies ops atomically. len(ops) must not exceed
	// HardBatchLimit.
	CommitBatch(ctx context.Context, ops []BatchOp) error
}

type serverTimestamp struct{}

// ServerTimestamp is a sentinel value resolved to a store-assigned instant
// at write time.
var ServerTimestamp = serverTimestamp{}
