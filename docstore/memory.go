package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory Collection for tests and local development.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]map[string]interface{}

	// Now stands in for the store's server clock.
	Now func() time.Time

	// FailReads makes every read return an error, to exercise fallback
	// behavior.
	FailReads bool
}

func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string]map[string]interface{}),
		Now:  time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailReads {
		return nil, fmt.Errorf("docstore: read failed")
	}
	data, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{Key: key, Data: cloneDoc(data)}, nil
}

func (m *Memory) Select(_ context.Context, q Query) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailReads {
		return nil, fmt.Errorf("docstore: read failed")
	}

	var docs []Document
	for key, data := range m.docs {
		if q.Field != "" && fmt.Sprint(data[q.Field]) != fmt.Sprint(q.Value) {
			continue
		}
		docs = append(docs, Document{Key: key, Data: cloneDoc(data)})
	}

	if q.OrderBy != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			less := compareValues(docs[i].Data[q.OrderBy], docs[j].Data[q.OrderBy])
			if q.Desc {
				return !less
			}
			return less
		})
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func (m *Memory) All(ctx context.Context) ([]Document, error) {
	return m.Select(ctx, Query{})
}

func (m *Memory) Add(_ context.Context, data map[string]interface{}) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := uuid.NewString()
	m.docs[key] = m.resolve(data)
	return key, nil
}

func (m *Memory) Update(_ context.Context, key string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[key]
	if !ok {
		return ErrNotFound
	}
	for k, v := range m.resolve(fields) {
		doc[k] = v
	}
	return nil
}

func (m *Memory) SetMerge(_ context.Context, key string, data map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mergeLocked(key, data)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

func (m *Memory) CommitBatch(_ context.Context, ops []BatchOp) error {
	if len(ops) > HardBatchLimit {
		return fmt.Errorf("docstore: batch of %d exceeds hard limit %d", len(ops), HardBatchLimit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range ops {
		switch op.Kind {
		case OpDelete:
			delete(m.docs, op.Key)
		default:
			if op.Merge {
				m.mergeLocked(op.Key, op.Data)
			} else {
				m.docs[op.Key] = m.resolve(op.Data)
			}
		}
	}
	return nil
}

// Len reports the number of stored documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *Memory) mergeLocked(key string, data map[string]interface{}) {
	doc, ok := m.docs[key]
	if !ok {
		doc = make(map[string]interface{}, len(data))
		m.docs[key] = doc
	}
	for k, v := range m.resolve(data) {
		doc[k] = v
	}
}

func (m *Memory) resolve(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if _, ok := v.(serverTimestamp); ok {
			out[k] = m.Now()
			continue
		}
		out[k] = v
	}
	return out
}

func cloneDoc(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func compareValues(a, b interface{}) bool {
	at, aok := NormalizeTime(a)
	bt, bok := NormalizeTime(b)
	if aok && bok {
		return at.Before(bt)
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
