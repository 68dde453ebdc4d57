package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_AddGetUpdate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	key, err := m.Add(ctx, map[string]interface{}{"status": "Pending"})
	require.NoError(t, err)
	require.NotEmpty(t, key)

	require.NoError(t, m.Update(ctx, key, map[string]interface{}{"status": "Submitted", "id": "REQ-1"}))

	doc, err := m.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Submitted", doc.Data["status"])
	assert.Equal(t, "REQ-1", doc.Data["id"])

	assert.ErrorIs(t, m.Update(ctx, "missing", nil), ErrNotFound)
}

func TestMemory_SetMergeKeepsUnrelatedFields(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SetMerge(ctx, "k", map[string]interface{}{"a": 1, "b": 2}))
	require.NoError(t, m.SetMerge(ctx, "k", map[string]interface{}{"b": 3}))

	doc, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Data["a"], "merge must not clobber unrelated fields")
	assert.Equal(t, 3, doc.Data["b"])
}

func TestMemory_SelectFilterOrderLimit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, owner := range []string{"u1", "u2", "u1", "u1"} {
		require.NoError(t, m.SetMerge(ctx, string(rune('a'+i)), map[string]interface{}{
			"owner":     owner,
			"timestamp": base.Add(time.Duration(i) * time.Hour),
		}))
	}

	docs, err := m.Select(ctx, Query{Field: "owner", Value: "u1", OrderBy: "timestamp", Desc: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d", docs[0].Key)
	assert.Equal(t, "c", docs[1].Key)
}

func TestMemory_ServerTimestampResolved(t *testing.T) {
	m := NewMemory()
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return fixed }
	ctx := context.Background()

	key, err := m.Add(ctx, map[string]interface{}{"createdAt": ServerTimestamp})
	require.NoError(t, err)

	doc, err := m.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, fixed, doc.Data["createdAt"])
}

func TestMemory_FailReads(t *testing.T) {
	m := NewMemory()
	m.FailReads = true
	ctx := context.Background()

	_, err := m.All(ctx)
	assert.Error(t, err)
	_, err = m.Get(ctx, "k")
	assert.Error(t, err)
}
