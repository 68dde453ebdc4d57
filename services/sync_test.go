package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peerawits/reqbridge/backend"
	"github.com/peerawits/reqbridge/docstore"
	"github.com/peerawits/reqbridge/models"
)

func backendRequests(ids ...string) map[string]interface{} {
	rows := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, map[string]interface{}{
			"id":        id,
			"owner":     "u-1",
			"status":    "Approved",
			"timestamp": "2024-02-01T08:00:00Z",
		})
	}
	return map[string]interface{}{"requests": rows}
}

func seedDoc(t *testing.T, mem *docstore.Memory, key string, data map[string]interface{}) {
	t.Helper()
	require.NoError(t, mem.SetMerge(context.Background(), key, data))
}

func TestSyncAll_DeletesStaleAndUpserts(t *testing.T) {
	mem := docstore.NewMemory()
	old := time.Now().Add(-24 * time.Hour)
	seedDoc(t, mem, "a", map[string]interface{}{"id": "a", "status": "Approved", "createdAt": old})
	seedDoc(t, mem, "c", map[string]interface{}{"id": "c", "status": "Approved", "createdAt": old})
	seedDoc(t, mem, "d", map[string]interface{}{"id": "d", "status": "Approved", "createdAt": old})
	seedDoc(t, mem, "e", map[string]interface{}{"status": "Approved", "createdAt": old}) // no identifier

	caller := newStubCaller()
	caller.respond("getRequests", backendRequests("a", "b", "c"))

	svc := NewSyncService(mem, caller, nil, nil)
	result := svc.SyncAll(context.Background(), "admin")

	require.True(t, result.OK(), result.Message)
	assert.Equal(t, 2, result.Deleted, "exactly d and e are stale")
	assert.Equal(t, 3, result.Updated)

	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		doc, err := mem.Get(ctx, key)
		require.NoError(t, err, "expected %s to be present", key)
		assert.Equal(t, true, doc.Data["isSynced"])
	}
	for _, key := range []string{"d", "e"} {
		_, err := mem.Get(ctx, key)
		assert.ErrorIs(t, err, docstore.ErrNotFound, "expected %s to be deleted", key)
	}
}

func TestSyncAll_Idempotent(t *testing.T) {
	mem := docstore.NewMemory()
	old := time.Now().Add(-24 * time.Hour)
	seedDoc(t, mem, "a", map[string]interface{}{"id": "a", "createdAt": old})
	seedDoc(t, mem, "stale", map[string]interface{}{"id": "gone", "createdAt": old})

	caller := newStubCaller()
	caller.respond("getRequests", backendRequests("a", "b", "c"))

	svc := NewSyncService(mem, caller, nil, nil)

	first := svc.SyncAll(context.Background(), "admin")
	require.True(t, first.OK(), first.Message)
	assert.Equal(t, 1, first.Deleted)
	assert.Equal(t, 3, first.Updated)

	second := svc.SyncAll(context.Background(), "admin")
	require.True(t, second.OK(), second.Message)
	assert.Equal(t, 0, second.Deleted, "second run converges: nothing stale")
	assert.Equal(t, 3, second.Updated, "merge upsert is stable")
	assert.Equal(t, 3, mem.Len())
}

func TestSyncAll_MergesMemoArtifacts(t *testing.T) {
	mem := docstore.NewMemory()
	caller := newStubCaller()
	caller.respond("getRequests", backendRequests("a", "b"))
	caller.respond("getMemos", map[string]interface{}{
		"memos": []interface{}{
			map[string]interface{}{
				"referenceNumber":  "b",
				"memoStatus":       "done",
				"completedMemoUrl": "http://memo",
			},
		},
	})

	svc := NewSyncService(mem, caller, nil, nil)
	result := svc.SyncAll(context.Background(), "admin")
	require.True(t, result.OK(), result.Message)

	ctx := context.Background()
	matched, err := mem.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "done", matched.Data["memoStatus"])
	assert.Equal(t, "http://memo", matched.Data["completedMemoUrl"])

	unmatched, err := mem.Get(ctx, "a")
	require.NoError(t, err)
	v, present := unmatched.Data["memoStatus"]
	assert.True(t, present)
	assert.Nil(t, v, "no memo match means explicit nulls")
}

func TestSyncAll_RequestFetchFailureAborts(t *testing.T) {
	mem := docstore.NewMemory()
	seedDoc(t, mem, "a", map[string]interface{}{"id": "a"})

	caller := newStubCaller()
	caller.fail("getRequests", &backend.CallError{Kind: backend.KindNetwork, Action: "getRequests"})

	svc := NewSyncService(mem, caller, nil, nil)
	result := svc.SyncAll(context.Background(), "admin")

	assert.False(t, result.OK())
	assert.NotEmpty(t, result.Message)
	assert.Equal(t, 1, mem.Len(), "an aborted sync touches nothing")
}

func TestSyncAll_MemoFetchFailureTolerated(t *testing.T) {
	mem := docstore.NewMemory()
	caller := newStubCaller()
	caller.respond("getRequests", backendRequests("a"))
	caller.fail("getMemos", errors.New("memo source down"))

	svc := NewSyncService(mem, caller, nil, nil)
	result := svc.SyncAll(context.Background(), "admin")

	require.True(t, result.OK(), result.Message)
	assert.Equal(t, 1, result.Updated)
}

func TestSyncAll_PendingGraceExcludesInFlightWrites(t *testing.T) {
	mem := docstore.NewMemory()
	// Fresh hybrid write: no id yet, still Pending.
	seedDoc(t, mem, "inflight", map[string]interface{}{
		"status":    string(models.StatusPending),
		"createdAt": time.Now().Add(-time.Minute),
	})
	// An old Pending record past the grace window is fair game.
	seedDoc(t, mem, "abandoned", map[string]interface{}{
		"status":    string(models.StatusPending),
		"createdAt": time.Now().Add(-time.Hour),
	})

	caller := newStubCaller()
	caller.respond("getRequests", backendRequests())

	svc := NewSyncService(mem, caller, nil, nil)
	result := svc.SyncAll(context.Background(), "admin")

	require.True(t, result.OK(), result.Message)
	assert.Equal(t, 1, result.Deleted)

	_, err := mem.Get(context.Background(), "inflight")
	assert.NoError(t, err, "in-flight write survives the sync")
	_, err = mem.Get(context.Background(), "abandoned")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestSyncAll_DerivesStoreSafeKeys(t *testing.T) {
	mem := docstore.NewMemory()
	caller := newStubCaller()
	caller.respond("getRequests", backendRequests("2024/0117"))

	svc := NewSyncService(mem, caller, nil, nil)
	result := svc.SyncAll(context.Background(), "admin")
	require.True(t, result.OK(), result.Message)

	doc, err := mem.Get(context.Background(), "2024_0117")
	require.NoError(t, err)
	assert.Equal(t, "2024/0117", doc.Data["id"], "the identifier itself keeps its original form")
}

func TestSyncAll_MergeDoesNotClobberUnrelatedFields(t *testing.T) {
	mem := docstore.NewMemory()
	seedDoc(t, mem, "a", map[string]interface{}{
		"id":           "a",
		"secondaryKey": "local-key",
		"isHybrid":     true,
		"createdAt":    time.Now().Add(-24 * time.Hour),
	})

	caller := newStubCaller()
	caller.respond("getRequests", backendRequests("a"))

	svc := NewSyncService(mem, caller, nil, nil)
	result := svc.SyncAll(context.Background(), "admin")
	require.True(t, result.OK(), result.Message)

	doc, err := mem.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, true, doc.Data["isHybrid"], "merge upsert keeps fields the sync does not own")
	assert.Equal(t, true, doc.Data["isSynced"])
}

func TestSyncAll_RecordsAuditRun(t *testing.T) {
	mem := docstore.NewMemory()
	caller := newStubCaller()
	caller.respond("getRequests", backendRequests("a"))
	audit := &memoryAudit{}

	svc := NewSyncService(mem, caller, nil, audit)
	result := svc.SyncAll(context.Background(), "admin-7")
	require.True(t, result.OK(), result.Message)

	require.Len(t, audit.syncRuns, 1)
	run := audit.syncRuns[0]
	assert.Equal(t, models.ResultSuccess, run.Status)
	assert.Equal(t, "admin-7", run.TriggeredBy)
	assert.Equal(t, 1, run.Updated)
}

func TestSyncAll_UnconfiguredStore(t *testing.T) {
	svc := NewSyncService(nil, newStubCaller(), nil, nil)

	result := svc.SyncAll(context.Background(), "admin")

	assert.False(t, result.OK())
}

func TestSyncAll_BatchesLargeUpserts(t *testing.T) {
	mem := docstore.NewMemory()
	ids := make([]string, 1000)
	for i := range ids {
		ids[i] = fmt.Sprintf("REQ-%04d", i)
	}

	caller := newStubCaller()
	caller.respond("getRequests", backendRequests(ids...))

	svc := NewSyncService(mem, caller, nil, nil)
	result := svc.SyncAll(context.Background(), "admin")

	require.True(t, result.OK(), result.Message)
	assert.Equal(t, 1000, result.Updated)
	assert.Equal(t, 1000, mem.Len())
}
