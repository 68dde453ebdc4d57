package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/peerawits/reqbridge/backend"
	"github.com/peerawits/reqbridge/docstore"
	"github.com/peerawits/reqbridge/models"
	"github.com/peerawits/reqbridge/utils"
)

// Secondary records still Pending and younger than this are in-flight writes
// whose backend row may not be visible yet; reconciliation leaves them alone.
const defaultPendingGrace = 10 * time.Minute

// SyncService rebuilds the secondary store from the backend: stale records
// are deleted, every backend row is merge-upserted. Administrator-triggered,
// idempotent, and it never lets a failure escape as a panic or error to the
// trigger; everything comes back as a SyncResult.
type SyncService struct {
	requests docstore.Collection
	backend  Caller
	notifier *Notifier
	audit    AuditRecorder
	logger   *utils.Logger

	now          func() time.Time
	pendingGrace time.Duration
}

func NewSyncService(requests docstore.Collection, caller Caller, notifier *Notifier, audit AuditRecorder) *SyncService {
	return &SyncService{
		requests:     requests,
		backend:      caller,
		notifier:     notifier,
		audit:        audit,
		logger:       utils.NewLogger("sync"),
		now:          time.Now,
		pendingGrace: defaultPendingGrace,
	}
}

func (s *SyncService) SyncAll(ctx context.Context, triggeredBy string) models.SyncResult {
	started := s.now()
	result := s.syncAll(ctx)

	s.logger.Info(ctx, "reconciliation finished", map[string]interface{}{
		"status":  result.Status,
		"deleted": result.Deleted,
		"updated": result.Updated,
	})

	if s.audit != nil {
		run := &models.SyncRun{
			Status:      result.Status,
			Message:     result.Message,
			Deleted:     result.Deleted,
			Updated:     result.Updated,
			TriggeredBy: triggeredBy,
			StartedAt:   started,
			Duration:    s.now().Sub(started),
		}
		if err := s.audit.RecordSyncRun(ctx, run); err != nil {
			s.logger.Warn(ctx, "failed to record sync run", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	s.notifier.Notify(ctx, "", fmt.Sprintf("Reconciliation %s: %s", result.Status, result.Message), triggeredBy)

	return result
}

func (s *SyncService) syncAll(ctx context.Context) models.SyncResult {
	if s.requests == nil {
		return syncError("secondary store not configured", nil)
	}

	// The request fetch is the backbone; without it the sync aborts.
	resp, err := s.backend.Call(ctx, backend.MethodRead, "getRequests", nil)
	if err != nil {
		return syncError("failed to fetch requests from backend", err)
	}
	requests := recordList(resp.Data, "requests")

	// Memos only enrich the outgoing records; a failed fetch degrades to an
	// empty set.
	memos := map[string]map[string]interface{}{}
	if memoResp, err := s.backend.Call(ctx, backend.MethodRead, "getMemos", nil); err != nil {
		s.logger.Warn(ctx, "memo fetch failed, continuing without memos", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		for _, memo := range recordList(memoResp.Data, "memos") {
			if ref := stringValue(memo["referenceNumber"]); ref != "" {
				memos[ref] = memo
			}
		}
	}

	valid := make(map[string]struct{}, len(requests))
	for _, rec := range requests {
		if id := recordID(rec); id != "" {
			valid[id] = struct{}{}
		}
	}

	docs, err := s.requests.All(ctx)
	if err != nil {
		return syncError("failed to scan secondary store", err)
	}

	writer := docstore.NewBatchWriter(s.requests, docstore.BatchLimit)

	deleted := 0
	for _, doc := range docs {
		id := recordID(doc.Data)
		if id != "" {
			if _, ok := valid[id]; ok {
				continue
			}
		}
		if s.inPendingGrace(doc.Data) {
			continue
		}
		if err := writer.Delete(ctx, doc.Key); err != nil {
			return syncError("failed to delete stale records", err)
		}
		deleted++
	}
	// Deletions are fully committed before any upsert goes out.
	if err := writer.Flush(ctx); err != nil {
		return syncError("failed to delete stale records", err)
	}

	updated := 0
	for _, rec := range requests {
		id := recordID(rec)
		if id == "" {
			s.logger.Warn(ctx, "backend record without identifier skipped", nil)
			continue
		}
		data := s.outgoingDocument(rec, id, memos[id])
		if err := writer.Set(ctx, documentKey(id), data, true); err != nil {
			return syncError("failed to upsert records", err)
		}
		updated++
	}
	if err := writer.Flush(ctx); err != nil {
		return syncError("failed to upsert records", err)
	}

	return models.SyncResult{
		Status:  models.ResultSuccess,
		Message: fmt.Sprintf("reconciliation complete: %d deleted, %d upserted in %d batches", deleted, updated, writer.Batches()),
		Deleted: deleted,
		Updated: updated,
	}
}

// inPendingGrace reports whether the document looks like an in-flight hybrid
// write: still Pending and created within the grace period. Deleting those
// would race the write path.
func (s *SyncService) inPendingGrace(data map[string]interface{}) bool {
	if stringValue(data["status"]) != string(models.StatusPending) {
		return false
	}
	createdAt, ok := docstore.NormalizeTime(data["createdAt"])
	if !ok {
		return false
	}
	return s.now().Sub(createdAt) < s.pendingGrace
}

// outgoingDocument shapes one backend row for the merge upsert: memo
// completion artifacts joined in (null when no match), times normalized,
// absent values sanitized, provenance marked.
func (s *SyncService) outgoingDocument(rec map[string]interface{}, id string, memo map[string]interface{}) map[string]interface{} {
	data := map[string]interface{}{
		"id":            id,
		"owner":         rec["owner"],
		"status":        rec["status"],
		"commandStatus": rec["commandStatus"],
		"topic":         rec["topic"],
		"destination":   rec["destination"],
		"attendees":     rec["attendees"],
		"pdfUrl":        rec["pdfUrl"],
		"docUrl":        rec["docUrl"],
		"note":          rec["note"],
		"docDate":       dateOrNil(rec["docDate"]),
		"startDate":     dateOrNil(rec["startDate"]),
		"endDate":       dateOrNil(rec["endDate"]),
		"timestamp":     instantOrNil(rec["timestamp"]),
		"createdAt":     instantOrNil(rec["createdAt"]),
		"isSynced":      true,
	}

	if memo != nil {
		data["memoStatus"] = memo["memoStatus"]
		data["completedMemoUrl"] = memo["completedMemoUrl"]
		data["completedCommandUrl"] = memo["completedCommandUrl"]
		data["dispatchBookUrl"] = memo["dispatchBookUrl"]
	} else {
		data["memoStatus"] = nil
		data["completedMemoUrl"] = nil
		data["completedCommandUrl"] = nil
		data["dispatchBookUrl"] = nil
	}

	return docstore.Sanitize(data)
}

// documentKey derives a store-safe key from the authoritative identifier;
// the store treats "/" as a path separator.
func documentKey(id string) string {
	return strings.ReplaceAll(id, "/", "_")
}

func dateOrNil(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	if s := docstore.DateOnly(v); s != "" {
		return s
	}
	return nil
}

func instantOrNil(v interface{}) interface{} {
	if t, ok := docstore.NormalizeTime(v); ok {
		return t
	}
	return nil
}

func syncError(message string, err error) models.SyncResult {
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	return models.SyncResult{
		Status:  models.ResultError,
		Message: message,
	}
}
