// Package services orchestrates the hybrid read/write paths and the
// reconciliation sync between the secondary document store and the
// authoritative backend.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/peerawits/reqbridge/backend"
	"github.com/peerawits/reqbridge/docstore"
	"github.com/peerawits/reqbridge/models"
	"github.com/peerawits/reqbridge/utils"
)

// Caller is the slice of the backend client the services need.
type Caller interface {
	Call(ctx context.Context, method backend.Method, action string, payload map[string]interface{}) (*backend.Response, error)
}

// AuditRecorder persists sync-run and submission outcomes. Recording is
// best-effort everywhere; a nil recorder disables it.
type AuditRecorder interface {
	RecordSyncRun(ctx context.Context, run *models.SyncRun) error
	RecordSubmission(ctx context.Context, sub *models.Submission) error
}

// ErrHybridDisabled is returned by the write path when no secondary store is
// configured; write-hybrid mode requires one.
var ErrHybridDisabled = errors.New("services: secondary store not configured")

// Cap on records returned to administrators. A performance safeguard, not a
// completeness guarantee.
const adminFetchLimit = 100

type HybridService struct {
	requests docstore.Collection
	backend  Caller
	notifier *Notifier
	audit    AuditRecorder
	logger   *utils.Logger
}

func NewHybridService(requests docstore.Collection, caller Caller, notifier *Notifier, audit AuditRecorder) *HybridService {
	return &HybridService{
		requests: requests,
		backend:  caller,
		notifier: notifier,
		audit:    audit,
		logger:   utils.NewLogger("hybrid"),
	}
}

// FetchRequests serves the list query from the secondary store. ok is false
// whenever the store is unconfigured, unreachable, or any record fails to
// decode; callers must then fall back to a direct backend read. It never
// returns a partial sequence.
func (s *HybridService) FetchRequests(ctx context.Context, user *models.User) ([]models.Request, bool) {
	if s.requests == nil {
		return nil, false
	}

	q := docstore.Query{OrderBy: "timestamp", Desc: true}
	if user.IsAdmin() {
		q.Limit = adminFetchLimit
	} else {
		q.Field = "owner"
		q.Value = user.ID
	}

	docs, err := s.requests.Select(ctx, q)
	if err != nil {
		s.logger.Warn(ctx, "secondary read failed, falling back to backend", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, false
	}

	records := make([]models.Request, 0, len(docs))
	for _, doc := range docs {
		rec, err := decodeRequest(doc.Key, doc.Data)
		if err != nil {
			s.logger.Warn(ctx, "malformed secondary record, falling back to backend", map[string]interface{}{
				"key":   doc.Key,
				"error": err.Error(),
			})
			return nil, false
		}
		records = append(records, rec)
	}
	return records, true
}

// ListRequests is the full read path: secondary store first, transparent
// backend fallback otherwise.
func (s *HybridService) ListRequests(ctx context.Context, user *models.User) ([]models.Request, error) {
	if records, ok := s.FetchRequests(ctx, user); ok {
		return records, nil
	}

	payload := map[string]interface{}{}
	if !user.IsAdmin() {
		payload["owner"] = user.ID
	}
	resp, err := s.backend.Call(ctx, backend.MethodRead, "getRequests", payload)
	if err != nil {
		return nil, err
	}

	raw := recordList(resp.Data, "requests")
	records := make([]models.Request, 0, len(raw))
	for _, m := range raw {
		rec, err := decodeRequest("", m)
		if err != nil {
			return nil, fmt.Errorf("decode backend record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// CreateRequest is the hybrid write path: secondary insert for immediate
// feedback, backend submission, then reconciliation of the secondary record
// with the authoritative result. The secondary record is never deleted here;
// only the reconciliation sync may remove records, and only ones the backend
// no longer knows.
func (s *HybridService) CreateRequest(ctx context.Context, form *models.RequestForm) (*models.SubmitResult, error) {
	if s.requests == nil {
		return nil, ErrHybridDisabled
	}

	provisional := docstore.Sanitize(map[string]interface{}{
		"owner":         form.Owner,
		"topic":         form.Topic,
		"destination":   form.Destination,
		"docDate":       form.DocDate,
		"startDate":     form.StartDate,
		"endDate":       form.EndDate,
		"attendees":     attendeeMaps(form.Attendees),
		"status":        string(models.StatusPending),
		"commandStatus": models.CommandStatusInProgress,
		"createdAt":     docstore.ServerTimestamp,
		"timestamp":     docstore.ServerTimestamp,
		"pdfUrl":        "",
		"isHybrid":      true,
	})

	// Fast local insert; not retried. Nothing to clean up if it fails.
	key, err := s.requests.Add(ctx, provisional)
	if err != nil {
		return nil, err
	}

	payload := form.Payload()
	payload["secondaryKey"] = key

	resp, err := s.backend.Call(ctx, backend.MethodWrite, "createRequest", payload)
	if err != nil {
		var ce *backend.CallError
		if errors.As(err, &ce) && ce.Kind == backend.KindApplication {
			return s.submissionRejected(ctx, form, key, ce)
		}
		// Transport failure: the record stays Pending and will be picked up
		// by the next reconciliation.
		return nil, err
	}

	fields := map[string]interface{}{"status": string(models.StatusSubmitted)}
	id := stringValue(resp.Data["id"])
	if id != "" {
		fields["id"] = id
	}
	pdfURL := stringValue(resp.Data["pdfUrl"])
	if pdfURL != "" {
		fields["pdfUrl"] = pdfURL
	}
	if err := s.requests.Update(ctx, key, fields); err != nil {
		// The backend accepted the request; the secondary record will be
		// repaired by the next reconciliation.
		s.logger.Warn(ctx, "secondary update after submit failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	s.recordSubmission(ctx, &models.Submission{
		SecondaryKey: key,
		RequestID:    id,
		Owner:        form.Owner,
		Status:       models.ResultSuccess,
	})
	s.notifier.Notify(ctx, pdfURL, fmt.Sprintf("New request %s submitted by %s", id, form.Owner), "admins")

	return &models.SubmitResult{
		Status:       models.ResultSuccess,
		RequestID:    id,
		PDFURL:       pdfURL,
		SecondaryKey: key,
		Data:         resp.Data,
	}, nil
}

func (s *HybridService) submissionRejected(ctx context.Context, form *models.RequestForm, key string, ce *backend.CallError) (*models.SubmitResult, error) {
	note := "document generation failed: " + ce.Message
	if err := s.requests.Update(ctx, key, map[string]interface{}{
		"status": string(models.StatusErrorGAS),
		"note":   note,
	}); err != nil {
		s.logger.Error(ctx, "failed to mark secondary record as errored", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	s.recordSubmission(ctx, &models.Submission{
		SecondaryKey: key,
		Owner:        form.Owner,
		Status:       models.ResultError,
		ErrorMessage: ce.Message,
	})

	// Data is preserved in the secondary store; the caller tells the user
	// generation failed but nothing was lost.
	return &models.SubmitResult{
		Status:       models.ResultError,
		Message:      ce.UserMessage(),
		SecondaryKey: key,
	}, nil
}

func (s *HybridService) recordSubmission(ctx context.Context, sub *models.Submission) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordSubmission(ctx, sub); err != nil {
		s.logger.Warn(ctx, "failed to record submission audit", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func attendeeMaps(attendees []models.Attendee) []interface{} {
	if len(attendees) == 0 {
		return nil
	}
	out := make([]interface{}, 0, len(attendees))
	for _, a := range attendees {
		out = append(out, map[string]interface{}{
			"name":     a.Name,
			"position": a.Position,
		})
	}
	return out
}
