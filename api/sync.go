package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/peerawits/reqbridge/models"
	"github.com/peerawits/reqbridge/utils"
)

type SyncRunner interface {
	SyncAll(ctx context.Context, triggeredBy string) models.SyncResult
}

// AuditReader is implemented by the audit store when postgres is configured.
type AuditReader interface {
	ListSyncRuns(ctx context.Context, limit int) ([]*models.SyncRun, error)
	ListSubmissions(ctx context.Context, filter models.SubmissionFilter) ([]*models.Submission, int64, error)
}

type SyncHandler struct {
	runner   SyncRunner
	audit    AuditReader
	sessions SessionProvider
	logger   *utils.Logger
}

func CreateSyncHandler(runner SyncRunner, audit AuditReader, sessions SessionProvider) *SyncHandler {
	return &SyncHandler{
		runner:   runner,
		audit:    audit,
		sessions: sessions,
		logger:   utils.NewLogger("api"),
	}
}

// HandleSync triggers a reconciliation run. Admin only; the run itself never
// fails the request, its outcome is reported in the body.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	user := h.resolveAdmin(w, r)
	if user == nil {
		return
	}

	result := h.runner.SyncAll(r.Context(), user.ID)
	writeJSON(w, http.StatusOK, result)
}

func (h *SyncHandler) HandleSyncRuns(w http.ResponseWriter, r *http.Request) {
	if h.resolveAdmin(w, r) == nil {
		return
	}
	if h.audit == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "audit store not configured"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.audit.ListSyncRuns(r.Context(), clampLimit(limit))
	if err != nil {
		utils.LogError(r.Context(), err, "failed to list sync runs", nil)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: utils.ErrInternalServer.Message})
		return
	}
	if runs == nil {
		runs = []*models.SyncRun{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (h *SyncHandler) HandleSubmissions(w http.ResponseWriter, r *http.Request) {
	if h.resolveAdmin(w, r) == nil {
		return
	}
	if h.audit == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "audit store not configured"})
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	filter := models.SubmissionFilter{
		Owner:  q.Get("owner"),
		Status: q.Get("status"),
		Limit:  clampLimit(limit),
		Offset: offset,
	}

	subs, total, err := h.audit.ListSubmissions(r.Context(), filter)
	if err != nil {
		utils.LogError(r.Context(), err, "failed to list submissions", nil)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: utils.ErrInternalServer.Message})
		return
	}
	if subs == nil {
		subs = []*models.Submission{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"submissions": subs,
		"total":       total,
	})
}

func (h *SyncHandler) resolveAdmin(w http.ResponseWriter, r *http.Request) *models.User {
	user := resolveUser(w, r, h.sessions)
	if user == nil {
		return nil
	}
	if !user.IsAdmin() {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "admin role required"})
		return nil
	}
	return user
}
