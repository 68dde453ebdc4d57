package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/peerawits/reqbridge/backend"
	"github.com/peerawits/reqbridge/models"
	"github.com/peerawits/reqbridge/services"
	"github.com/peerawits/reqbridge/utils"
)

type RequestService interface {
	ListRequests(ctx context.Context, user *models.User) ([]models.Request, error)
	CreateRequest(ctx context.Context, form *models.RequestForm) (*models.SubmitResult, error)
}

type RequestHandler struct {
	service  RequestService
	sessions SessionProvider
	logger   *utils.Logger
}

func CreateRequestHandler(service RequestService, sessions SessionProvider) *RequestHandler {
	return &RequestHandler{
		service:  service,
		sessions: sessions,
		logger:   utils.NewLogger("api"),
	}
}

type listResponse struct {
	Requests []models.Request `json:"requests"`
}

func (h *RequestHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := resolveUser(w, r, h.sessions)
	if user == nil {
		return
	}

	records, err := h.service.ListRequests(r.Context(), user)
	if err != nil {
		h.writeCallError(w, r, err)
		return
	}
	if records == nil {
		records = []models.Request{}
	}
	writeJSON(w, http.StatusOK, listResponse{Requests: records})
}

func (h *RequestHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := resolveUser(w, r, h.sessions)
	if user == nil {
		return
	}

	var form models.RequestForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request payload"})
		return
	}
	if form.Owner == "" {
		form.Owner = user.ID
	}
	if form.Owner != user.ID && !user.IsAdmin() {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "cannot submit for another user"})
		return
	}

	result, err := h.service.CreateRequest(r.Context(), &form)
	if err != nil {
		if errors.Is(err, services.ErrHybridDisabled) {
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: utils.ErrSecondaryUnavailable.Message})
			return
		}
		h.writeCallError(w, r, err)
		return
	}

	// Both outcomes go back as the result envelope; on "error" the UI tells
	// the user generation failed but their data is preserved.
	writeJSON(w, http.StatusOK, result)
}

func (h *RequestHandler) HandleSaveDraft(w http.ResponseWriter, r *http.Request) {
	if resolveUser(w, r, h.sessions) == nil {
		return
	}

	var body struct {
		SecondaryKey string `json:"secondaryKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SecondaryKey == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "secondaryKey is required"})
		return
	}
	if err := h.sessions.SaveDraft(r.Context(), sessionToken(r), body.SecondaryKey); err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RequestHandler) HandleDraft(w http.ResponseWriter, r *http.Request) {
	if resolveUser(w, r, h.sessions) == nil {
		return
	}

	key, err := h.sessions.Draft(r.Context(), sessionToken(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no draft in progress"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"secondaryKey": key})
}

func (h *RequestHandler) writeCallError(w http.ResponseWriter, r *http.Request, err error) {
	var ce *backend.CallError
	if errors.As(err, &ce) {
		status := http.StatusBadGateway
		if ce.Kind == backend.KindTimeout {
			status = http.StatusGatewayTimeout
		}
		writeJSON(w, status, ErrorResponse{Error: ce.UserMessage()})
		return
	}
	utils.LogError(r.Context(), err, "request handler failed", nil)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: utils.ErrInternalServer.Message})
}
