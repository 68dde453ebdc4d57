package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/peerawits/reqbridge/cache"
	"github.com/peerawits/reqbridge/models"
)

// SessionProvider is the slice of the session store the handlers need.
type SessionProvider interface {
	SaveProfile(ctx context.Context, token string, user *models.User) error
	Profile(ctx context.Context, token string) (*models.User, error)
	SaveDraft(ctx context.Context, token, secondaryKey string) error
	Draft(ctx context.Context, token string) (string, error)
	Clear(ctx context.Context, token string) error
}

type SessionHandler struct {
	sessions SessionProvider
}

func CreateSessionHandler(sessions SessionProvider) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid profile payload"})
		return
	}
	if user.ID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "user id is required"})
		return
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	token := uuid.NewString()
	if err := h.sessions.SaveProfile(r.Context(), token, &user); err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: &user})
}

func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing session token"})
		return
	}
	if err := h.sessions.Clear(r.Context(), token); err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolveUser authenticates a request against the session store. A missing
// or expired session writes the response itself and returns nil.
func resolveUser(w http.ResponseWriter, r *http.Request, sessions SessionProvider) *models.User {
	token := sessionToken(r)
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing session token"})
		return nil
	}
	user, err := sessions.Profile(r.Context(), token)
	if err != nil {
		if errors.Is(err, cache.ErrNoSession) {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "session expired"})
			return nil
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return nil
	}
	return user
}
