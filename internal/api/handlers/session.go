package handlers

import (
	"net/http"

	"github.com/kariuki-dev/tenant-payment-agent/internal/api/request"
	"github.com/kariuki-dev/tenant-payment-agent/internal/api/response"
	"github.com/kariuki-dev/tenant-payment-agent/internal/apperrors"
	"github.com/kariuki-dev/tenant-payment-agent/internal/model"
	"github.com/kariuki-dev/tenant-payment-agent/internal/session"
	"github.com/kariuki-dev/tenant-payment-agent/internal/validation"
)

// SessionHandler handles HTTP requests for installing and clearing the
// tenant session the agent operates with. Installing or clearing a
// session changes the tenant identity everything downstream is scoped
// to, so both notify onChange after the store is updated.
type SessionHandler struct {
	sessions session.Store
	onChange func()
}

// NewSessionHandler creates a new SessionHandler with the provided
// store dependency. onChange runs after every successful install or
// clear; pass nil when nothing needs to react.
func NewSessionHandler(sessions session.Store, onChange func()) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		onChange: onChange,
	}
}

func (h *SessionHandler) notifyChange() {
	if h.onChange != nil {
		h.onChange()
	}
}

// Create handles POST requests to install the tenant session.
// The bearer token is encrypted at rest when a key is configured.
//
// Endpoint: POST /api/session
// Request Body: CreateSessionRequest (tenantId, token, and optionally name)
// Response: 201 Created
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if persisting fails
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateSessionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateSession(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	sess := model.Session{
		TenantID: req.TenantID,
		Name:     req.Name,
		Token:    req.Token,
	}
	if err := h.sessions.Set(sess); err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToSaveSession.Error(), err.Error())
		return
	}
	h.notifyChange()

	response.RespondJSON(w, http.StatusCreated, nil)
}

// Delete handles DELETE requests to clear the installed session.
//
// Endpoint: DELETE /api/session
// Response: 204 No Content
// Error: 500 Internal Server Error if clearing fails
func (h *SessionHandler) Delete(w http.ResponseWriter, _ *http.Request) {
	if err := h.sessions.Clear(); err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToClearSession.Error(), err.Error())
		return
	}
	h.notifyChange()

	response.RespondJSON(w, http.StatusNoContent, nil)
}
