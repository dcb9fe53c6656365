package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/postgen/internal/model"
)

// UserHandler serves the profile routes under /user/{id}. The service
// refuses any id other than the caller's own.
type UserHandler struct {
	accounts AccountService
	logger   *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(accounts AccountService, logger *slog.Logger) *UserHandler {
	return &UserHandler{accounts: accounts, logger: logger}
}

// HandleGet returns the profile.
//
// HTTP: GET /user/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	user, err := h.accounts.GetUser(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdate applies a partial update. Absent fields stay unchanged.
//
// HTTP: PUT /user/{id}
// REQUEST BODY: {"name": "...", "password": "..."}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	var u model.UserUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.accounts.UpdateUser(r.Context(), uid, chi.URLParam(r, "id"), u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleDelete removes the account and its posts.
//
// HTTP: DELETE /user/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.accounts.DeleteUser(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("account removed", slog.String("userID", uid))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}

type verifyPasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
}

type verifyPasswordResponse struct {
	Valid bool `json:"valid"`
}

// HandleVerifyPassword checks the current password before a password change.
//
// HTTP: POST /user/{id}/verify-password
// REQUEST BODY: {"currentPassword": "..."}
// RESPONSE: {"valid": true}
func (h *UserHandler) HandleVerifyPassword(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	var req verifyPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	valid, err := h.accounts.VerifyPassword(r.Context(), uid, chi.URLParam(r, "id"), req.CurrentPassword)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyPasswordResponse{Valid: valid})
}
