package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/postgen/internal/model"
)

// AccountService is what the auth and user handlers need from
// service.AccountService.
type AccountService interface {
	Signup(ctx context.Context, reg model.Registration) (*model.User, error)
	Login(ctx context.Context, creds model.Credentials) (*model.User, error)
	GetUser(ctx context.Context, callerID, id string) (*model.User, error)
	UpdateUser(ctx context.Context, callerID, id string, u model.UserUpdate) (*model.User, error)
	DeleteUser(ctx context.Context, callerID, id string) error
	VerifyPassword(ctx context.Context, callerID, id, current string) (bool, error)
}

// AuthHandler serves signup and login. Neither issues a token: the client
// keeps the returned user id and sends it back as X-User-ID.
type AuthHandler struct {
	accounts AccountService
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(accounts AccountService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

// HandleSignup creates an account.
//
// HTTP: POST /api/auth/signup
// REQUEST BODY: {"email": "...", "password": "...", "name": "...", "username": "..."}
// RESPONSE: 201 {"user": {"_id": "...", ...}}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var reg model.Registration
	if err := decodeJSON(w, r, &reg); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.accounts.Signup(r.Context(), reg)
	if err != nil {
		h.logger.Info("signup rejected", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.AuthResponse{User: *user})
}

// HandleLogin checks credentials.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"email": "...", "password": "..."}
// RESPONSE: 200 {"user": {"_id": "...", ...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.accounts.Login(r.Context(), creds)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.AuthResponse{User: *user})
}
