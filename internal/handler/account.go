// Package handler contains the HTTP layer: request parsing, response
// writing, and nothing else. Business rules live in the service layer.
//
// Each operation has its own typed request struct. The handler decodes the
// body into it, enforces argument presence, and only then calls the service
// — by the time AccountService runs, every required argument is known to be
// present.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/account-service/internal/apperror"
	"github.com/sakif/account-service/internal/auth"
	"github.com/sakif/account-service/internal/service"
)

// AccountHandler exposes the account operations over JSON.
//
// ROUTES:
//
//	POST   /api/signup        → HandleSignup
//	POST   /api/login         → HandleLogin
//	GET    /api/accounts      → HandleList
//	GET    /api/accounts/{id} → HandleGet
//	PATCH  /api/accounts/{id} → HandleUpdate
//	DELETE /api/accounts/{id} → HandleDelete
//	GET    /api/me            → HandleMe (requires auth)
type AccountHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

// NewAccountHandler creates an AccountHandler. All dependencies are injected
// here; the handler has no knowledge of how they're constructed.
func NewAccountHandler(accounts *service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// SignupRequest is the request body for POST /api/signup.
// All three fields are required.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for POST /api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateAccountRequest is the request body for PATCH /api/accounts/{id}.
// Pointer fields distinguish "absent" from "present but empty" — an absent
// field is left unchanged, which is what makes the update partial.
type UpdateAccountRequest struct {
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	CurrentPassword *string `json:"currentPassword"`
}

// HandleSignup creates a new account.
//
// HTTP: POST /api/signup
// Response: 201 with {"account": {...}, "token": "..."}
func (h *AccountHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, apperror.ValidationFailed("body", "username, email and password are required"))
		return
	}

	result, err := h.accounts.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.logger.Warn("signup failed",
			slog.String("email", req.Email),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// HandleLogin authenticates an account and returns a token.
//
// HTTP: POST /api/login
// Response: 200 with {"token": "..."} — no account echo by design.
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, apperror.ValidationFailed("body", "email and password are required"))
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn("login failed",
			slog.String("email", req.Email),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleList returns all accounts.
//
// HTTP: GET /api/accounts
func (h *AccountHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		h.logger.Error("listing accounts failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accounts)
}

// HandleGet returns a single account by ID.
//
// HTTP: GET /api/accounts/{id}
func (h *AccountHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	account, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// HandleUpdate applies a partial update to an account.
//
// HTTP: PATCH /api/accounts/{id}
// Response: 200 with the post-update account.
func (h *AccountHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	account, err := h.accounts.Update(r.Context(), id, service.UpdateRequest{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		h.logger.Warn("account update failed",
			slog.String("accountID", id),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// HandleDelete removes an account and returns the removed record.
//
// HTTP: DELETE /api/accounts/{id}
func (h *AccountHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	account, err := h.accounts.Delete(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// HandleMe returns the currently authenticated account's profile.
//
// HTTP: GET /api/me
// Auth: Required (RequireAuth middleware sets accountID in context)
func (h *AccountHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		// Should never happen on a RequireAuth-protected route, but be safe.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	account, err := h.accounts.Get(r.Context(), accountID)
	if err != nil {
		h.logger.Error("HandleMe: account not found", slog.String("accountID", accountID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}
