package handler_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/account-service/internal/auth"
	"github.com/sakif/account-service/internal/handler"
	"github.com/sakif/account-service/internal/model"
	"github.com/sakif/account-service/internal/repository/sqlite"
	"github.com/sakif/account-service/internal/service"
)

// newTestRouter wires a real AccountService over an in-memory SQLite store
// behind the same routes the server registers. Handler tests go through the
// full stack minus the network — chi URL params only resolve through a
// router, so we can't call the handler methods directly for the /{id} routes.
func newTestRouter(t *testing.T) (chi.Router, *auth.TokenService) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(4)

	svc := service.NewAccountService(db, tokens, passwords, logger)
	h := handler.NewAccountHandler(svc, logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", h.HandleSignup)
		r.Post("/login", h.HandleLogin)
		r.Get("/accounts", h.HandleList)
		r.Get("/accounts/{id}", h.HandleGet)
		r.Patch("/accounts/{id}", h.HandleUpdate)
		r.Delete("/accounts/{id}", h.HandleDelete)
		r.With(auth.RequireAuth(tokens)).Get("/me", h.HandleMe)
	})

	return r, tokens
}

func doJSON(t *testing.T, r chi.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func signupAlice(t *testing.T, r chi.Router) model.AuthResult {
	t.Helper()
	rr := doJSON(t, r, http.MethodPost, "/api/signup",
		`{"username":"alice","email":"alice@example.com","password":"pw1"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var result model.AuthResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&result))
	return result
}

func TestHandleSignup(t *testing.T) {
	r, _ := newTestRouter(t)

	t.Run("valid signup", func(t *testing.T) {
		result := signupAlice(t, r)

		assert.NotNil(t, result.Account)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, "alice", result.Account.Username)
		assert.NotEmpty(t, result.Account.ID)
	})

	t.Run("password hash never in response", func(t *testing.T) {
		rr := doJSON(t, r, http.MethodPost, "/api/signup",
			`{"username":"bob","email":"bob@example.com","password":"pw2"}`)
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.NotContains(t, rr.Body.String(), "passwordHash")
		assert.NotContains(t, rr.Body.String(), "password_hash")
		assert.NotContains(t, rr.Body.String(), "$2a$")
	})

	t.Run("duplicate email is 409", func(t *testing.T) {
		rr := doJSON(t, r, http.MethodPost, "/api/signup",
			`{"username":"imposter","email":"alice@example.com","password":"pw3"}`)
		assert.Equal(t, http.StatusConflict, rr.Code)

		var errRes handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&errRes))
		assert.Equal(t, "conflict", errRes.Error)
	})

	t.Run("missing fields are 400", func(t *testing.T) {
		rr := doJSON(t, r, http.MethodPost, "/api/signup", `{"username":"nopass"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("invalid JSON is 400", func(t *testing.T) {
		rr := doJSON(t, r, http.MethodPost, "/api/signup", `{not json`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandleLogin(t *testing.T) {
	r, tokens := newTestRouter(t)
	signedUp := signupAlice(t, r)

	t.Run("valid login returns token for the account's own id", func(t *testing.T) {
		rr := doJSON(t, r, http.MethodPost, "/api/login",
			`{"email":"alice@example.com","password":"pw1"}`)
		assert.Equal(t, http.StatusOK, rr.Code)

		var result model.AuthResult
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&result))
		assert.Nil(t, result.Account)
		require.NotEmpty(t, result.Token)

		subject, err := tokens.Validate(result.Token)
		require.NoError(t, err)
		assert.Equal(t, signedUp.Account.ID, subject)
	})

	t.Run("wrong password is 401", func(t *testing.T) {
		rr := doJSON(t, r, http.MethodPost, "/api/login",
			`{"email":"alice@example.com","password":"wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		var errRes handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&errRes))
		assert.Equal(t, "invalid_credentials", errRes.Error)
	})

	t.Run("unknown email is 404", func(t *testing.T) {
		rr := doJSON(t, r, http.MethodPost, "/api/login",
			`{"email":"nobody@example.com","password":"pw"}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("missing fields are 400", func(t *testing.T) {
		rr := doJSON(t, r, http.MethodPost, "/api/login", `{"email":"alice@example.com"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandleGetAndList(t *testing.T) {
	r, _ := newTestRouter(t)
	signedUp := signupAlice(t, r)

	t.Run("get by id", func(t *testing.T) {
		rr := doJSON(t, r, http.MethodGet, "/api/accounts/"+signedUp.Account.ID, "")
		assert.Equal(t, http.StatusOK, rr.Code)

		var account model.Account
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&account))
		assert.Equal(t, "alice", account.Username)
	})

	t.Run("get unknown id is 404", func(t *testing.T) {
		rr := doJSON(t, r, http.MethodGet, "/api/accounts/nonexistent", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("list", func(t *testing.T) {
		rr := doJSON(t, r, http.MethodGet, "/api/accounts", "")
		assert.Equal(t, http.StatusOK, rr.Code)

		var accounts []model.Account
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&accounts))
		assert.Len(t, accounts, 1)
	})
}

func TestHandleUpdate(t *testing.T) {
	r, _ := newTestRouter(t)
	signedUp := signupAlice(t, r)
	id := signedUp.Account.ID

	t.Run("partial profile update", func(t *testing.T) {
		rr := doJSON(t, r, http.MethodPatch, "/api/accounts/"+id,
			`{"username":"alice-renamed"}`)
		assert.Equal(t, http.StatusOK, rr.Code)

		var account model.Account
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&account))
		assert.Equal(t, "alice-renamed", account.Username)
		assert.Equal(t, "alice@example.com", account.Email)
	})

	t.Run("password change without currentPassword is 400", func(t *testing.T) {
		rr := doJSON(t, r, http.MethodPatch, "/api/accounts/"+id,
			`{"password":"new"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		// The old password still works
		login := doJSON(t, r, http.MethodPost, "/api/login",
			`{"email":"alice@example.com","password":"pw1"}`)
		assert.Equal(t, http.StatusOK, login.Code)
	})

	t.Run("password change with currentPassword", func(t *testing.T) {
		rr := doJSON(t, r, http.MethodPatch, "/api/accounts/"+id,
			`{"password":"new","currentPassword":"pw1"}`)
		assert.Equal(t, http.StatusOK, rr.Code)

		login := doJSON(t, r, http.MethodPost, "/api/login",
			`{"email":"alice@example.com","password":"new"}`)
		assert.Equal(t, http.StatusOK, login.Code)

		oldLogin := doJSON(t, r, http.MethodPost, "/api/login",
			`{"email":"alice@example.com","password":"pw1"}`)
		assert.Equal(t, http.StatusUnauthorized, oldLogin.Code)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		rr := doJSON(t, r, http.MethodPatch, "/api/accounts/nonexistent",
			`{"username":"ghost"}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestHandleDelete(t *testing.T) {
	r, _ := newTestRouter(t)
	signedUp := signupAlice(t, r)
	id := signedUp.Account.ID

	rr := doJSON(t, r, http.MethodDelete, "/api/accounts/"+id, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var removed model.Account
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&removed))
	assert.Equal(t, id, removed.ID)

	// Gone afterwards
	get := doJSON(t, r, http.MethodGet, "/api/accounts/"+id, "")
	assert.Equal(t, http.StatusNotFound, get.Code)

	del := doJSON(t, r, http.MethodDelete, "/api/accounts/"+id, "")
	assert.Equal(t, http.StatusNotFound, del.Code)
}

func TestHandleMe(t *testing.T) {
	r, _ := newTestRouter(t)
	signedUp := signupAlice(t, r)

	t.Run("with bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+signedUp.Token)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var account model.Account
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&account))
		assert.Equal(t, signedUp.Account.ID, account.ID)
	})

	t.Run("without token is 401", func(t *testing.T) {
		rr := doJSON(t, r, http.MethodGet, "/api/me", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("with garbage token is 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
