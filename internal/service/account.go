// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// AccountService is where every account rule lives: email uniqueness on
// signup, password verification on login and password change, field-by-field
// partial updates. Handlers only know HTTP; the repository only knows SQL;
// neither knows the other exists.
//
// DEPENDENCY INJECTION:
// AccountService takes a repository.AccountRepository (interface), NOT a
// concrete store. Tests pass an in-memory fake; main passes sqlite. Same for
// hashing and token issuance — both injected, both swappable.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/account-service/internal/apperror"
	"github.com/sakif/account-service/internal/auth"
	"github.com/sakif/account-service/internal/model"
	"github.com/sakif/account-service/internal/repository"
)

// AccountService orchestrates account mutations and queries.
//
// Every operation is a single stateless request — the service holds no
// mutable state of its own, so one instance serves any number of concurrent
// requests. Failures are never swallowed or retried: each one propagates to
// the caller with its kind intact.
type AccountService struct {
	accounts  repository.AccountRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAccountService creates an AccountService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewAccountService(
	accounts repository.AccountRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		accounts:  accounts,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// UpdateRequest is the partial-update input for Update. Nil fields are left
// unchanged. CurrentPassword is only consulted when Password is present.
type UpdateRequest struct {
	Username        *string
	Email           *string
	Password        *string
	CurrentPassword *string
}

// Signup registers a new account and returns it together with a fresh token.
//
// FLOW:
//  1. Reject if the email is already taken (duplicate kind)
//  2. Hash the password
//  3. Insert the account (the store's UNIQUE constraint backstops step 1 —
//     two concurrent signups can both pass the check, only one insert wins)
//  4. Issue a token for the new account's ID
func (s *AccountService) Signup(ctx context.Context, username, email, password string) (*model.AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	// Existence check first so the common duplicate path gets a clean error
	// instead of a failed insert.
	_, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.Duplicate("account", "email")
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/account: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.Crypto(err)
	}

	account := &model.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}

	// The repository fills in ID and timestamps.
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("service/account: creating account: %w", err)
	}

	s.logger.Info("account created",
		slog.String("accountID", account.ID),
		slog.String("username", account.Username),
	)

	token, err := s.tokens.Generate(account.ID)
	if err != nil {
		return nil, apperror.Crypto(err)
	}

	return &model.AuthResult{Account: account, Token: token}, nil
}

// Login authenticates an email/password pair and returns a token.
//
// The token's subject is always the looked-up account's own ID, never
// anything the caller supplied. The result deliberately omits the account —
// login hands back a credential, not a profile.
func (s *AccountService) Login(ctx context.Context, email, password string) (*model.AuthResult, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("account", email)
		}
		return nil, fmt.Errorf("service/account: looking up account: %w", err)
	}

	ok, err := s.passwords.Verify(password, account.PasswordHash)
	if err != nil {
		return nil, apperror.Crypto(err)
	}
	if !ok {
		return nil, apperror.InvalidCredentials()
	}

	token, err := s.tokens.Generate(account.ID)
	if err != nil {
		return nil, apperror.Crypto(err)
	}

	s.logger.Info("account logged in", slog.String("accountID", account.ID))

	return &model.AuthResult{Token: token}, nil
}

// Update applies a partial update to an account and returns the post-update
// snapshot.
//
// PASSWORD CHANGE ORDERING:
// When a new password is present, the current password is verified BEFORE
// anything is written. A failed verification leaves the account completely
// unmodified — no partial writes, even if the request also carried a new
// username or email.
func (s *AccountService) Update(ctx context.Context, id string, req UpdateRequest) (*model.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/account: fetching account %s: %w", id, err)
	}

	update := repository.AccountUpdate{
		Username: req.Username,
		Email:    req.Email,
	}

	if req.Password != nil {
		if req.CurrentPassword == nil || *req.CurrentPassword == "" {
			return nil, apperror.MissingCurrentPassword()
		}

		ok, err := s.passwords.Verify(*req.CurrentPassword, account.PasswordHash)
		if err != nil {
			return nil, apperror.Crypto(err)
		}
		if !ok {
			return nil, apperror.InvalidCredentials()
		}

		hash, err := s.passwords.Hash(*req.Password)
		if err != nil {
			return nil, apperror.Crypto(err)
		}
		update.PasswordHash = &hash
	}

	updated, err := s.accounts.Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("service/account: updating account %s: %w", id, err)
	}

	s.logger.Info("account updated",
		slog.String("accountID", id),
		slog.Bool("passwordChanged", update.PasswordHash != nil),
	)

	return updated, nil
}

// Delete removes an account and returns the removed record. Deletion is
// terminal — there is no soft-delete or undo.
func (s *AccountService) Delete(ctx context.Context, id string) (*model.Account, error) {
	account, err := s.accounts.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/account: deleting account %s: %w", id, err)
	}

	s.logger.Info("account deleted", slog.String("accountID", id))

	return account, nil
}

// Get returns the account for the given ID.
func (s *AccountService) Get(ctx context.Context, id string) (*model.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/account: fetching account %s: %w", id, err)
	}
	return account, nil
}

// List returns all accounts. Order is persistence-defined.
func (s *AccountService) List(ctx context.Context) ([]model.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/account: listing accounts: %w", err)
	}
	return accounts, nil
}
