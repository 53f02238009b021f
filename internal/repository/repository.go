package repository

import (
	"context"

	"github.com/sakif/account-service/internal/model"
)

// AccountUpdate is a partial update. Nil fields are left unchanged, so a
// caller can change the email without touching the username or the password
// hash. This mirrors a document-store $set: only present fields are written.
type AccountUpdate struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// IsEmpty reports whether the update would change nothing.
func (u AccountUpdate) IsEmpty() bool {
	return u.Username == nil && u.Email == nil && u.PasswordHash == nil
}

// AccountRepository is the persistence boundary for accounts.
//
// The service layer programs against this interface, never against a
// concrete store — the sqlite implementation lives in repository/sqlite and
// tests use in-memory fakes. Every call takes a context so a caller-supplied
// deadline aborts at the next I/O point.
//
// Implementations return apperror.ErrNotFound when a row is absent and
// apperror.ErrDuplicate when a write would violate email uniqueness; any
// other failure is wrapped as apperror.ErrStore.
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	List(ctx context.Context) ([]model.Account, error)
	Update(ctx context.Context, id string, update AccountUpdate) (*model.Account, error)
	Delete(ctx context.Context, id string) (*model.Account, error)
}
