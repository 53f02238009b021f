package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/account-service/internal/apperror"
	"github.com/sakif/account-service/internal/model"
	"github.com/sakif/account-service/internal/repository"
)

// compile-time check that *DB implements repository.AccountRepository
var _ repository.AccountRepository = (*DB)(nil)

// isUniqueViolation reports whether err is SQLite's UNIQUE constraint error
// on the accounts.email column. The driver exposes this as a formatted
// message rather than a typed error, so we match on the constraint name.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: accounts.email")
}

// Create inserts a new account. The ID and timestamps are assigned here —
// callers pass username, email, and password hash, and get the rest filled
// in on the same struct.
//
// A duplicate email surfaces as apperror.ErrDuplicate. This is the atomic
// backstop for the check-then-insert window: the service's own existence
// check and this insert are separate statements, so two concurrent signups
// can both pass the check — the constraint decides which one wins.
func (db *DB) Create(ctx context.Context, account *model.Account) error {
	now := time.Now().UTC()
	account.ID = xid.New().String()
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO accounts (id, username, email, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Duplicate("account", "email")
		}
		return apperror.Store(fmt.Errorf("sqlite: inserting account: %w", err))
	}

	return nil
}

// GetByID retrieves an account by its internal ID.
// Returns apperror.ErrNotFound if no account exists with that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return db.getOne(ctx, `WHERE id = ?`, id)
}

// GetByEmail retrieves an account by email.
// Returns apperror.ErrNotFound if no account exists with that email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return db.getOne(ctx, `WHERE email = ?`, email)
}

func (db *DB) getOne(ctx context.Context, where string, arg any) (*model.Account, error) {
	var a model.Account

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at, updated_at
		 FROM accounts `+where,
		arg,
	).Scan(
		&a.ID,
		&a.Username,
		&a.Email,
		&a.PasswordHash,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("account", fmt.Sprint(arg))
		}
		return nil, apperror.Store(fmt.Errorf("sqlite: getting account: %w", err))
	}

	return &a, nil
}

// List returns all accounts. Order is whatever the store yields — callers
// must not rely on it being sorted.
func (db *DB) List(ctx context.Context) ([]model.Account, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, username, email, password_hash, created_at, updated_at FROM accounts`,
	)
	if err != nil {
		return nil, apperror.Store(fmt.Errorf("sqlite: listing accounts: %w", err))
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, apperror.Store(fmt.Errorf("sqlite: scanning account: %w", err))
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Store(fmt.Errorf("sqlite: iterating accounts: %w", err))
	}

	return accounts, nil
}

// Update applies a partial update and returns the post-update snapshot.
// Fields that are nil in the update are left untouched.
//
// The SET clause is built dynamically from the present fields. Column names
// are fixed strings from this function — only values travel as placeholders.
func (db *DB) Update(ctx context.Context, id string, update repository.AccountUpdate) (*model.Account, error) {
	if update.IsEmpty() {
		// Nothing to write — return the current snapshot.
		return db.GetByID(ctx, id)
	}

	set := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if update.Username != nil {
		set = append(set, "username = ?")
		args = append(args, *update.Username)
	}
	if update.Email != nil {
		set = append(set, "email = ?")
		args = append(args, *update.Email)
	}
	if update.PasswordHash != nil {
		set = append(set, "password_hash = ?")
		args = append(args, *update.PasswordHash)
	}
	args = append(args, id)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE accounts SET `+strings.Join(set, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Duplicate("account", "email")
		}
		return nil, apperror.Store(fmt.Errorf("sqlite: updating account %s: %w", id, err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, apperror.Store(fmt.Errorf("sqlite: updating account %s: %w", id, err))
	}
	if affected == 0 {
		return nil, apperror.NotFound("account", id)
	}

	return db.GetByID(ctx, id)
}

// Delete removes an account and returns the removed record, or
// apperror.ErrNotFound if it doesn't exist. Deletion is terminal — there is
// no soft-delete.
func (db *DB) Delete(ctx context.Context, id string) (*model.Account, error) {
	account, err := db.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := db.conn.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
		return nil, apperror.Store(fmt.Errorf("sqlite: deleting account %s: %w", id, err))
	}

	return account, nil
}
