package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/postgen/internal/apperror"
	"github.com/sakif/postgen/internal/repository"
)

var _ repository.AccountRepository = (*DB)(nil)

const accountColumns = `id, email, name, username, password_hash, created_at, updated_at`

// CreateAccount inserts a, filling in its ID and timestamps. Emails are
// stored lower-cased.
func (db *DB) CreateAccount(ctx context.Context, a *repository.Account) error {
	now := time.Now().UTC()
	a.ID = xid.New().String()
	a.Email = strings.ToLower(a.Email)
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.Name, a.Username, a.PasswordHash, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if col := uniqueViolation(err, "accounts"); col != "" {
			return apperror.Conflict("user", col)
		}
		return fmt.Errorf("sqlite: creating account: %w", err)
	}
	return nil
}

// GetAccount returns the account with id or apperror.ErrNotFound.
func (db *DB) GetAccount(ctx context.Context, id string) (*repository.Account, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting account %s: %w", id, err)
	}
	return a, nil
}

// GetAccountByEmail looks an account up case-insensitively.
func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*repository.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting account by email: %w", err)
	}
	return a, nil
}

// UpdateAccount writes every mutable column of a.
func (db *DB) UpdateAccount(ctx context.Context, a *repository.Account) error {
	a.Email = strings.ToLower(a.Email)
	a.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE accounts
		 SET email = ?, name = ?, username = ?, password_hash = ?, updated_at = ?
		 WHERE id = ?`,
		a.Email, a.Name, a.Username, a.PasswordHash, a.UpdatedAt, a.ID,
	)
	if err != nil {
		if col := uniqueViolation(err, "accounts"); col != "" {
			return apperror.Conflict("user", col)
		}
		return fmt.Errorf("sqlite: updating account %s: %w", a.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", a.ID)
	}
	return nil
}

// DeleteAccount removes the account; its posts go with it.
func (db *DB) DeleteAccount(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting account %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

func scanAccount(row *sql.Row) (*repository.Account, error) {
	var a repository.Account
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.Username, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
