// Package service holds the stub service's business rules. Handlers parse
// HTTP and call in here; repositories do the storage.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/postgen/internal/apperror"
	"github.com/sakif/postgen/internal/auth"
	"github.com/sakif/postgen/internal/model"
	"github.com/sakif/postgen/internal/repository"
	"github.com/sakif/postgen/internal/validate"
)

// AccountService implements signup, login and profile management.
type AccountService struct {
	accounts  repository.AccountRepository
	passwords *auth.Passwords
	logger    *slog.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(accounts repository.AccountRepository, passwords *auth.Passwords, logger *slog.Logger) *AccountService {
	return &AccountService{
		accounts:  accounts,
		passwords: passwords,
		logger:    logger,
	}
}

// Signup creates an account. Duplicate email or username is a conflict.
func (s *AccountService) Signup(ctx context.Context, reg model.Registration) (*model.User, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Username = strings.TrimSpace(reg.Username)

	if reg.Email == "" || reg.Password == "" || reg.Name == "" || reg.Username == "" {
		return nil, apperror.ValidationFailed("", "email, password, name and username are required")
	}
	if err := validate.Signup(reg.Email, reg.Name, reg.Username, reg.Password, reg.Password); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("service/account: hashing password: %w", err)
	}

	a := &repository.Account{
		User: model.User{
			Email:    reg.Email,
			Name:     reg.Name,
			Username: reg.Username,
		},
		PasswordHash: hash,
	}
	if err := s.accounts.CreateAccount(ctx, a); err != nil {
		return nil, fmt.Errorf("service/account: creating account: %w", err)
	}

	s.logger.Info("account created",
		slog.String("userID", a.ID),
		slog.String("username", a.Username),
	)
	return &a.User, nil
}

// UserExists reports whether id names an account.
func (s *AccountService) UserExists(ctx context.Context, id string) (bool, error) {
	_, err := s.accounts.GetAccount(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("service/account: looking up %s: %w", id, err)
	}
	return true, nil
}

// Login checks credentials. Unknown email and wrong password look the same
// to the caller.
func (s *AccountService) Login(ctx context.Context, creds model.Credentials) (*model.User, error) {
	invalid := apperror.AuthFailed("Invalid email or password")

	a, err := s.accounts.GetAccountByEmail(ctx, creds.Email)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("service/account: looking up account: %w", err)
	}

	if err := s.passwords.Verify(a.PasswordHash, creds.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login rejected", slog.String("userID", a.ID))
			return nil, invalid
		}
		return nil, fmt.Errorf("service/account: verifying password: %w", err)
	}
	return &a.User, nil
}

// owned loads account id on behalf of callerID, who may only act on
// themselves.
func (s *AccountService) owned(ctx context.Context, callerID, id string) (*repository.Account, error) {
	if callerID != id {
		return nil, apperror.Forbidden("You can only access your own account")
	}
	return s.accounts.GetAccount(ctx, id)
}

// GetUser returns the caller's profile.
func (s *AccountService) GetUser(ctx context.Context, callerID, id string) (*model.User, error) {
	a, err := s.owned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	return &a.User, nil
}

// UpdateUser applies the non-nil fields of u.
func (s *AccountService) UpdateUser(ctx context.Context, callerID, id string, u model.UserUpdate) (*model.User, error) {
	a, err := s.owned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if u.Email != nil {
		email := strings.TrimSpace(*u.Email)
		if err := validate.Email(email); err != nil {
			return nil, err
		}
		a.Email = email
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "Name cannot be empty.")
		}
		if err := validate.Name(name); err != nil {
			return nil, err
		}
		a.Name = name
	}
	if u.Username != nil {
		username := strings.TrimSpace(*u.Username)
		if err := validate.Username(username); err != nil {
			return nil, err
		}
		a.Username = username
	}
	if u.Password != nil {
		if err := validate.Password(*u.Password); err != nil {
			return nil, err
		}
		hash, err := s.passwords.Hash(*u.Password)
		if err != nil {
			return nil, fmt.Errorf("service/account: hashing password: %w", err)
		}
		a.PasswordHash = hash
	}

	if err := s.accounts.UpdateAccount(ctx, a); err != nil {
		return nil, fmt.Errorf("service/account: updating account %s: %w", id, err)
	}
	s.logger.Info("account updated", slog.String("userID", id))
	return &a.User, nil
}

// DeleteUser removes the caller's account and posts.
func (s *AccountService) DeleteUser(ctx context.Context, callerID, id string) error {
	if _, err := s.owned(ctx, callerID, id); err != nil {
		return err
	}
	if err := s.accounts.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("service/account: deleting account %s: %w", id, err)
	}
	s.logger.Info("account deleted", slog.String("userID", id))
	return nil
}

// VerifyPassword reports whether current is the caller's password.
func (s *AccountService) VerifyPassword(ctx context.Context, callerID, id, current string) (bool, error) {
	a, err := s.owned(ctx, callerID, id)
	if err != nil {
		return false, err
	}
	err = s.passwords.Verify(a.PasswordHash, current)
	if errors.Is(err, auth.ErrPasswordMismatch) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("service/account: verifying password: %w", err)
	}
	return true, nil
}
