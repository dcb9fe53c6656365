// Package profile reads and edits the signed-in user's account.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/postgen/internal/apperror"
	"github.com/sakif/postgen/internal/model"
	"github.com/sakif/postgen/internal/session"
	"github.com/sakif/postgen/internal/validate"
)

// Messages shown for profile failures.
const (
	MsgUpdateFailed = "Could not update profile."
	MsgDeleteFailed = "Could not delete account."
)

// Remote is the part of the service API the profile needs.
type Remote interface {
	GetUser(ctx context.Context, id string) (model.User, error)
	UpdateUser(ctx context.Context, id string, update model.UserUpdate) (model.User, error)
	VerifyPassword(ctx context.Context, id, currentPassword string) (bool, error)
}

// Sessions is the part of session.Store the profile needs.
type Sessions interface {
	Current() (model.Session, bool)
	DeleteAccount(ctx context.Context) error
	Invalidate(ctx context.Context, userID, reason string) error
}

// Edit is what the profile form submits. Email, Name and Username hold the
// full desired values; NewPassword is empty when the password is unchanged.
type Edit struct {
	Email           string
	Name            string
	Username        string
	NewPassword     string
	CurrentPassword string
}

// Service implements the profile operations.
type Service struct {
	remote   Remote
	sessions Sessions
	logger   *slog.Logger
}

// NewService creates a profile Service.
func NewService(remote Remote, sessions Sessions, logger *slog.Logger) *Service {
	return &Service{remote: remote, sessions: sessions, logger: logger}
}

func (s *Service) userID() (string, error) {
	sess, ok := s.sessions.Current()
	if !ok {
		return "", apperror.AuthFailed("You are not signed in.")
	}
	return sess.UserID, nil
}

// observe signs uid out when err says the service rejected its session.
func (s *Service) observe(ctx context.Context, uid string, err error) {
	if !errors.Is(err, apperror.ErrAuth) {
		return
	}
	s.logger.Warn("service rejected session", slog.String("userID", uid))
	if ierr := s.sessions.Invalidate(ctx, uid, session.ReasonRejected); ierr != nil {
		s.logger.Error("clearing rejected session failed",
			slog.String("userID", uid),
			slog.String("error", ierr.Error()),
		)
	}
}

// Load fetches the signed-in user's profile.
func (s *Service) Load(ctx context.Context) (model.User, error) {
	uid, err := s.userID()
	if err != nil {
		return model.User{}, err
	}
	user, err := s.remote.GetUser(ctx, uid)
	if err != nil {
		s.observe(ctx, uid, err)
		return model.User{}, fmt.Errorf("profile: loading user %s: %w", uid, err)
	}
	if user.ID == "" {
		user.ID = uid
	}
	return user, nil
}

// Update sends the fields of edit that differ from original.
//
// Email, name and username may not be blank. Changed fields are checked with
// the signup rules. A new password needs the current one, which is verified
// with the service before anything is written. When nothing changed the
// original is returned without a request.
func (s *Service) Update(ctx context.Context, original model.User, edit Edit) (model.User, error) {
	uid, err := s.userID()
	if err != nil {
		return model.User{}, err
	}

	edit.Email = strings.TrimSpace(edit.Email)
	edit.Name = strings.TrimSpace(edit.Name)
	edit.Username = strings.TrimSpace(edit.Username)
	if edit.Email == "" || edit.Name == "" || edit.Username == "" {
		return model.User{}, apperror.ValidationFailed("", "Please fill in all required fields.")
	}

	update, err := changes(original, edit)
	if err != nil {
		return model.User{}, err
	}

	if update.Password != nil {
		if edit.CurrentPassword == "" {
			return model.User{}, apperror.ValidationFailed("currentPassword", "Please enter your current password.")
		}
		valid, err := s.remote.VerifyPassword(ctx, uid, edit.CurrentPassword)
		if err != nil {
			s.observe(ctx, uid, err)
			return model.User{}, fmt.Errorf("profile: verifying password: %w", err)
		}
		if !valid {
			return model.User{}, apperror.AuthFailed("Current password is incorrect.")
		}
	}

	if update.Empty() {
		return original, nil
	}

	updated, err := s.remote.UpdateUser(ctx, uid, update)
	if err != nil {
		s.observe(ctx, uid, err)
		s.logger.Warn("profile update failed",
			slog.String("userID", uid),
			slog.String("error", err.Error()),
		)
		return model.User{}, fmt.Errorf("profile: updating user %s: %w", uid, err)
	}
	if updated.ID == "" {
		updated = apply(original, update)
		updated.ID = uid
	}

	s.logger.Info("profile updated", slog.String("userID", uid))
	return updated, nil
}

// DeleteAccount deletes the account and signs out.
func (s *Service) DeleteAccount(ctx context.Context) error {
	return s.sessions.DeleteAccount(ctx)
}

// changes builds the partial update and validates each changed field.
func changes(original model.User, edit Edit) (model.UserUpdate, error) {
	var u model.UserUpdate
	if edit.Email != original.Email {
		if err := validate.Email(edit.Email); err != nil {
			return u, err
		}
		u.Email = &edit.Email
	}
	if edit.Name != original.Name {
		if err := validate.Name(edit.Name); err != nil {
			return u, err
		}
		u.Name = &edit.Name
	}
	if edit.Username != original.Username {
		if err := validate.Username(edit.Username); err != nil {
			return u, err
		}
		u.Username = &edit.Username
	}
	if edit.NewPassword != "" {
		if err := validate.Password(edit.NewPassword); err != nil {
			return u, err
		}
		u.Password = &edit.NewPassword
	}
	return u, nil
}

func apply(user model.User, u model.UserUpdate) model.User {
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Username != nil {
		user.Username = *u.Username
	}
	return user
}
