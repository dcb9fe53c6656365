// Package session owns the single source of truth for "is a user signed in
// on this device".
//
// SINGLE WRITER, CHEAP READERS:
// Store is the only component that writes the persisted session id. Writes
// (Login, Signup, Logout, DeleteAccount, Invalidate) are serialized by
// writeMu, so at most one of them is in flight at a time. Current() reads an
// in-memory copy that is updated only after the durable write succeeded, so
// once a write call has returned every reader sees its effect.
//
// Every transition is appended to an audit trail (Transitions) so callers
// and tests can see exactly when a session was created or cleared and why.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sakif/postgen/internal/apperror"
	"github.com/sakif/postgen/internal/keystore"
	"github.com/sakif/postgen/internal/model"
	"github.com/sakif/postgen/internal/validate"
)

// Remote is the part of the service API the session layer needs.
type Remote interface {
	Login(ctx context.Context, creds model.Credentials) (model.User, error)
	Signup(ctx context.Context, reg model.Registration) (model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// TransitionKind names a session lifecycle event.
type TransitionKind string

const (
	Created TransitionKind = "created"
	Cleared TransitionKind = "cleared"
)

// Reasons recorded in the audit trail.
const (
	ReasonLogin          = "login"
	ReasonSignup         = "signup"
	ReasonRestored       = "restored"
	ReasonLogout         = "logout"
	ReasonAccountDeleted = "account deleted"
	ReasonRejected       = "rejected by service"
)

// Transition is one entry of the audit trail.
type Transition struct {
	Kind   TransitionKind
	UserID string
	Reason string
	At     time.Time
}

// SignupForm is what the signup screen collects.
type SignupForm struct {
	Email           string
	Password        string
	ConfirmPassword string
	Name            string
	Username        string
}

// Store manages the persisted session.
type Store struct {
	kv     keystore.Store
	remote Remote
	logger *slog.Logger

	writeMu sync.Mutex

	mu      sync.RWMutex
	current model.Session
	audit   []Transition

	now func() time.Time
}

// Open loads the persisted session, if any.
func Open(ctx context.Context, kv keystore.Store, remote Remote, logger *slog.Logger) (*Store, error) {
	s := &Store{
		kv:     kv,
		remote: remote,
		logger: logger,
		now:    time.Now,
	}

	uid, ok, err := kv.Get(ctx, keystore.SessionKey)
	if err != nil {
		return nil, fmt.Errorf("session: reading persisted session: %w", err)
	}
	if ok && uid != "" {
		s.current = model.Session{UserID: uid}
		s.record(Created, uid, ReasonRestored)
		logger.Debug("session restored", slog.String("userID", uid))
	}
	return s, nil
}

// Current returns the session, or false when nobody is signed in.
func (s *Store) Current() (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current.Valid()
}

// Require returns the session or an AuthError when nobody is signed in.
func (s *Store) Require() (model.Session, error) {
	sess, ok := s.Current()
	if !ok {
		return model.Session{}, apperror.AuthFailed("You are not signed in.")
	}
	return sess, nil
}

// Transitions returns a copy of the audit trail, oldest first.
func (s *Store) Transitions() []Transition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Transition(nil), s.audit...)
}

// Login signs in with email and password.
//
// Local checks run first and never touch the network. A rejected or failed
// login returns an AuthError and leaves any previous session untouched.
func (s *Store) Login(ctx context.Context, email, password string) (model.Session, error) {
	email = strings.TrimSpace(email)
	if err := validate.Login(email, password); err != nil {
		return model.Session{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	user, err := s.remote.Login(ctx, model.Credentials{Email: email, Password: password})
	if err != nil {
		s.logger.Info("login rejected",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return model.Session{}, apperror.AuthFailed(apperror.Message(err, "Login failed. Please try again."))
	}

	return s.establish(ctx, user, ReasonLogin)
}

// Signup registers a new account and signs it in. Any validation failure is
// reported before the network is touched.
func (s *Store) Signup(ctx context.Context, form SignupForm) (model.Session, error) {
	form.Email = strings.TrimSpace(form.Email)
	form.Name = strings.TrimSpace(form.Name)
	form.Username = strings.TrimSpace(form.Username)

	if err := validate.Signup(form.Email, form.Name, form.Username, form.Password, form.ConfirmPassword); err != nil {
		return model.Session{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	user, err := s.remote.Signup(ctx, model.Registration{
		Email:    form.Email,
		Password: form.Password,
		Name:     form.Name,
		Username: form.Username,
	})
	if err != nil {
		s.logger.Info("signup rejected",
			slog.String("username", form.Username),
			slog.String("error", err.Error()),
		)
		return model.Session{}, apperror.AuthFailed(apperror.Message(err, "Signup failed. Please try again."))
	}

	return s.establish(ctx, user, ReasonSignup)
}

// establish persists the user's id and only then publishes it.
// Caller holds writeMu.
func (s *Store) establish(ctx context.Context, user model.User, reason string) (model.Session, error) {
	if user.ID == "" {
		return model.Session{}, apperror.AuthFailed("The service did not return a user id.")
	}

	if err := s.kv.Set(ctx, keystore.SessionKey, user.ID); err != nil {
		return model.Session{}, fmt.Errorf("session: persisting session: %w", err)
	}

	sess := model.Session{UserID: user.ID}
	s.mu.Lock()
	s.current = sess
	s.record(Created, user.ID, reason)
	s.mu.Unlock()

	s.logger.Info("session created",
		slog.String("userID", user.ID),
		slog.String("reason", reason),
	)
	return sess, nil
}

// Logout clears the session. The in-memory copy is cleared even when the
// durable delete fails, so Current reports no session as soon as Logout
// returns; the error is still reported so the caller can retry the delete.
func (s *Store) Logout(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.clear(ctx, ReasonLogout)
}

// Invalidate clears the session after the service reported it invalid.
// userID is the session the service rejected; if a different user has
// signed in since, the call does nothing.
func (s *Store) Invalidate(ctx context.Context, userID, reason string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if sess, ok := s.Current(); !ok || sess.UserID != userID {
		return nil
	}
	return s.clear(ctx, reason)
}

// DeleteAccount deletes the remote account, then clears the session. If the
// remote deletion fails the session stays, so the user is never signed out
// of an account that still exists.
func (s *Store) DeleteAccount(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	sess, ok := s.Current()
	if !ok {
		return apperror.AuthFailed("You are not signed in.")
	}

	if err := s.remote.DeleteUser(ctx, sess.UserID); err != nil {
		s.logger.Error("account deletion failed",
			slog.String("userID", sess.UserID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("session: deleting account: %w", err)
	}

	return s.clear(ctx, ReasonAccountDeleted)
}

// clear drops the session. Caller holds writeMu.
func (s *Store) clear(ctx context.Context, reason string) error {
	s.mu.Lock()
	prev := s.current
	s.current = model.Session{}
	if prev.Valid() {
		s.record(Cleared, prev.UserID, reason)
	}
	s.mu.Unlock()

	if err := s.kv.Delete(ctx, keystore.SessionKey); err != nil {
		return fmt.Errorf("session: clearing persisted session: %w", err)
	}

	if prev.Valid() {
		s.logger.Info("session cleared",
			slog.String("userID", prev.UserID),
			slog.String("reason", reason),
		)
	}
	return nil
}

// record appends to the audit trail. Caller holds mu (or is Open).
func (s *Store) record(kind TransitionKind, userID, reason string) {
	s.audit = append(s.audit, Transition{
		Kind:   kind,
		UserID: userID,
		Reason: reason,
		At:     s.now(),
	})
}
