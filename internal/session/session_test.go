package session

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/postgen/internal/apperror"
	"github.com/sakif/postgen/internal/keystore"
	"github.com/sakif/postgen/internal/keystore/memory"
	"github.com/sakif/postgen/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeRemote records calls and answers from canned values.
type fakeRemote struct {
	calls int

	loginUser  model.User
	loginErr   error
	signupUser model.User
	signupErr  error
	deleteErr  error

	lastSignup  model.Registration
	deletedUser string
}

func (f *fakeRemote) Login(_ context.Context, creds model.Credentials) (model.User, error) {
	f.calls++
	if f.loginErr != nil {
		return model.User{}, f.loginErr
	}
	return f.loginUser, nil
}

func (f *fakeRemote) Signup(_ context.Context, reg model.Registration) (model.User, error) {
	f.calls++
	f.lastSignup = reg
	if f.signupErr != nil {
		return model.User{}, f.signupErr
	}
	return f.signupUser, nil
}

func (f *fakeRemote) DeleteUser(_ context.Context, id string) error {
	f.calls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedUser = id
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T, remote *fakeRemote) (*Store, *memory.Store) {
	t.Helper()
	kv := memory.New()
	s, err := Open(context.Background(), kv, remote, testLogger())
	require.NoError(t, err)
	return s, kv
}

func validForm() SignupForm {
	return SignupForm{
		Email:           "user@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Name:            "Ada",
		Username:        "ok_user.1",
	}
}

// =========================================================================
// OPEN
// =========================================================================

func TestOpen_RestoresPersistedSession(t *testing.T) {
	kv := memory.New()
	require.NoError(t, kv.Set(context.Background(), keystore.SessionKey, "u-restored"))

	s, err := Open(context.Background(), kv, &fakeRemote{}, testLogger())
	require.NoError(t, err)

	sess, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, "u-restored", sess.UserID)
	require.Len(t, s.Transitions(), 1)
	assert.Equal(t, ReasonRestored, s.Transitions()[0].Reason)
}

func TestOpen_NoPersistedSession(t *testing.T) {
	s, _ := newTestStore(t, &fakeRemote{})

	_, ok := s.Current()
	assert.False(t, ok)
	_, err := s.Require()
	assert.ErrorIs(t, err, apperror.ErrAuth)
}

// =========================================================================
// LOGIN
// =========================================================================

func TestLogin_Success(t *testing.T) {
	remote := &fakeRemote{loginUser: model.User{ID: "u1"}}
	s, kv := newTestStore(t, remote)

	sess, err := s.Login(context.Background(), "user@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)

	cur, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, sess, cur)

	stored, ok, _ := kv.Get(context.Background(), keystore.SessionKey)
	assert.True(t, ok)
	assert.Equal(t, "u1", stored)
}

func TestLogin_InvalidInputNeverCallsRemote(t *testing.T) {
	remote := &fakeRemote{}
	s, _ := newTestStore(t, remote)

	_, err := s.Login(context.Background(), "not-an-email", "secret1")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, 0, remote.calls)
}

func TestLogin_RejectedLeavesPreviousSession(t *testing.T) {
	remote := &fakeRemote{loginUser: model.User{ID: "u1"}}
	s, _ := newTestStore(t, remote)
	_, err := s.Login(context.Background(), "user@example.com", "secret1")
	require.NoError(t, err)

	remote.loginErr = apperror.AuthFailed("bad credentials")
	_, err = s.Login(context.Background(), "other@example.com", "wrong-pass")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrAuth)
	assert.Equal(t, "bad credentials", err.Error())

	cur, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, "u1", cur.UserID)
}

func TestLogin_TransportFailureIsAuthError(t *testing.T) {
	remote := &fakeRemote{loginErr: apperror.Transport("could not reach the service")}
	s, _ := newTestStore(t, remote)

	_, err := s.Login(context.Background(), "user@example.com", "secret1")
	assert.ErrorIs(t, err, apperror.ErrAuth)
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestLogin_PersistFailureDoesNotPublish(t *testing.T) {
	remote := &fakeRemote{loginUser: model.User{ID: "u1"}}
	s, kv := newTestStore(t, remote)
	kv.FailWrites = errors.New("disk full")

	_, err := s.Login(context.Background(), "user@example.com", "secret1")
	require.Error(t, err)
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestLogin_MissingUserID(t *testing.T) {
	s, _ := newTestStore(t, &fakeRemote{loginUser: model.User{}})

	_, err := s.Login(context.Background(), "user@example.com", "secret1")
	assert.ErrorIs(t, err, apperror.ErrAuth)
}

// =========================================================================
// SIGNUP
// =========================================================================

func TestSignup_BadUsernameRejectedLocally(t *testing.T) {
	remote := &fakeRemote{}
	s, _ := newTestStore(t, remote)

	form := validForm()
	form.Username = "bad username!"
	_, err := s.Signup(context.Background(), form)

	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, 0, remote.calls)
}

func TestSignup_ValidFormReachesNetwork(t *testing.T) {
	remote := &fakeRemote{signupUser: model.User{ID: "u-new"}}
	s, _ := newTestStore(t, remote)

	sess, err := s.Signup(context.Background(), validForm())
	require.NoError(t, err)

	assert.Equal(t, 1, remote.calls)
	assert.Equal(t, "ok_user.1", remote.lastSignup.Username)
	assert.Equal(t, "u-new", sess.UserID)
	last := s.Transitions()[len(s.Transitions())-1]
	assert.Equal(t, Created, last.Kind)
	assert.Equal(t, ReasonSignup, last.Reason)
}

func TestSignup_RemoteFailureIsAuthError(t *testing.T) {
	remote := &fakeRemote{signupErr: apperror.Conflict("user", "email")}
	s, _ := newTestStore(t, remote)

	_, err := s.Signup(context.Background(), validForm())
	assert.ErrorIs(t, err, apperror.ErrAuth)
	assert.Equal(t, "user with this email already exists", err.Error())
}

// =========================================================================
// LOGOUT / DELETE ACCOUNT
// =========================================================================

func TestLogout_ClearsImmediately(t *testing.T) {
	s, kv := newTestStore(t, &fakeRemote{loginUser: model.User{ID: "u1"}})
	_, err := s.Login(context.Background(), "user@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, s.Logout(context.Background()))

	_, ok := s.Current()
	assert.False(t, ok)
	_, stored, _ := kv.Get(context.Background(), keystore.SessionKey)
	assert.False(t, stored)

	kinds := []TransitionKind{}
	for _, tr := range s.Transitions() {
		kinds = append(kinds, tr.Kind)
	}
	assert.Equal(t, []TransitionKind{Created, Cleared}, kinds)
}

func TestLogout_PersistFailureStillClearsMemory(t *testing.T) {
	s, kv := newTestStore(t, &fakeRemote{loginUser: model.User{ID: "u1"}})
	_, err := s.Login(context.Background(), "user@example.com", "secret1")
	require.NoError(t, err)

	kv.FailWrites = errors.New("disk full")
	assert.Error(t, s.Logout(context.Background()))

	_, ok := s.Current()
	assert.False(t, ok)
}

func TestDeleteAccount_ClearsOnlyAfterRemoteSuccess(t *testing.T) {
	remote := &fakeRemote{loginUser: model.User{ID: "u1"}, deleteErr: apperror.Transport("offline")}
	s, _ := newTestStore(t, remote)
	_, err := s.Login(context.Background(), "user@example.com", "secret1")
	require.NoError(t, err)

	err = s.DeleteAccount(context.Background())
	assert.ErrorIs(t, err, apperror.ErrTransport)
	_, ok := s.Current()
	assert.True(t, ok, "session must survive a failed remote deletion")

	remote.deleteErr = nil
	require.NoError(t, s.DeleteAccount(context.Background()))
	assert.Equal(t, "u1", remote.deletedUser)
	_, ok = s.Current()
	assert.False(t, ok)
}

func TestDeleteAccount_RequiresSession(t *testing.T) {
	remote := &fakeRemote{}
	s, _ := newTestStore(t, remote)

	assert.ErrorIs(t, s.DeleteAccount(context.Background()), apperror.ErrAuth)
	assert.Equal(t, 0, remote.calls)
}

func TestInvalidate(t *testing.T) {
	s, _ := newTestStore(t, &fakeRemote{loginUser: model.User{ID: "u1"}})
	_, err := s.Login(context.Background(), "user@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, s.Invalidate(context.Background(), "u1", ReasonRejected))

	_, ok := s.Current()
	assert.False(t, ok)
	last := s.Transitions()[len(s.Transitions())-1]
	assert.Equal(t, ReasonRejected, last.Reason)
}

func TestInvalidate_OtherUserKeepsSession(t *testing.T) {
	s, _ := newTestStore(t, &fakeRemote{loginUser: model.User{ID: "u2"}})
	_, err := s.Login(context.Background(), "user@example.com", "secret1")
	require.NoError(t, err)

	// A rejection of an earlier user's request arrives late.
	require.NoError(t, s.Invalidate(context.Background(), "u1", ReasonRejected))

	sess, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "u2", sess.UserID)
}
