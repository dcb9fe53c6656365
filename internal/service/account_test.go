package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/postgen/internal/apperror"
	"github.com/sakif/postgen/internal/auth"
	"github.com/sakif/postgen/internal/model"
)

func newAccountService(t *testing.T) (*AccountService, *mockAccounts) {
	t.Helper()
	repo := newMockAccounts()
	return NewAccountService(repo, auth.NewPasswordsWithCost(4), discardLogger()), repo
}

func signupAda(t *testing.T, svc *AccountService) *model.User {
	t.Helper()
	u, err := svc.Signup(context.Background(), model.Registration{
		Email:    "ada@example.com",
		Password: "secret1",
		Name:     "Ada Lovelace",
		Username: "ada",
	})
	require.NoError(t, err)
	return u
}

func TestSignup(t *testing.T) {
	svc, repo := newAccountService(t)

	u := signupAda(t, svc)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada", u.Username)

	stored, err := repo.GetAccount(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
}

func TestSignup_Validation(t *testing.T) {
	svc, _ := newAccountService(t)

	tests := []struct {
		name string
		reg  model.Registration
	}{
		{"missing fields", model.Registration{Email: "ada@example.com"}},
		{"bad email", model.Registration{Email: "ada", Password: "secret1", Name: "Ada", Username: "ada"}},
		{"bad username", model.Registration{Email: "ada@example.com", Password: "secret1", Name: "Ada", Username: "a da"}},
		{"short password", model.Registration{Email: "ada@example.com", Password: "abc", Name: "Ada", Username: "ada"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tt.reg)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestSignup_Duplicate(t *testing.T) {
	svc, _ := newAccountService(t)
	signupAda(t, svc)

	_, err := svc.Signup(context.Background(), model.Registration{
		Email:    "ADA@example.com",
		Password: "secret1",
		Name:     "Other",
		Username: "other",
	})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestLogin(t *testing.T) {
	svc, _ := newAccountService(t)
	ada := signupAda(t, svc)
	ctx := context.Background()

	u, err := svc.Login(ctx, model.Credentials{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, ada.ID, u.ID)

	_, err = svc.Login(ctx, model.Credentials{Email: "ada@example.com", Password: "wrong-one"})
	assert.ErrorIs(t, err, apperror.ErrAuth)

	_, err = svc.Login(ctx, model.Credentials{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperror.ErrAuth)
}

func TestGetUser_OnlySelf(t *testing.T) {
	svc, _ := newAccountService(t)
	ada := signupAda(t, svc)
	ctx := context.Background()

	u, err := svc.GetUser(ctx, ada.ID, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, ada.Email, u.Email)

	_, err = svc.GetUser(ctx, "someone-else", ada.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestUpdateUser(t *testing.T) {
	svc, _ := newAccountService(t)
	ada := signupAda(t, svc)
	ctx := context.Background()

	name := "Ada King"
	password := "newpass1"
	u, err := svc.UpdateUser(ctx, ada.ID, ada.ID, model.UserUpdate{Name: &name, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "Ada King", u.Name)
	assert.Equal(t, "ada", u.Username)

	ok, err := svc.VerifyPassword(ctx, ada.ID, ada.ID, "newpass1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyPassword(ctx, ada.ID, ada.ID, "secret1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateUser_Invalid(t *testing.T) {
	svc, _ := newAccountService(t)
	ada := signupAda(t, svc)

	bad := "not-an-email"
	_, err := svc.UpdateUser(context.Background(), ada.ID, ada.ID, model.UserUpdate{Email: &bad})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestDeleteUser(t *testing.T) {
	svc, _ := newAccountService(t)
	ada := signupAda(t, svc)
	ctx := context.Background()

	assert.ErrorIs(t, svc.DeleteUser(ctx, "u99", ada.ID), apperror.ErrForbidden)
	require.NoError(t, svc.DeleteUser(ctx, ada.ID, ada.ID))

	_, err := svc.GetUser(ctx, ada.ID, ada.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUserExists(t *testing.T) {
	svc, _ := newAccountService(t)
	ada := signupAda(t, svc)
	ctx := context.Background()

	ok, err := svc.UserExists(ctx, ada.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.DeleteUser(ctx, ada.ID, ada.ID))
	ok, err = svc.UserExists(ctx, ada.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
