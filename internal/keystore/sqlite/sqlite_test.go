package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/postgen/internal/keystore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGet_MissingKey(t *testing.T) {
	s := newTestStore(t)

	v, ok, err := s.Get(context.Background(), keystore.SessionKey)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSetGetDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, keystore.SessionKey, "user-1"))
	v, ok, err := s.Get(ctx, keystore.SessionKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "user-1", v)

	// Set replaces.
	require.NoError(t, s.Set(ctx, keystore.SessionKey, "user-2"))
	v, _, _ = s.Get(ctx, keystore.SessionKey)
	assert.Equal(t, "user-2", v)

	require.NoError(t, s.Delete(ctx, keystore.SessionKey))
	_, ok, err = s.Get(ctx, keystore.SessionKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete_AbsentKeyIsNotAnError(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Delete(context.Background(), "nope"))
}

func TestValueSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, keystore.SessionKey, "persisted-id"))
	require.NoError(t, s.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	v, ok, err := reopened.Get(ctx, keystore.SessionKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted-id", v)
}
