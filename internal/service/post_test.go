package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/postgen/internal/apperror"
	"github.com/sakif/postgen/internal/model"
)

func newPostService(t *testing.T) (*PostService, *mockPosts, *stubComposer) {
	t.Helper()
	repo := &mockPosts{}
	c := &stubComposer{}
	return NewPostService(repo, c, discardLogger()), repo, c
}

func TestGenerate(t *testing.T) {
	svc, repo, c := newPostService(t)

	result, err := svc.Generate(context.Background(), "u1", GenerateInput{
		Prompt:    "Spring launch",
		Platforms: []string{"x (twitter)", "linkedin", "x"},
	})
	require.NoError(t, err)

	require.Len(t, c.calls, 1)
	assert.Equal(t, []model.Platform{model.PlatformX, model.PlatformLinkedIn}, c.calls[0].Platforms)
	assert.Len(t, result, 2)

	require.Len(t, repo.posts, 1)
	stored := repo.posts[0]
	assert.Equal(t, "u1", stored.OwnerID)
	assert.Equal(t, "Spring launch", stored.Prompt)
	assert.Equal(t, result, stored.Content)
}

func TestGenerate_PartialCoverage(t *testing.T) {
	svc, repo, c := newPostService(t)
	c.skip = model.PlatformFacebook

	result, err := svc.Generate(context.Background(), "u1", GenerateInput{
		Prompt:    "Hello",
		Platforms: []string{"x", "facebook"},
	})
	require.NoError(t, err)
	assert.NotContains(t, result, model.PlatformFacebook)
	// The post still records what was asked for.
	assert.Equal(t, []model.Platform{model.PlatformX, model.PlatformFacebook}, repo.posts[0].Platforms)
}

func TestGenerate_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   GenerateInput
	}{
		{"blank prompt", GenerateInput{Prompt: "  ", Platforms: []string{"x"}}},
		{"no platforms", GenerateInput{Prompt: "hi"}},
		{"unknown platform", GenerateInput{Prompt: "hi", Platforms: []string{"myspace"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, c := newPostService(t)
			_, err := svc.Generate(context.Background(), "u1", tt.in)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Empty(t, c.calls)
			assert.Empty(t, repo.posts)
		})
	}
}

func TestGenerate_ComposerFailure(t *testing.T) {
	svc, repo, c := newPostService(t)
	c.err = errors.New("boom")

	_, err := svc.Generate(context.Background(), "u1", GenerateInput{Prompt: "hi", Platforms: []string{"x"}})
	assert.ErrorIs(t, err, apperror.ErrGeneration)
	assert.Empty(t, repo.posts)
}

func TestPosts_Ownership(t *testing.T) {
	svc, _, _ := newPostService(t)
	ctx := context.Background()

	_, err := svc.Generate(ctx, "u1", GenerateInput{Prompt: "mine", Platforms: []string{"x"}})
	require.NoError(t, err)
	_, err = svc.Generate(ctx, "u2", GenerateInput{Prompt: "theirs", Platforms: []string{"x"}})
	require.NoError(t, err)

	posts, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	id := posts[0].ID

	p, err := svc.Get(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, "mine", p.Prompt)

	_, err = svc.Get(ctx, "u2", id)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, "u2", id), apperror.ErrForbidden)

	_, err = svc.Get(ctx, "u1", "does-not-exist")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, "u1", id))
	posts, err = svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, posts)
}
