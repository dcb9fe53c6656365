package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/postgen/internal/apperror"
	"github.com/sakif/postgen/internal/composer"
	"github.com/sakif/postgen/internal/model"
	"github.com/sakif/postgen/internal/repository"
	"github.com/sakif/postgen/internal/validate"
)

// PostService generates posts and manages the stored history.
type PostService struct {
	posts    repository.PostRepository
	composer composer.Composer
	logger   *slog.Logger
}

// NewPostService creates a PostService.
func NewPostService(posts repository.PostRepository, c composer.Composer, logger *slog.Logger) *PostService {
	return &PostService{
		posts:    posts,
		composer: c,
		logger:   logger,
	}
}

// GenerateInput is the decoded body of POST /api/generate. Platforms stay
// raw strings so aliases like "x (twitter)" are accepted.
type GenerateInput struct {
	Prompt    string   `json:"prompt"`
	Platforms []string `json:"platforms"`
}

// Generate composes content for the requested platforms and stores the
// post. Platforms the composer could not cover are simply absent.
func (s *PostService) Generate(ctx context.Context, ownerID string, in GenerateInput) (model.GenerationResult, error) {
	if err := validate.Prompt(in.Prompt); err != nil {
		return nil, err
	}
	platforms, dropped := model.NormalizePlatforms(in.Platforms)
	if len(dropped) > 0 {
		return nil, apperror.ValidationFailed("platforms", fmt.Sprintf("unsupported platform %q", dropped[0]))
	}
	if len(platforms) == 0 {
		return nil, apperror.ValidationFailed("platforms", "at least one platform is required")
	}

	result, err := s.composer.Compose(ctx, composer.Request{Prompt: in.Prompt, Platforms: platforms})
	if err != nil {
		s.logger.Error("composing failed",
			slog.String("userID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.GenerationFailed("Failed to generate content")
	}

	p := &repository.OwnedPost{
		OwnerID: ownerID,
		Post: model.Post{
			Prompt:    in.Prompt,
			Platforms: platforms,
			Content:   result,
		},
	}
	if err := s.posts.CreatePost(ctx, p); err != nil {
		return nil, fmt.Errorf("service/post: saving post: %w", err)
	}

	s.logger.Info("post generated",
		slog.String("userID", ownerID),
		slog.String("postID", p.ID),
		slog.Int("requested", len(platforms)),
		slog.Int("covered", len(result)),
	)
	return result, nil
}

// List returns the owner's posts in insertion order.
func (s *PostService) List(ctx context.Context, ownerID string) ([]model.Post, error) {
	posts, err := s.posts.ListPosts(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service/post: listing posts: %w", err)
	}
	return posts, nil
}

// Get returns one of the owner's posts.
func (s *PostService) Get(ctx context.Context, ownerID, id string) (*model.Post, error) {
	p, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return &p.Post, nil
}

// Delete removes one of the owner's posts.
func (s *PostService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.posts.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("service/post: deleting post %s: %w", id, err)
	}
	s.logger.Info("post deleted",
		slog.String("userID", ownerID),
		slog.String("postID", id),
	)
	return nil
}

func (s *PostService) owned(ctx context.Context, ownerID, id string) (*repository.OwnedPost, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "post ID is required")
	}
	p, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != ownerID {
		return nil, apperror.Forbidden("You can only access your own posts")
	}
	return p, nil
}
