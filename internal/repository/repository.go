// Package repository defines the stub service's storage contracts.
package repository

import (
	"context"
	"time"

	"github.com/sakif/postgen/internal/model"
)

// Account is a stored user: the public profile plus its credentials.
type Account struct {
	model.User
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnedPost is a stored post and the id of the user who generated it.
type OwnedPost struct {
	model.Post
	OwnerID string
}

// AccountRepository stores accounts. Email and username are unique;
// violating either is an apperror.ErrConflict.
type AccountRepository interface {
	CreateAccount(ctx context.Context, a *Account) error
	GetAccount(ctx context.Context, id string) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	UpdateAccount(ctx context.Context, a *Account) error
	// DeleteAccount removes the account and every post it owns.
	DeleteAccount(ctx context.Context, id string) error
}

// PostRepository stores posts.
type PostRepository interface {
	CreatePost(ctx context.Context, p *OwnedPost) error
	GetPost(ctx context.Context, id string) (*OwnedPost, error)
	// ListPosts returns the owner's posts in insertion order.
	ListPosts(ctx context.Context, ownerID string) ([]model.Post, error)
	DeletePost(ctx context.Context, id string) error
}
