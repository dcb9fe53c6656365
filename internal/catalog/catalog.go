// Package catalog keeps the signed-in user's post history.
//
// The service persists a post as a side effect of every successful
// generation; the catalog only reads and deletes. It caches the last list
// it fetched so a failed refresh never blanks what the user is looking at.
// The cache belongs to the user who fetched it and is dropped as soon as a
// different user, or nobody, is signed in.
//
// Lists and details are correlated with tokens the same way generations
// are: a response that arrives after a newer request of the same kind was
// started is dropped and the call returns apperror.ErrStale.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/sakif/postgen/internal/apperror"
	"github.com/sakif/postgen/internal/model"
	"github.com/sakif/postgen/internal/session"
)

// Remote is the part of the service API the catalog needs.
// *api.Client satisfies it.
type Remote interface {
	ListPosts(ctx context.Context, userID string) ([]model.Post, error)
	GetPost(ctx context.Context, userID, id string) (model.Post, error)
	DeletePost(ctx context.Context, userID, id string) error
}

// SessionSource reports the signed-in user and is told when the service
// rejects that user's session. *session.Store satisfies it.
type SessionSource interface {
	Current() (model.Session, bool)
	Invalidate(ctx context.Context, userID, reason string) error
}

// Catalog lists, opens and deletes posts.
type Catalog struct {
	remote   Remote
	sessions SessionSource
	logger   *slog.Logger

	mu sync.Mutex
	// owner is the user id the cached list and detail were fetched for.
	owner       string
	posts       []model.Post
	listToken   uint64
	detailToken uint64
	detail      model.Post
	hasDetail   bool
}

// New creates an empty Catalog.
func New(remote Remote, sessions SessionSource, logger *slog.Logger) *Catalog {
	return &Catalog{
		remote:   remote,
		sessions: sessions,
		logger:   logger,
	}
}

func (c *Catalog) userID() (string, error) {
	sess, ok := c.sessions.Current()
	if !ok {
		return "", apperror.AuthFailed("You are not signed in.")
	}
	return sess.UserID, nil
}

// claim drops whatever is cached for a user other than uid. c.mu is held.
func (c *Catalog) claim(uid string) {
	if c.owner == uid {
		return
	}
	if c.owner != "" {
		c.logger.Debug("dropping cache of previous user", slog.String("userID", c.owner))
	}
	c.owner = uid
	c.posts = nil
	c.detail = model.Post{}
	c.hasDetail = false
}

// rejected signs uid out after the service refused its session and drops
// uid's cache.
func (c *Catalog) rejected(ctx context.Context, uid string) {
	c.logger.Warn("service rejected session", slog.String("userID", uid))
	if err := c.sessions.Invalidate(ctx, uid, session.ReasonRejected); err != nil {
		c.logger.Error("clearing rejected session failed",
			slog.String("userID", uid),
			slog.String("error", err.Error()),
		)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owner == uid {
		c.listToken++
		c.detailToken++
		c.claim("")
	}
}

// signedIn reports whether uid is still the current session's user.
func (c *Catalog) signedIn(uid string) bool {
	sess, ok := c.sessions.Current()
	return ok && sess.UserID == uid
}

// ListPosts refreshes and returns the user's posts, newest first.
func (c *Catalog) ListPosts(ctx context.Context) ([]model.Post, error) {
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return c.Posts(), nil
}

// Refresh fetches the list and replaces the cache. On failure the cache is
// kept as it was, unless it belonged to another user.
func (c *Catalog) Refresh(ctx context.Context) error {
	uid, err := c.userID()
	if err != nil {
		c.Clear()
		return err
	}

	c.mu.Lock()
	c.claim(uid)
	c.listToken++
	token := c.listToken
	c.mu.Unlock()

	posts, err := c.remote.ListPosts(ctx, uid)
	if errors.Is(err, apperror.ErrAuth) {
		c.rejected(ctx, uid)
		return fmt.Errorf("catalog: listing posts: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.listToken != token || c.owner != uid || !c.signedIn(uid) {
		c.logger.Debug("discarding stale post list", slog.Uint64("token", token))
		return apperror.ErrStale
	}
	if err != nil {
		c.logger.Warn("refreshing posts failed",
			slog.String("userID", uid),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("catalog: listing posts: %w", err)
	}

	c.posts = newestFirst(posts)
	c.logger.Debug("posts refreshed", slog.Int("count", len(c.posts)))
	return nil
}

// Posts returns a copy of the cached list. It is empty when nobody is
// signed in.
func (c *Catalog) Posts() []model.Post {
	sess, ok := c.sessions.Current()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !ok {
		c.claim("")
		return nil
	}
	c.claim(sess.UserID)
	return slices.Clone(c.posts)
}

// Clear drops the cached list and detail and abandons pending requests.
func (c *Catalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listToken++
	c.detailToken++
	c.claim("")
}

// GetPost opens one post. Only the most recent GetPost is shown; an earlier
// one that completes later returns apperror.ErrStale.
func (c *Catalog) GetPost(ctx context.Context, id string) (model.Post, error) {
	uid, err := c.userID()
	if err != nil {
		c.Clear()
		return model.Post{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Post{}, apperror.ValidationFailed("id", "A post id is required.")
	}

	c.mu.Lock()
	c.claim(uid)
	c.detailToken++
	token := c.detailToken
	c.mu.Unlock()

	post, err := c.remote.GetPost(ctx, uid, id)
	if errors.Is(err, apperror.ErrAuth) {
		c.rejected(ctx, uid)
		return model.Post{}, fmt.Errorf("catalog: getting post %s: %w", id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.detailToken != token || c.owner != uid || !c.signedIn(uid) {
		c.logger.Debug("discarding stale post detail",
			slog.String("postID", id),
			slog.Uint64("token", token),
		)
		return model.Post{}, apperror.ErrStale
	}
	if err != nil {
		c.hasDetail = false
		c.detail = model.Post{}
		return model.Post{}, fmt.Errorf("catalog: getting post %s: %w", id, err)
	}

	if post.ID == "" {
		post.ID = id
	}
	c.detail = post
	c.hasDetail = true
	return post, nil
}

// Detail returns the post currently open, if any.
func (c *Catalog) Detail() (model.Post, bool) {
	sess, ok := c.sessions.Current()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !ok || sess.UserID != c.owner {
		return model.Post{}, false
	}
	return c.detail, c.hasDetail
}

// CloseDetail clears the open post and abandons a pending GetPost.
func (c *Catalog) CloseDetail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detailToken++
	c.detail = model.Post{}
	c.hasDetail = false
}

// DeletePost deletes a post remotely and then drops it from the cache.
// An unknown id is a NotFoundError; another user's post is a
// PermissionError.
func (c *Catalog) DeletePost(ctx context.Context, id string) error {
	uid, err := c.userID()
	if err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "A post id is required.")
	}

	if err := c.remote.DeletePost(ctx, uid, id); err != nil {
		if errors.Is(err, apperror.ErrAuth) {
			c.rejected(ctx, uid)
		}
		return fmt.Errorf("catalog: deleting post %s: %w", id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.claim(uid)
	c.posts = slices.DeleteFunc(c.posts, func(p model.Post) bool { return p.ID == id })
	if c.hasDetail && c.detail.ID == id {
		c.detail = model.Post{}
		c.hasDetail = false
	}
	// A list fetched before the delete landed may still contain the post.
	c.listToken++

	c.logger.Info("post deleted",
		slog.String("userID", uid),
		slog.String("postID", id),
	)
	return nil
}

// newestFirst orders by CreatedAt descending. The service returns posts in
// insertion order, so equal or missing timestamps fall back to the reverse
// of the order received.
func newestFirst(posts []model.Post) []model.Post {
	out := slices.Clone(posts)
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b model.Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}
