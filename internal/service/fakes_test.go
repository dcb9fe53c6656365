package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/postgen/internal/apperror"
	"github.com/sakif/postgen/internal/composer"
	"github.com/sakif/postgen/internal/model"
	"github.com/sakif/postgen/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockAccounts struct {
	mu   sync.Mutex
	byID map[string]repository.Account
	next int
}

var _ repository.AccountRepository = (*mockAccounts)(nil)

func newMockAccounts() *mockAccounts {
	return &mockAccounts{byID: make(map[string]repository.Account)}
}

func (m *mockAccounts) conflict(a *repository.Account) error {
	for id, other := range m.byID {
		if id == a.ID {
			continue
		}
		if strings.EqualFold(other.Email, a.Email) {
			return apperror.Conflict("user", "email")
		}
		if other.Username == a.Username {
			return apperror.Conflict("user", "username")
		}
	}
	return nil
}

func (m *mockAccounts) CreateAccount(_ context.Context, a *repository.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.conflict(a); err != nil {
		return err
	}
	m.next++
	a.ID = fmt.Sprintf("u%d", m.next)
	m.byID[a.ID] = *a
	return nil
}

func (m *mockAccounts) GetAccount(_ context.Context, id string) (*repository.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &a, nil
}

func (m *mockAccounts) GetAccountByEmail(_ context.Context, email string) (*repository.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockAccounts) UpdateAccount(_ context.Context, a *repository.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[a.ID]; !ok {
		return apperror.NotFound("user", a.ID)
	}
	if err := m.conflict(a); err != nil {
		return err
	}
	m.byID[a.ID] = *a
	return nil
}

func (m *mockAccounts) DeleteAccount(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(m.byID, id)
	return nil
}

type mockPosts struct {
	mu    sync.Mutex
	posts []repository.OwnedPost
	next  int
}

var _ repository.PostRepository = (*mockPosts)(nil)

func (m *mockPosts) CreatePost(_ context.Context, p *repository.OwnedPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	p.ID = fmt.Sprintf("p%d", m.next)
	m.posts = append(m.posts, *p)
	return nil
}

func (m *mockPosts) GetPost(_ context.Context, id string) (*repository.OwnedPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, apperror.NotFound("post", id)
}

func (m *mockPosts) ListPosts(_ context.Context, ownerID string) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Post{}
	for _, p := range m.posts {
		if p.OwnerID == ownerID {
			out = append(out, p.Post)
		}
	}
	return out, nil
}

func (m *mockPosts) DeletePost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.posts {
		if p.ID == id {
			m.posts = append(m.posts[:i], m.posts[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("post", id)
}

// stubComposer echoes the prompt for every requested platform except skip.
type stubComposer struct {
	skip  model.Platform
	err   error
	calls []composer.Request
}

func (s *stubComposer) Compose(_ context.Context, req composer.Request) (model.GenerationResult, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	out := model.GenerationResult{}
	for _, p := range req.Platforms {
		if p == s.skip {
			continue
		}
		out[p] = model.PlatformContent{Platform: p, Content: req.Prompt, Hashtags: []string{"tag"}}
	}
	return out, nil
}
