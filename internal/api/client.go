// Package api is the typed HTTP/JSON client for the remote content service.
//
// Every method maps to exactly one endpoint. The client itself is
// stateless: the caller passes the session's user id, which travels in the
// X-User-ID header, and every request gets a fresh X-Request-ID so a
// request can be traced in the service's logs.
//
// ERROR MAPPING:
// Failures come back as *apperror.AppError so component code can branch with
// errors.Is without knowing anything about HTTP:
//
//	network / timeout / bad JSON → apperror.ErrTransport
//	400                          → apperror.ErrValidation
//	401                          → apperror.ErrAuth
//	403                          → apperror.ErrForbidden
//	404                          → apperror.ErrNotFound
//	anything else non-2xx        → apperror.ErrRemote
//
// The message is taken from the response body's "error" field, then its
// "message" field, then the HTTP status text.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/postgen/internal/apperror"
	"github.com/sakif/postgen/internal/model"
)

const (
	// HeaderUserID carries the authenticated user's id.
	HeaderUserID = "X-User-ID"
	// HeaderRequestID correlates one request across client and service logs.
	HeaderRequestID = "X-Request-ID"

	// maxErrorBody caps how much of an error response we read.
	maxErrorBody = 64 << 10
)

// Client talks to the remote service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets a whole-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorBody is the error shape returned by the service.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do sends one request. body and out may be nil.
func (c *Client) do(ctx context.Context, method, path, userID string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("api: building %s %s: %w", method, path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(HeaderUserID, userID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("requestID", requestID),
			slog.String("error", err.Error()),
		)
		return apperror.Transport(fmt.Sprintf("could not reach the service: %v", err))
	}
	defer resp.Body.Close()

	c.logger.Debug("request completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("requestID", requestID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.Transport(fmt.Sprintf("malformed response from %s %s: %v", method, path, err))
	}
	return nil
}

// decodeError turns a non-2xx response into a typed AppError.
func decodeError(resp *http.Response) error {
	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(raw, &body)

	msg := body.Error
	if msg == "" {
		msg = body.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return apperror.ValidationFailed("", msg)
	case http.StatusUnauthorized:
		return apperror.AuthFailed(msg)
	case http.StatusForbidden:
		return apperror.Forbidden(msg)
	case http.StatusNotFound:
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: msg}
	default:
		return apperror.Remote(msg)
	}
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, reg model.Registration) (model.User, error) {
	var out model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", "", reg, &out); err != nil {
		return model.User{}, err
	}
	return out.User, nil
}

// Login exchanges credentials for the user record.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (model.User, error) {
	var out model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", creds, &out); err != nil {
		return model.User{}, err
	}
	return out.User, nil
}

// Generate asks the service for per-platform content. The service persists
// the resulting post as a side effect.
func (c *Client) Generate(ctx context.Context, userID string, req model.GenerationRequest) (model.GenerationResult, error) {
	var out model.GenerateResponse
	if err := c.do(ctx, http.MethodPost, "/api/generate", userID, req, &out); err != nil {
		return nil, err
	}
	if out.Platforms == nil {
		out.Platforms = model.GenerationResult{}
	}
	return out.Platforms, nil
}

// ListPosts returns the posts visible to userID in service order.
func (c *Client) ListPosts(ctx context.Context, userID string) ([]model.Post, error) {
	var out []model.Post
	if err := c.do(ctx, http.MethodGet, "/api/posts", userID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPost fetches one post. The endpoint omits _id, so it is filled in from
// the request.
func (c *Client) GetPost(ctx context.Context, userID, id string) (model.Post, error) {
	var out model.Post
	if err := c.do(ctx, http.MethodGet, "/api/posts/"+url.PathEscape(id), userID, nil, &out); err != nil {
		return model.Post{}, err
	}
	if out.ID == "" {
		out.ID = id
	}
	return out, nil
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, userID, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/posts/"+url.PathEscape(id), userID, nil, nil)
}

// GetUser fetches a profile.
func (c *Client) GetUser(ctx context.Context, id string) (model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/user/"+url.PathEscape(id), id, nil, &out); err != nil {
		return model.User{}, err
	}
	return out, nil
}

// UpdateUser applies a partial update and returns the updated profile.
func (c *Client) UpdateUser(ctx context.Context, id string, update model.UserUpdate) (model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodPut, "/user/"+url.PathEscape(id), id, update, &out); err != nil {
		return model.User{}, err
	}
	return out, nil
}

// DeleteUser removes the account.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/user/"+url.PathEscape(id), id, nil, nil)
}

// VerifyPassword checks the user's current password.
func (c *Client) VerifyPassword(ctx context.Context, id, currentPassword string) (bool, error) {
	var out struct {
		Valid bool `json:"valid"`
	}
	body := map[string]string{"currentPassword": currentPassword}
	if err := c.do(ctx, http.MethodPost, "/user/"+url.PathEscape(id)+"/verify-password", id, body, &out); err != nil {
		return false, err
	}
	return out.Valid, nil
}
