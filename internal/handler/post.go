package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/postgen/internal/auth"
	"github.com/sakif/postgen/internal/model"
	"github.com/sakif/postgen/internal/service"
)

// PostService is what PostHandler needs from service.PostService.
type PostService interface {
	Generate(ctx context.Context, ownerID string, in service.GenerateInput) (model.GenerationResult, error)
	List(ctx context.Context, ownerID string) ([]model.Post, error)
	Get(ctx context.Context, ownerID, id string) (*model.Post, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// PostHandler serves generation and post history. Every route sits behind
// auth.RequireUser.
type PostHandler struct {
	posts  PostService
	logger *slog.Logger
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(posts PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

// callerID reads the id RequireUser put in the context.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Please log in first.",
			Code:  "unauthorized",
		})
	}
	return id, ok
}

// HandleGenerate composes content and stores it as a post.
//
// HTTP: POST /api/generate
// REQUEST BODY: {"prompt": "...", "platforms": ["x", "linkedin"]}
// RESPONSE: {"platforms": {"x": {"content": "...", "hashtags": [...]}, ...}}
//
// Platforms that could not be generated are absent from the response.
func (h *PostHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	var in service.GenerateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.posts.Generate(r.Context(), uid, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.GenerateResponse{Platforms: result})
}

// HandleList returns the caller's posts in the order they were created.
//
// HTTP: GET /api/posts
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	posts, err := h.posts.List(r.Context(), uid)
	if err != nil {
		h.logger.Error("listing posts failed",
			slog.String("userID", uid),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

// postDetail is the body of GET /api/posts/{id}. Like the hosted service it
// carries no _id or createdAt; the client already knows the id it asked for.
type postDetail struct {
	Prompt    string                 `json:"prompt"`
	Platforms []model.Platform       `json:"platforms"`
	Content   model.GenerationResult `json:"content"`
}

// HandleGetByID returns one post.
//
// HTTP: GET /api/posts/{id}
func (h *PostHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	p, err := h.posts.Get(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, postDetail{
		Prompt:    p.Prompt,
		Platforms: p.Platforms,
		Content:   p.Content,
	})
}

// HandleDelete removes one post.
//
// HTTP: DELETE /api/posts/{id}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.posts.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}
