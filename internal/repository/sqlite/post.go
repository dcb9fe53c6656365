package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/postgen/internal/apperror"
	"github.com/sakif/postgen/internal/model"
	"github.com/sakif/postgen/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

// CreatePost inserts p, filling in its ID and CreatedAt.
func (db *DB) CreatePost(ctx context.Context, p *repository.OwnedPost) error {
	platforms, err := json.Marshal(p.Platforms)
	if err != nil {
		return fmt.Errorf("sqlite: encoding platforms: %w", err)
	}
	if p.Content == nil {
		p.Content = model.GenerationResult{}
	}
	content, err := json.Marshal(p.Content)
	if err != nil {
		return fmt.Errorf("sqlite: encoding content: %w", err)
	}

	p.ID = xid.New().String()
	p.CreatedAt = time.Now().UTC()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO posts (id, owner_id, prompt, platforms, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Prompt, string(platforms), string(content), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}
	return nil
}

// GetPost returns the post with id or apperror.ErrNotFound.
func (db *DB) GetPost(ctx context.Context, id string) (*repository.OwnedPost, error) {
	var (
		p                  repository.OwnedPost
		platforms, content string
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, owner_id, prompt, platforms, content, created_at FROM posts WHERE id = ?`, id,
	).Scan(&p.ID, &p.OwnerID, &p.Prompt, &platforms, &content, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("post", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}
	if err := decodePost(&p.Post, platforms, content); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPosts returns ownerID's posts oldest first.
func (db *DB) ListPosts(ctx context.Context, ownerID string) ([]model.Post, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, prompt, platforms, content, created_at
		 FROM posts WHERE owner_id = ? ORDER BY seq ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		var (
			p                  model.Post
			platforms, content string
		)
		if err := rows.Scan(&p.ID, &p.Prompt, &platforms, &content, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		if err := decodePost(&p, platforms, content); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	return posts, nil
}

// DeletePost removes the post with id.
func (db *DB) DeletePost(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("post", id)
	}
	return nil
}

func decodePost(p *model.Post, platforms, content string) error {
	if err := json.Unmarshal([]byte(platforms), &p.Platforms); err != nil {
		return fmt.Errorf("sqlite: decoding platforms of post %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(content), &p.Content); err != nil {
		return fmt.Errorf("sqlite: decoding content of post %s: %w", p.ID, err)
	}
	return nil
}
