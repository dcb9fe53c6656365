package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Post is a server-persisted record of one past generation. The client never
// constructs one itself; posts are created as a side effect of a successful
// generation and can only be deleted afterwards.
type Post struct {
	ID        string           `json:"_id"`
	Prompt    string           `json:"prompt"`
	Platforms []Platform       `json:"platforms"`
	Content   GenerationResult `json:"content"`
	CreatedAt time.Time        `json:"createdAt"`
}

// UnmarshalJSON tolerates the shapes the endpoints actually return: list
// items carry every field, while GET /api/posts/:id omits _id and createdAt.
// Platform ids are folded to canonical form.
func (p *Post) UnmarshalJSON(data []byte) error {
	type postAlias Post
	var wire struct {
		postAlias
		Platforms []string `json:"platforms"`
		CreatedAt string   `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*p = Post(wire.postAlias)
	p.Platforms, _ = NormalizePlatforms(wire.Platforms)
	if p.Content == nil {
		p.Content = GenerationResult{}
	}

	if wire.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, wire.CreatedAt)
		if err != nil {
			return fmt.Errorf("model: parsing createdAt %q: %w", wire.CreatedAt, err)
		}
		p.CreatedAt = t
	}
	return nil
}

// Cards returns the post's content in display order: the post's own platform
// order first, then anything else covered.
func (p Post) Cards() []PlatformContent {
	order := p.Content.Platforms(p.Platforms...)
	out := make([]PlatformContent, 0, len(order))
	for _, pl := range order {
		out = append(out, p.Content[pl])
	}
	return out
}
