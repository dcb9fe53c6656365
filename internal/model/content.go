package model

import (
	"encoding/json"
	"sort"
	"strings"
)

// PlatformContent is the generated copy for one platform.
//
// Hashtags hold tag bodies only ("golang", not "#golang"). The Platform
// field is not serialized: on the wire the platform is the map key.
type PlatformContent struct {
	Platform Platform `json:"-"`
	Content  string   `json:"content"`
	Hashtags []string `json:"hashtags"`
}

// GenerationRequest is the input of one generation.
type GenerationRequest struct {
	Prompt    string     `json:"prompt"`
	Platforms []Platform `json:"platforms"`
}

// Clone returns a deep copy so a submitted request cannot be mutated by the
// caller afterwards.
func (r GenerationRequest) Clone() GenerationRequest {
	out := GenerationRequest{Prompt: r.Prompt}
	if r.Platforms != nil {
		out.Platforms = append([]Platform(nil), r.Platforms...)
	}
	return out
}

// GenerationResult maps each covered platform to its content. The remote
// service may omit platforms it failed to generate; that is partial
// success, not an error.
type GenerationResult map[Platform]PlatformContent

// UnmarshalJSON decodes the wire object and normalizes it with
// NormalizeContent.
func (g *GenerationResult) UnmarshalJSON(data []byte) error {
	var raw map[string]PlatformContent
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = NormalizeContent(raw)
	return nil
}

// NormalizeContent folds raw per-platform content keyed by any accepted
// platform spelling ("x (twitter)", "LinkedIn") into a GenerationResult.
// Keys that are not supported platforms are dropped and hashtags are
// cleaned with NormalizeHashtags.
func NormalizeContent(raw map[string]PlatformContent) GenerationResult {
	out := make(GenerationResult, len(raw))
	// Sorted keys so alias collisions resolve the same way on every call.
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p, err := ParsePlatform(k)
		if err != nil {
			continue
		}
		if _, dup := out[p]; dup {
			continue
		}
		c := raw[k]
		c.Platform = p
		c.Hashtags = NormalizeHashtags(c.Hashtags)
		out[p] = c
	}
	return out
}

// Platforms returns the covered platforms. Platforms listed in order come
// first in that order; any remaining covered platforms follow in display
// order.
func (g GenerationResult) Platforms(order ...Platform) []Platform {
	out := make([]Platform, 0, len(g))
	seen := make(map[Platform]bool, len(g))
	for _, p := range order {
		if _, ok := g[p]; ok && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	rest := make([]Platform, 0, len(g))
	for p := range g {
		if !seen[p] {
			rest = append(rest, p)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		if rest[i].rank() != rest[j].rank() {
			return rest[i].rank() < rest[j].rank()
		}
		return rest[i] < rest[j]
	})
	return append(out, rest...)
}

// Missing returns the requested platforms the result does not cover.
func (g GenerationResult) Missing(requested []Platform) []Platform {
	var out []Platform
	for _, p := range requested {
		if _, ok := g[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeHashtags strips leading '#' characters and surrounding space, and
// drops empty tags. Order is preserved.
func NormalizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimLeft(strings.TrimSpace(t), "#")
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// GenerateResponse is the body of POST /api/generate.
type GenerateResponse struct {
	Platforms GenerationResult `json:"platforms"`
}
