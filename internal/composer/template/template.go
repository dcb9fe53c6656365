// Package template is a deterministic Composer: it fills fixed per-platform
// templates from the prompt, so the stub service answers instantly and the
// same prompt always yields the same copy.
package template

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/sakif/postgen/internal/composer"
	"github.com/sakif/postgen/internal/model"
)

var _ composer.Composer = (*Composer)(nil)

// maxTweet is X's post length limit.
const maxTweet = 280

// Composer implements composer.Composer with templates.
type Composer struct {
	config      Config
	logger      *slog.Logger
	pool        *pool
	unavailable map[model.Platform]bool
}

// New creates a Composer.
func New(cfg Config, logger *slog.Logger) *Composer {
	unavailable := make(map[model.Platform]bool, len(cfg.Unavailable))
	for _, p := range cfg.Unavailable {
		unavailable[p] = true
	}
	return &Composer{
		config:      cfg,
		logger:      logger,
		pool:        newPool(cfg.Workers),
		unavailable: unavailable,
	}
}

// Compose writes each requested platform on the worker pool.
func (c *Composer) Compose(ctx context.Context, req composer.Request) (model.GenerationResult, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = make(model.GenerationResult, len(req.Platforms))
		errs   []error
	)

	for _, p := range req.Platforms {
		if c.unavailable[p] {
			c.logger.Debug("platform unavailable, skipping", slog.String("platform", string(p)))
			continue
		}

		if err := c.pool.acquire(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("waiting for a worker: %w", err))
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(p model.Platform) {
			defer wg.Done()
			defer c.pool.release()

			content, ok := write(p, req.Prompt)
			if !ok {
				return
			}
			mu.Lock()
			result[p] = content
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	if len(errs) > 0 {
		return nil, fmt.Errorf("template: composing: %w", errs[0])
	}
	return result, nil
}

// write fills the template for p. Unknown platforms are not written.
func write(p model.Platform, prompt string) (model.PlatformContent, bool) {
	prompt = strings.TrimSpace(prompt)
	var (
		body string
		tags int
	)
	switch p {
	case model.PlatformX:
		body = truncate(prompt+" 🚀", maxTweet)
		tags = 2
	case model.PlatformInstagram:
		body = fmt.Sprintf("✨ %s ✨\n\nTap the link in bio to learn more.", prompt)
		tags = 5
	case model.PlatformLinkedIn:
		body = fmt.Sprintf("%s\n\nI'm excited to share this with my network. What do you think?", prompt)
		tags = 3
	case model.PlatformFacebook:
		body = fmt.Sprintf("%s\n\nLet us know in the comments!", prompt)
		tags = 2
	default:
		return model.PlatformContent{}, false
	}
	return model.PlatformContent{
		Platform: p,
		Content:  body,
		Hashtags: Hashtags(prompt, tags),
	}, true
}

// Hashtags picks up to n distinct keywords of at least four letters from
// prompt, lower-cased, in order of appearance.
func Hashtags(prompt string, n int) []string {
	words := strings.FieldsFunc(prompt, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(words))
	out := make([]string, 0, n)
	for _, w := range words {
		if len(out) == n {
			break
		}
		w = strings.ToLower(w)
		if len([]rune(w)) < 4 || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
