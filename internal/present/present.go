// Package present turns normalized results and posts into the uniform
// display and copy model shown to the user.
package present

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/sakif/postgen/internal/model"
)

const (
	// PreviewLength is how many characters of a prompt a summary shows.
	PreviewLength = 50
	// TimeLayout formats post timestamps in summaries.
	TimeLayout = "2006-01-02 15:04:05"
)

// Card is one platform's content ready to show or copy.
type Card struct {
	Platform model.Platform
	Label    string
	Icon     string
	Content  string
	Hashtags []string
	// HashtagLine is the copy-to-clipboard text: "#a #b".
	HashtagLine string
}

// NewCard builds the card for one platform's content.
func NewCard(c model.PlatformContent) Card {
	return Card{
		Platform:    c.Platform,
		Label:       c.Platform.Label(),
		Icon:        c.Platform.Icon(),
		Content:     c.Content,
		Hashtags:    append([]string(nil), c.Hashtags...),
		HashtagLine: HashtagLine(c.Hashtags),
	}
}

// HashtagLine renders tag bodies as "#tag" joined by single spaces.
func HashtagLine(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range model.NormalizeHashtags(tags) {
		parts = append(parts, "#"+t)
	}
	return strings.Join(parts, " ")
}

// Cards returns one card per covered platform: requested platforms first in
// request order, then anything else covered. Requested platforms the result
// lacks get no card.
func Cards(result model.GenerationResult, requested []model.Platform) []Card {
	order := result.Platforms(requested...)
	out := make([]Card, 0, len(order))
	for _, p := range order {
		c := result[p]
		c.Platform = p
		out = append(out, NewCard(c))
	}
	return out
}

// PostCards returns the cards of a stored post.
func PostCards(p model.Post) []Card {
	return Cards(p.Content, p.Platforms)
}

// Summary is the one-line view of a post in the history list.
type Summary struct {
	ID      string
	Preview string
	Badges  []string
	Created string
}

// Summarize builds the history-list view of a post. Timestamps are shown in
// loc; a post without a timestamp shows an empty Created.
func Summarize(p model.Post, loc *time.Location) Summary {
	badges := make([]string, 0, len(p.Platforms))
	for _, pl := range p.Platforms {
		badges = append(badges, pl.Icon())
	}

	var created string
	if !p.CreatedAt.IsZero() {
		created = p.CreatedAt.In(loc).Format(TimeLayout)
	}

	return Summary{
		ID:      p.ID,
		Preview: Preview(p.Prompt),
		Badges:  badges,
		Created: created,
	}
}

// Preview shortens a prompt to PreviewLength characters plus "...".
func Preview(prompt string) string {
	if utf8.RuneCountInString(prompt) <= PreviewLength {
		return prompt
	}
	runes := []rune(prompt)
	return string(runes[:PreviewLength]) + "..."
}

// WriteSummaries prints a history list as aligned columns.
func WriteSummaries(w io.Writer, posts []model.Post, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range posts {
		s := Summarize(p, loc)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, strings.Join(s.Badges, " "), s.Created, s.Preview)
	}
	return tw.Flush()
}

// WriteCards prints cards one block per platform.
func WriteCards(w io.Writer, cards []Card) error {
	for i, c := range cards {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s %s\n%s\n", c.Icon, c.Label, c.Content); err != nil {
			return err
		}
		if c.HashtagLine != "" {
			if _, err := fmt.Fprintln(w, c.HashtagLine); err != nil {
				return err
			}
		}
	}
	return nil
}
