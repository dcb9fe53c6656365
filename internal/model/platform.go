// Package model defines the data structures shared by the client core and
// the stub API server.
//
// The JSON tags follow the remote service's wire format, which uses
// Mongo-style "_id" keys. Decoding is tolerant: platform keys are folded to
// their canonical identifiers and hashtags are cleaned, so every consumer
// sees one uniform shape no matter which endpoint produced it.
package model

import (
	"fmt"
	"strings"
)

// Platform identifies a supported social network.
type Platform string

const (
	PlatformX         Platform = "x"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformFacebook  Platform = "facebook"
)

// AllPlatforms lists the supported platforms in display order.
var AllPlatforms = []Platform{PlatformX, PlatformInstagram, PlatformLinkedIn, PlatformFacebook}

// platformAliases maps the spellings seen on the wire to canonical ids.
// "x (twitter)" is what older clients sent as the platform id.
var platformAliases = map[string]Platform{
	"x":           PlatformX,
	"x (twitter)": PlatformX,
	"twitter":     PlatformX,
	"instagram":   PlatformInstagram,
	"linkedin":    PlatformLinkedIn,
	"facebook":    PlatformFacebook,
}

// ParsePlatform returns the canonical Platform for s. Matching ignores case
// and surrounding whitespace.
func ParsePlatform(s string) (Platform, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if p, ok := platformAliases[key]; ok {
		return p, nil
	}
	return "", fmt.Errorf("model: unknown platform %q", s)
}

// Valid reports whether p is one of the canonical identifiers.
func (p Platform) Valid() bool {
	for _, known := range AllPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// Label is the human-readable platform name.
func (p Platform) Label() string {
	switch p {
	case PlatformX:
		return "X (Twitter)"
	case PlatformInstagram:
		return "Instagram"
	case PlatformLinkedIn:
		return "LinkedIn"
	case PlatformFacebook:
		return "Facebook"
	default:
		return string(p)
	}
}

// Icon is the single-glyph badge shown next to a post summary.
func (p Platform) Icon() string {
	switch p {
	case PlatformX:
		return "🐦"
	case PlatformInstagram:
		return "📷"
	case PlatformLinkedIn:
		return "💼"
	case PlatformFacebook:
		return "📘"
	default:
		return "🔗"
	}
}

// rank orders platforms by their position in AllPlatforms; unknown last.
func (p Platform) rank() int {
	for i, known := range AllPlatforms {
		if p == known {
			return i
		}
	}
	return len(AllPlatforms)
}

// NormalizePlatforms parses raw identifiers, drops unknown ones and
// duplicates, and keeps the order of first appearance. The dropped inputs
// are returned so callers can log them.
func NormalizePlatforms(raw []string) (platforms []Platform, dropped []string) {
	seen := make(map[Platform]bool, len(raw))
	for _, s := range raw {
		p, err := ParsePlatform(s)
		if err != nil {
			dropped = append(dropped, s)
			continue
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		platforms = append(platforms, p)
	}
	return platforms, dropped
}
