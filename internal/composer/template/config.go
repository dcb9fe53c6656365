package template

import (
	"time"

	"github.com/sakif/postgen/internal/model"
)

// Config tunes the template composer.
type Config struct {
	// Workers caps how many platforms are composed at once across all
	// requests.
	Workers int
	// Timeout bounds one Compose call.
	Timeout time.Duration
	// Unavailable platforms are always left out of results, which lets
	// tests and demos exercise partial coverage.
	Unavailable []model.Platform
}

// DefaultConfig composes every platform with a small worker pool.
func DefaultConfig() Config {
	return Config{
		Workers: 4,
		Timeout: 5 * time.Second,
	}
}
