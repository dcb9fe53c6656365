// Package composer defines how the stub service turns a prompt into
// per-platform copy.
package composer

import (
	"context"

	"github.com/sakif/postgen/internal/model"
)

// Request is one generation job.
type Request struct {
	Prompt    string
	Platforms []model.Platform
}

// Composer writes content for every platform in a Request. A platform it
// could not write is left out of the result; that is not an error.
type Composer interface {
	Compose(ctx context.Context, req Request) (model.GenerationResult, error)
}
