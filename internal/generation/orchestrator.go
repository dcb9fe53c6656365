// Package generation drives one prompt → per-platform content cycle.
//
// STATE MACHINE:
//
//	Idle ──Submit──► Submitting ──ok──► Succeeded ──Submit/Reset──► …
//	                            └─err─► Failed    ──Submit/Reset──► …
//
// A Submit while Submitting is refused with apperror.ErrBusy: at most one
// generation is in flight per Orchestrator, so a double tap never bills
// twice. There is no retry-in-place; a failure needs a fresh Submit.
//
// REQUEST CORRELATION:
// Each accepted Submit takes the next value of a monotonically increasing
// token. Reset bumps the token too. When a response arrives its token is
// compared with the current one; if they differ the caller moved on, the
// response is dropped without touching state, and Submit returns
// apperror.ErrStale.
//
// OWNERSHIP:
// State belongs to the user who submitted. When a different user, or
// nobody, is signed in the orchestrator resets before reporting or
// accepting anything, which also abandons the previous user's request.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sakif/postgen/internal/apperror"
	"github.com/sakif/postgen/internal/model"
	"github.com/sakif/postgen/internal/session"
	"github.com/sakif/postgen/internal/validate"
)

// DefaultFailureMessage is shown when the service gives no reason.
const DefaultFailureMessage = "Failed to generate post"

// Phase is the orchestrator's lifecycle state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// Generator issues the remote generation request. *api.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, userID string, req model.GenerationRequest) (model.GenerationResult, error)
}

// SessionSource reports the signed-in user and is told when the service
// rejects that user's session. *session.Store satisfies it.
type SessionSource interface {
	Current() (model.Session, bool)
	Invalidate(ctx context.Context, userID, reason string) error
}

// Snapshot is a copy of the orchestrator's state.
type Snapshot struct {
	Phase   Phase
	Token   uint64
	Request model.GenerationRequest
	Result  model.GenerationResult
	// Missing lists requested platforms the service did not cover.
	Missing []model.Platform
	// Message is the failure text when Phase is PhaseFailed.
	Message string
}

// Orchestrator owns the generation request lifecycle.
type Orchestrator struct {
	gen      Generator
	sessions SessionSource
	logger   *slog.Logger

	mu      sync.Mutex
	owner   string
	phase   Phase
	token   uint64
	request model.GenerationRequest
	result  model.GenerationResult
	missing []model.Platform
	message string
}

// New creates an idle Orchestrator.
func New(gen Generator, sessions SessionSource, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		gen:      gen,
		sessions: sessions,
		logger:   logger,
		phase:    PhaseIdle,
	}
}

// NewRequest builds a request from raw platform identifiers, accepting the
// aliases model.ParsePlatform knows. Unknown identifiers are a
// ValidationError.
func NewRequest(prompt string, platforms []string) (model.GenerationRequest, error) {
	parsed, dropped := model.NormalizePlatforms(platforms)
	if len(dropped) > 0 {
		return model.GenerationRequest{}, apperror.ValidationFailed("platforms",
			fmt.Sprintf("Unsupported platform %q.", dropped[0]))
	}
	return model.GenerationRequest{Prompt: prompt, Platforms: parsed}, nil
}

// check validates req locally and returns the copy that will be sent.
func check(req model.GenerationRequest) (model.GenerationRequest, error) {
	if err := validate.Prompt(req.Prompt); err != nil {
		return model.GenerationRequest{}, err
	}

	out := model.GenerationRequest{Prompt: req.Prompt}
	seen := make(map[model.Platform]bool, len(req.Platforms))
	for _, p := range req.Platforms {
		if !p.Valid() {
			return model.GenerationRequest{}, apperror.ValidationFailed("platforms",
				fmt.Sprintf("Unsupported platform %q.", string(p)))
		}
		if !seen[p] {
			seen[p] = true
			out.Platforms = append(out.Platforms, p)
		}
	}
	if len(out.Platforms) == 0 {
		return model.GenerationRequest{}, apperror.ValidationFailed("platforms",
			"Please select at least one platform!")
	}
	return out, nil
}

// Submit validates req, issues one generation request and returns the
// per-platform result.
//
// Errors:
//   - ValidationError: blank prompt, no or unknown platforms (no network call)
//   - AuthError: nobody is signed in (no network call)
//   - apperror.ErrBusy: another Submit is in flight (state untouched)
//   - GenerationError: the request failed; State().Message has the reason
//   - AuthError from the service: the session was rejected and is cleared
//   - apperror.ErrStale: Reset ran while this request was in flight
//
// A result covering only some of the requested platforms is a success.
// The service persists the post itself; Submit does not.
func (o *Orchestrator) Submit(ctx context.Context, req model.GenerationRequest) (model.GenerationResult, error) {
	req, err := check(req)
	if err != nil {
		return nil, err
	}

	sess, ok := o.sessions.Current()
	if !ok {
		return nil, apperror.AuthFailed("You are not signed in.")
	}

	o.mu.Lock()
	o.claim(sess.UserID)
	if o.phase == PhaseSubmitting {
		o.mu.Unlock()
		o.logger.Debug("generation refused: already submitting", slog.Uint64("token", o.token))
		return nil, apperror.ErrBusy
	}
	o.token++
	token := o.token
	o.phase = PhaseSubmitting
	o.request = req.Clone()
	o.result = nil
	o.missing = nil
	o.message = ""
	o.mu.Unlock()

	o.logger.Info("generation submitted",
		slog.Uint64("token", token),
		slog.Int("platforms", len(req.Platforms)),
	)

	res, genErr := o.gen.Generate(ctx, sess.UserID, req)
	rejected := errors.Is(genErr, apperror.ErrAuth)
	if rejected {
		o.logger.Warn("service rejected session", slog.String("userID", sess.UserID))
		if err := o.sessions.Invalidate(ctx, sess.UserID, session.ReasonRejected); err != nil {
			o.logger.Error("clearing rejected session failed",
				slog.String("userID", sess.UserID),
				slog.String("error", err.Error()),
			)
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.token != token {
		o.logger.Debug("discarding stale generation response",
			slog.Uint64("token", token),
			slog.Uint64("current", o.token),
		)
		return nil, apperror.ErrStale
	}

	if genErr != nil {
		o.phase = PhaseFailed
		o.message = failureMessage(genErr)
		o.logger.Warn("generation failed",
			slog.Uint64("token", token),
			slog.String("error", genErr.Error()),
		)
		if rejected {
			return nil, fmt.Errorf("generation: %w", genErr)
		}
		return nil, apperror.GenerationFailed(o.message)
	}

	if res == nil {
		res = model.GenerationResult{}
	}
	o.phase = PhaseSucceeded
	o.result = res
	o.missing = res.Missing(req.Platforms)
	if len(o.missing) > 0 {
		o.logger.Info("generation partially covered",
			slog.Uint64("token", token),
			slog.Int("covered", len(res)),
			slog.Int("missing", len(o.missing)),
		)
	}
	return copyResult(res), nil
}

// Reset returns to Idle and abandons any in-flight request: its response
// will be discarded when it arrives.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reset()
}

// reset clears state and bumps the token. o.mu is held.
func (o *Orchestrator) reset() {
	o.token++
	o.phase = PhaseIdle
	o.request = model.GenerationRequest{}
	o.result = nil
	o.missing = nil
	o.message = ""
}

// claim resets when the state belongs to a user other than uid. o.mu is
// held.
func (o *Orchestrator) claim(uid string) {
	if o.owner == uid {
		return
	}
	if o.phase != PhaseIdle {
		o.logger.Debug("dropping generation state of previous user", slog.String("userID", o.owner))
		o.reset()
	}
	o.owner = uid
}

// State returns a copy of the current state. It is Idle when the state
// belonged to someone other than the signed-in user.
func (o *Orchestrator) State() Snapshot {
	sess, _ := o.sessions.Current()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.claim(sess.UserID)

	return Snapshot{
		Phase:   o.phase,
		Token:   o.token,
		Request: o.request.Clone(),
		Result:  copyResult(o.result),
		Missing: append([]model.Platform(nil), o.missing...),
		Message: o.message,
	}
}

// failureMessage prefers the reason the service gave. A request that never
// got a response has none.
func failureMessage(err error) string {
	if errors.Is(err, apperror.ErrTransport) {
		return DefaultFailureMessage
	}
	return apperror.Message(err, DefaultFailureMessage)
}

func copyResult(r model.GenerationResult) model.GenerationResult {
	if r == nil {
		return nil
	}
	out := make(model.GenerationResult, len(r))
	for k, v := range r {
		v.Hashtags = append([]string(nil), v.Hashtags...)
		out[k] = v
	}
	return out
}
