package profile

import (
	"context"
	"errors"
	"log/slog"
)

var errEmptyPayload = errors.New("empty profile payload")

// Fetcher retrieves a raw profile object from the upstream API.
// Implemented by upstream.Client.
type Fetcher interface {
	FetchProfile(ctx context.Context, slug string) (map[string]any, error)
}

// fetchOutcome carries either the upstream payload or the reason the attempt
// failed. A failed outcome is a soft failure: it only moves resolution on to
// the demo registry.
type fetchOutcome struct {
	raw map[string]any
	err error
}

func (o fetchOutcome) ok() bool { return o.err == nil && o.raw != nil }

// Resolver turns a slug into a Result by trying the upstream API first and
// the demo registry second. It is safe for concurrent use; it holds no
// mutable state.
type Resolver struct {
	api      Fetcher // nil when no API base is configured
	registry *Registry
	logger   *slog.Logger
}

// NewResolver creates a Resolver. A nil api skips the upstream attempt
// entirely; a nil registry behaves as an empty one.
func NewResolver(api Fetcher, registry *Registry) *Resolver {
	return &Resolver{
		api:      api,
		registry: registry,
		logger:   slog.Default(),
	}
}

// Resolve never returns an error: upstream failures degrade to the demo
// registry, and a slug found nowhere yields SourceNone with a nil Profile.
// The API attempt always finishes before the registry is consulted.
func (r *Resolver) Resolve(ctx context.Context, slug string) Result {
	if r.api != nil && slug != "" {
		outcome := r.attempt(ctx, slug)
		if outcome.ok() {
			p := Normalize(slug, outcome.raw)
			return Result{Profile: &p, Source: SourceAPI}
		}
		r.logger.Warn("profile api unavailable, falling back to demo registry",
			"slug", slug,
			"error", outcome.err,
		)
	}

	if p, ok := r.registry.Lookup(slug); ok {
		return Result{Profile: &p, Source: SourceDemo}
	}
	return Result{Source: SourceNone}
}

func (r *Resolver) attempt(ctx context.Context, slug string) fetchOutcome {
	raw, err := r.api.FetchProfile(ctx, slug)
	if err == nil && raw == nil {
		err = errEmptyPayload
	}
	return fetchOutcome{raw: raw, err: err}
}
