package viewer

import (
	"context"
	"errors"
	"strings"
	"time"

	"profile-viewer/catalog"
	"profile-viewer/models"
	"profile-viewer/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultLatency = 1500 * time.Millisecond

var (
	tracer = otel.Tracer("profile-viewer/viewer")
	now    = time.Now
	wait   = sleepContext
)

type Outcome struct {
	Record *models.ProfileRecord
	Err    error
}

type Resolver struct {
	latency time.Duration
}

func NewResolver(latency time.Duration) *Resolver {
	if latency < 0 {
		latency = 0
	}
	return &Resolver{latency: latency}
}

func (r *Resolver) Latency() time.Duration {
	return r.latency
}

// Resolve validates raw, waits the simulated latency and looks the normalized
// username up. Empty input fails at once without waiting.
func (r *Resolver) Resolve(ctx context.Context, raw string) Outcome {
	ctx, span := tracer.Start(ctx, "viewer.resolve")
	defer span.End()

	start := now()
	outcome := r.resolve(ctx, raw)
	result := outcomeLabel(outcome)

	span.SetAttributes(
		attribute.String("lookup.username", catalog.Normalize(raw)),
		attribute.String("lookup.outcome", result),
	)
	if outcome.Err != nil && !errors.Is(outcome.Err, ErrNotFound) && !errors.Is(outcome.Err, ErrEmptyInput) {
		span.SetStatus(codes.Error, outcome.Err.Error())
	}
	telemetry.ObserveLookup(ctx, result, now().Sub(start))
	return outcome
}

func (r *Resolver) resolve(ctx context.Context, raw string) Outcome {
	if strings.TrimSpace(raw) == "" {
		return Outcome{Err: ErrEmptyInput}
	}

	if err := wait(ctx, r.latency); err != nil {
		return Outcome{Err: err}
	}
	return r.lookup(raw)
}

func (r *Resolver) lookup(raw string) Outcome {
	if strings.TrimSpace(raw) == "" {
		return Outcome{Err: ErrEmptyInput}
	}
	record, ok := catalog.Lookup(catalog.Normalize(raw))
	if !ok {
		return Outcome{Err: ErrNotFound}
	}
	return Outcome{Record: &record}
}

func outcomeLabel(o Outcome) string {
	switch {
	case o.Err == nil:
		return "found"
	case errors.Is(o.Err, ErrEmptyInput):
		return "empty"
	case errors.Is(o.Err, ErrNotFound):
		return "not_found"
	default:
		return "cancelled"
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
