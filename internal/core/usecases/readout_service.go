package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/coords/internal/core/domain"
	"github.com/samirrijal/coords/internal/core/formatting"
	"github.com/samirrijal/coords/internal/core/ports"
	"github.com/samirrijal/coords/internal/pkg/metrics"
	"github.com/samirrijal/coords/internal/pkg/telemetry"
)

// ReadoutService renders the session's location and reacts to new fixes.
type ReadoutService struct {
	session   *LocationSession
	consent   *ConsentService
	formatter *formatting.Formatter
	publisher ports.ReadoutPublisher
}

// NewReadoutService creates a new ReadoutService. publisher may be nil.
func NewReadoutService(
	session *LocationSession,
	consent *ConsentService,
	formatter *formatting.Formatter,
	publisher ports.ReadoutPublisher,
) *ReadoutService {
	return &ReadoutService{session: session, consent: consent, formatter: formatter, publisher: publisher}
}

// Render formats the current fix in proj. It fails with domain.ErrNoFix
// before the first fix.
func (s *ReadoutService) Render(ctx context.Context, proj domain.Projection) (*domain.Readout, error) {
	point, updatedAt, ok := s.session.snapshot()
	if !ok {
		return nil, domain.ErrNoFix
	}
	r, err := s.RenderPoint(ctx, point, proj)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt = updatedAt
	return r, nil
}

// RenderPoint formats p in proj. Network projections require consent and
// fail with domain.ErrConsentRequired without touching the network.
func (s *ReadoutService) RenderPoint(ctx context.Context, p domain.GeodeticPoint, proj domain.Projection) (*domain.Readout, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "readout.render",
		trace.WithAttributes(telemetry.AttrProjection.String(proj.String())))
	defer span.End()

	allowed, err := s.consent.Allowed(ctx, proj)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !allowed {
		return nil, domain.ErrConsentRequired
	}

	start := time.Now()
	data, err := s.formatter.Format(ctx, p, proj)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("format %s: %w", proj, err)
	}
	metrics.RenderDuration.WithLabelValues(proj.String()).Observe(time.Since(start).Seconds())
	metrics.ReadoutsRendered.WithLabelValues(proj.String()).Inc()
	span.SetAttributes(telemetry.AttrItems.Int(len(data)))

	return &domain.Readout{
		Projection: proj,
		Point:      p,
		Data:       data,
		UpdatedAt:  time.Now(),
	}, nil
}

// IngestFix applies fix to the session. When the location moved and a
// publisher is configured, the current projection is rendered and published.
func (s *ReadoutService) IngestFix(ctx context.Context, fix domain.RawFix) (FixUpdate, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "readout.ingest_fix")
	defer span.End()

	update, err := s.session.Update(fix)
	if err != nil {
		metrics.FixesReceived.WithLabelValues("rejected").Inc()
		span.SetStatus(codes.Error, err.Error())
		return FixUpdate{}, err
	}
	span.SetAttributes(telemetry.AttrSameFix.Bool(update.SameLocation))

	switch {
	case update.First:
		metrics.FixesReceived.WithLabelValues("first").Inc()
	case update.SameLocation:
		metrics.FixesReceived.WithLabelValues("same").Inc()
	default:
		metrics.FixesReceived.WithLabelValues("moved").Inc()
	}
	if !update.First {
		metrics.FixDisplacement.Observe(update.DisplacementMeters)
	}

	if update.SameLocation || s.publisher == nil {
		return update, nil
	}

	proj := s.session.Projection()
	r, err := s.RenderPoint(ctx, update.Point, proj)
	switch {
	case errors.Is(err, domain.ErrConsentRequired):
		slog.DebugContext(ctx, "readout not published, consent missing", "projection", proj.String())
		return update, nil
	case err != nil:
		slog.WarnContext(ctx, "render for publish failed", "projection", proj.String(), "error", err)
		return update, nil
	}
	r.UpdatedAt = update.UpdatedAt

	if err := s.publisher.PublishReadout(ctx, r); err != nil {
		slog.WarnContext(ctx, "publish readout failed", "projection", proj.String(), "error", err)
	}
	return update, nil
}
