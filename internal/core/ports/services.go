package ports

import (
	"context"

	"github.com/samirrijal/coords/internal/core/domain"
)

// ConsentStore is a boolean preference store keyed by preference name.
// Missing keys read as false.
type ConsentStore interface {
	Allowed(ctx context.Context, key string) (bool, error)
	SetAllowed(ctx context.Context, key string, allowed bool) error
}

// ThreeWordResolver translates a coordinate into a three-word address such
// as "filled.count.soap". Network failures and unsuccessful responses are
// returned as errors wrapping domain.ErrLookupFailed.
type ThreeWordResolver interface {
	ConvertTo3WA(ctx context.Context, lat, lon float64) (string, error)
}

// FixSubscriber delivers raw fixes from the positioning subsystem.
type FixSubscriber interface {
	SubscribeFixes(ctx context.Context, handler func(ctx context.Context, fix domain.RawFix) error) error
}

// ReadoutPublisher publishes rendered readouts to interested consumers.
type ReadoutPublisher interface {
	PublishReadout(ctx context.Context, r *domain.Readout) error
}
