package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/coords/internal/core/domain"
	"github.com/samirrijal/coords/internal/core/ports"
)

// ConsentService records the user's permission for projections that send
// the location to a third party.
type ConsentService struct {
	store ports.ConsentStore
}

// NewConsentService creates a new ConsentService.
func NewConsentService(store ports.ConsentStore) *ConsentService {
	return &ConsentService{store: store}
}

// Allowed reports whether p may be rendered. Projections that stay on the
// device are always allowed.
func (s *ConsentService) Allowed(ctx context.Context, p domain.Projection) (bool, error) {
	if !p.Valid() {
		return false, domain.ErrUnknownProjection
	}
	if !p.RequiresNetwork() {
		return true, nil
	}
	ok, err := s.store.Allowed(ctx, p.ConsentKey())
	if err != nil {
		return false, fmt.Errorf("read consent %s: %w", p.ConsentKey(), err)
	}
	return ok, nil
}

// Grant stores consent for p.
func (s *ConsentService) Grant(ctx context.Context, p domain.Projection) error {
	return s.set(ctx, p, true)
}

// Revoke withdraws consent for p.
func (s *ConsentService) Revoke(ctx context.Context, p domain.Projection) error {
	return s.set(ctx, p, false)
}

func (s *ConsentService) set(ctx context.Context, p domain.Projection, allowed bool) error {
	if !p.Valid() {
		return domain.ErrUnknownProjection
	}
	if !p.RequiresNetwork() {
		return nil
	}
	if err := s.store.SetAllowed(ctx, p.ConsentKey(), allowed); err != nil {
		return fmt.Errorf("write consent %s: %w", p.ConsentKey(), err)
	}
	slog.InfoContext(ctx, "consent changed", "projection", p.String(), "allowed", allowed)
	return nil
}
