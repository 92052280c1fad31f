package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/coords/internal/core/usecases"
)

// Pinger is a dependency that can report its connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Session  *usecases.LocationSession
	Consent  *usecases.ConsentService
	Readouts *usecases.ReadoutService
	NATS     *nats.Conn
	Store    Pinger

	// Tick is the live view's age refresh interval (default 1s).
	Tick time.Duration
}
