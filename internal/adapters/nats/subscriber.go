package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/coords/internal/core/domain"
)

// Subscriber implements ports.FixSubscriber using NATS JetStream.
type Subscriber struct {
	conn      *nats.Conn
	js        nats.JetStreamContext
	fixPrefix string
	durable   string
	subs      []*nats.Subscription
}

// NewSubscriber connects to NATS and ensures the fix stream exists.
func NewSubscriber(url, fixPrefix, durable string) (*Subscriber, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := ensureFixStream(js, fixPrefix); err != nil {
		conn.Close()
		return nil, err
	}
	return &Subscriber{conn: conn, js: js, fixPrefix: fixPrefix, durable: durable}, nil
}

// SubscribeFixes delivers every fix published under the fix prefix. Fixes
// that can never be applied (malformed JSON, coordinates out of range) are
// terminated instead of redelivered.
func (s *Subscriber) SubscribeFixes(ctx context.Context, handler func(ctx context.Context, fix domain.RawFix) error) error {
	sub, err := s.js.Subscribe(s.fixPrefix+".>", func(msg *nats.Msg) {
		var fix domain.RawFix
		if err := json.Unmarshal(msg.Data, &fix); err != nil {
			slog.Warn("malformed fix", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, fix); err != nil {
			if errors.Is(err, domain.ErrCoordinateOutOfRange) {
				slog.Warn("fix rejected", "subject", msg.Subject, "error", err)
				_ = msg.Term()
				return
			}
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(s.durable),
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Conn exposes the underlying connection for health checks.
func (s *Subscriber) Conn() *nats.Conn { return s.conn }

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
