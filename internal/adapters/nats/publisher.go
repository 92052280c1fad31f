package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/coords/internal/core/domain"
)

// FixStream is the JetStream stream holding raw fixes.
const FixStream = "COORDS_FIXES"

const fixMaxAge = time.Minute

// Publisher implements ports.ReadoutPublisher and publishes raw fixes.
// Fixes go through JetStream; readouts are fire-and-forget core NATS
// messages on <readoutPrefix>.<projection>.
type Publisher struct {
	conn          *nats.Conn
	js            nats.JetStreamContext
	fixPrefix     string
	readoutPrefix string
}

// NewPublisher connects to NATS and ensures the fix stream exists.
func NewPublisher(url, fixPrefix, readoutPrefix string) (*Publisher, error) {
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

	return &Publisher{conn: conn, js: js, fixPrefix: fixPrefix, readoutPrefix: readoutPrefix}, nil
}

// fixStreamConfig describes the fix stream as a transport buffer only: held
// in memory, one pending fix per source, gone after a minute.
func fixStreamConfig(fixPrefix string) nats.StreamConfig {
	return nats.StreamConfig{
		Name:              FixStream,
		Subjects:          []string{fixPrefix + ".>"},
		Retention:         nats.LimitsPolicy,
		MaxAge:            fixMaxAge,
		MaxMsgsPerSubject: 1,
		Discard:           nats.DiscardOld,
		Storage:           nats.MemoryStorage,
	}
}

func ensureFixStream(js nats.JetStreamContext, fixPrefix string) error {
	cfg := fixStreamConfig(fixPrefix)
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// PublishFix publishes a raw fix on <fixPrefix>.<source>.
func (p *Publisher) PublishFix(ctx context.Context, source string, fix domain.RawFix) error {
	data, err := json.Marshal(fix)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(p.fixPrefix+"."+source, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishReadout(ctx context.Context, r *domain.Readout) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.readoutPrefix+"."+r.Projection.String(), data)
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// Connect opens a plain NATS connection that keeps reconnecting.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
