package valkey

import (
	"context"
	"fmt"
	"strconv"

	"github.com/valkey-io/valkey-go"
)

// ConsentStore implements ports.ConsentStore using Valkey (Redis-compatible).
// Each preference is a string key holding "true" or "false".
type ConsentStore struct {
	client valkey.Client
	prefix string
}

// New connects to Valkey. Keys are stored as prefix+key.
func New(addr, prefix string) (*ConsentStore, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &ConsentStore{client: client, prefix: prefix}, nil
}

// Allowed reads a preference. A missing key reads as false.
func (s *ConsentStore) Allowed(ctx context.Context, key string) (bool, error) {
	v, err := s.client.Do(ctx, s.client.B().Get().Key(s.prefix+key).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	allowed, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("consent %s: %w", key, err)
	}
	return allowed, nil
}

// SetAllowed stores a preference without expiry.
func (s *ConsentStore) SetAllowed(ctx context.Context, key string, allowed bool) error {
	cmd := s.client.Do(ctx,
		s.client.B().Set().Key(s.prefix+key).Value(strconv.FormatBool(allowed)).Build(),
	)
	return cmd.Error()
}

// Ping checks connectivity.
func (s *ConsentStore) Ping(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (s *ConsentStore) Close() {
	s.client.Close()
}
