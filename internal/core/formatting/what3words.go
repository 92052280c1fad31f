package formatting

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/samirrijal/coords/internal/core/domain"
	"github.com/samirrijal/coords/internal/core/ports"
	"github.com/samirrijal/coords/internal/pkg/metrics"
)

// ThreeWordErrorKey is the string-table key shown when a lookup fails.
const ThreeWordErrorKey = "w3w_error"

const cacheOperation = "what3words"

// lookupTimeout bounds a shared lookup once it is detached from its callers.
const lookupTimeout = 15 * time.Second

// ThreeWordCache fronts a ThreeWordResolver with an unbounded in-memory map.
// Each distinct coordinate is resolved over the network at most once while
// the cache lives; failures are never stored, so the next lookup retries.
// Concurrent misses on one coordinate share a single network call.
type ThreeWordCache struct {
	resolver ports.ThreeWordResolver

	mu      sync.RWMutex
	entries map[string]string

	inflight singleflight.Group
}

// NewThreeWordCache creates an empty cache in front of resolver.
func NewThreeWordCache(resolver ports.ThreeWordResolver) *ThreeWordCache {
	return &ThreeWordCache{
		resolver: resolver,
		entries:  make(map[string]string),
	}
}

// Len returns the number of cached addresses.
func (c *ThreeWordCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ThreeWordCache) get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	words, ok := c.entries[key]
	return words, ok
}

func (c *ThreeWordCache) put(key, words string) {
	c.mu.Lock()
	c.entries[key] = words
	c.mu.Unlock()
}

// Lookup returns the three-word address of p with words separated by
// newlines, e.g. "filled\ncount\nsoap".
func (c *ThreeWordCache) Lookup(ctx context.Context, p domain.GeodeticPoint) (string, error) {
	key := p.Key()
	if words, ok := c.get(key); ok {
		metrics.CacheHits.WithLabelValues(cacheOperation).Inc()
		slog.DebugContext(ctx, "three-word cache hit", "key", key)
		return words, nil
	}

	metrics.CacheMisses.WithLabelValues(cacheOperation).Inc()
	slog.DebugContext(ctx, "three-word cache miss", "key", key)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	// The shared call outlives any single caller: one caller giving up must
	// not fail the others waiting on the same key.
	ch := c.inflight.DoChan(key, func() (interface{}, error) {
		if words, ok := c.get(key); ok {
			return words, nil
		}

		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()

		raw, err := c.resolver.ConvertTo3WA(lookupCtx, p.Latitude().InexactFloat64(), p.Longitude().InexactFloat64())
		if err != nil {
			metrics.ThreeWordLookups.WithLabelValues("error").Inc()
			return "", err
		}
		metrics.ThreeWordLookups.WithLabelValues("ok").Inc()

		words := strings.ReplaceAll(raw, ".", "\n")
		c.put(key, words)
		return words, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Format renders the three-word address of p. A failed lookup yields the
// ThreeWordErrorKey placeholder rather than an error; only cancellation of
// ctx is returned as an error.
func (c *ThreeWordCache) Format(ctx context.Context, p domain.GeodeticPoint) ([]domain.LabelledDatum, error) {
	words, err := c.Lookup(ctx, p)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.WarnContext(ctx, "three-word lookup failed", "key", p.Key(), "error", err)
		return []domain.LabelledDatum{threeWordPlaceholder()}, nil
	}

	return []domain.LabelledDatum{{
		Label:     domain.LabelW3WAddress,
		Value:     words,
		Priority:  1,
		Alignment: domain.AlignLeft,
	}}, nil
}

func threeWordPlaceholder() domain.LabelledDatum {
	return domain.LabelledDatum{
		Label:      domain.LabelW3WAddress,
		Value:      ThreeWordErrorKey,
		ValueIsKey: true,
		Priority:   1,
		Alignment:  domain.AlignLeft,
	}
}
