// Package ratelimit provides sliding-window request limiting for the
// public endpoints.
package ratelimit

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Store is the backing storage for request counters.
type Store interface {
	// Record records a request and returns the count of requests in the
	// current window, pruning expired entries.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}

// LimitConfig is one window/max pair.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// MetadataKey is the operation-metadata key carrying per-endpoint limits.
const MetadataKey = "rateLimit"

// EndpointConfig defines per-endpoint rate limit configuration, attached to
// huma operations via the Metadata field.
type EndpointConfig struct {
	Limits []LimitConfig

	// Disabled skips rate limiting entirely for this endpoint.
	Disabled bool
}

// GetEndpointConfig extracts the EndpointConfig from operation metadata.
func GetEndpointConfig(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}

// Limiter checks a client key against a set of limits.
type Limiter struct {
	store Store
}

// NewLimiter creates a limiter over the given store.
func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store}
}

// Allow records the request against every limit and reports whether all of
// them still hold. The exceeded limit (if any) is returned for logging.
func (l *Limiter) Allow(ctx context.Context, key string, limits []LimitConfig) (bool, *LimitConfig, error) {
	for _, limit := range limits {
		windowKey := key + ":" + limit.Window.String()

		count, err := l.store.Record(ctx, windowKey, limit.Window)
		if err != nil {
			return false, nil, err
		}

		if count > limit.Max {
			exceeded := limit

			return false, &exceeded, nil
		}
	}

	return true, nil, nil
}
