package store

import (
	"context"

	"github.com/easyforty/funnel-go/internal/analytics"
	"github.com/redis/go-redis/v9"
)

// Redis counts lifecycle events in Redis, one counter per topic under
// "funnel:counters:".
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis-backed analytics counter store.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		client: client,
		prefix: "funnel:counters:",
	}
}

func (r *Redis) incr(ctx context.Context, topic string) error {
	return r.client.Incr(ctx, r.prefix+topic).Err()
}

func (r *Redis) SaveLeadSubmitted(ctx context.Context, _ *analytics.LeadSubmittedEvent) error {
	return r.incr(ctx, analytics.TopicLeadSubmitted)
}

func (r *Redis) SaveLeadVerified(ctx context.Context, _ *analytics.LeadVerifiedEvent) error {
	return r.incr(ctx, analytics.TopicLeadVerified)
}

func (r *Redis) SaveLeadOptedOut(ctx context.Context, _ *analytics.LeadOptedOutEvent) error {
	return r.incr(ctx, analytics.TopicLeadOptedOut)
}

func (r *Redis) SaveLinkRotated(ctx context.Context, _ *analytics.LinkRotatedEvent) error {
	return r.incr(ctx, analytics.TopicLinkRotated)
}
