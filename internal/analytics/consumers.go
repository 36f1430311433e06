package analytics

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/easyforty/funnel-go/internal/messaging"
	"go.uber.org/zap"
)

// RegisterConsumers adds one consumer per lifecycle topic to the group,
// each forwarding its events to the store.
func RegisterConsumers(
	group *messaging.ConsumerGroup,
	subscriber message.Subscriber,
	store Store,
	logger *zap.Logger,
) {
	group.Add(messaging.NewConsumer(subscriber, TopicLeadSubmitted,
		func(ctx context.Context, event *LeadSubmittedEvent) error {
			return store.SaveLeadSubmitted(ctx, event)
		}, logger))

	group.Add(messaging.NewConsumer(subscriber, TopicLeadVerified,
		func(ctx context.Context, event *LeadVerifiedEvent) error {
			return store.SaveLeadVerified(ctx, event)
		}, logger))

	group.Add(messaging.NewConsumer(subscriber, TopicLeadOptedOut,
		func(ctx context.Context, event *LeadOptedOutEvent) error {
			return store.SaveLeadOptedOut(ctx, event)
		}, logger))

	group.Add(messaging.NewConsumer(subscriber, TopicLinkRotated,
		func(ctx context.Context, event *LinkRotatedEvent) error {
			return store.SaveLinkRotated(ctx, event)
		}, logger))
}
