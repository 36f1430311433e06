package messaging

import (
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisPublisher creates a Redis Streams publisher for funnel events.
func NewRedisPublisher(client redis.UniversalClient, logger *zap.Logger) (message.Publisher, error) {
	return redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: client},
		newWatermillLogger(logger),
	)
}

// NewRedisSubscriber creates a Redis Streams subscriber. All consumers in
// the same group share delivery of each topic.
func NewRedisSubscriber(client redis.UniversalClient, group string, logger *zap.Logger) (message.Subscriber, error) {
	return redisstream.NewSubscriber(
		redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: group,
		},
		newWatermillLogger(logger),
	)
}
