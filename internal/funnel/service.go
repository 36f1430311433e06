package funnel

import (
	"context"
	"time"

	"github.com/easyforty/funnel-go/internal/analytics"
	"github.com/easyforty/funnel-go/internal/messaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SMSSender delivers outbound messages. Send reports only the delivery
// attempt result; delivery receipts are not consumed here.
type SMSSender interface {
	Send(ctx context.Context, to, text string) error
}

// MediaFetcher retrieves an MMS attachment by its provider URL.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// BlobStore persists fetched attachment bytes under a caller-chosen key.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
}

// KeyGenerator produces the random suffix for evidence storage keys.
type KeyGenerator func() string

// Events groups the typed publish functions for funnel lifecycle events.
// Publish failures are logged, never surfaced to leads.
type Events struct {
	LeadSubmitted messaging.Publish[analytics.LeadSubmittedEvent]
	LeadVerified  messaging.Publish[analytics.LeadVerifiedEvent]
	LeadOptedOut  messaging.Publish[analytics.LeadOptedOutEvent]
	LinkRotated   messaging.Publish[analytics.LinkRotatedEvent]
}

// NoopEvents returns an Events set that discards everything. Used by tests
// and when no event bus is configured.
func NoopEvents() Events {
	return Events{
		LeadSubmitted: messaging.NoopPublish[analytics.LeadSubmittedEvent](),
		LeadVerified:  messaging.NoopPublish[analytics.LeadVerifiedEvent](),
		LeadOptedOut:  messaging.NoopPublish[analytics.LeadOptedOutEvent](),
		LinkRotated:   messaging.NoopPublish[analytics.LinkRotatedEvent](),
	}
}

// Service orchestrates the intake and reply flows over the link pool and
// lead registry. External I/O (SMS, media retrieval, blob writes, event
// publishing) always happens outside the atomic transactions.
type Service struct {
	store  Store
	pool   *Pool
	sms    SMSSender
	media  MediaFetcher
	blobs  BlobStore
	texts  Texts
	keyGen KeyGenerator
	events Events
	logger *zap.Logger
}

// NewService creates the funnel service.
func NewService(
	store Store,
	pool *Pool,
	sms SMSSender,
	media MediaFetcher,
	blobs BlobStore,
	texts Texts,
	keyGen KeyGenerator,
	events Events,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:  store,
		pool:   pool,
		sms:    sms,
		media:  media,
		blobs:  blobs,
		texts:  texts,
		keyGen: keyGen,
		events: events,
		logger: logger,
	}
}

// sendAndLog sends an SMS to the lead and appends it to the conversation
// log. A failed send is final for that attempt: it is logged, the message
// row is still written, and the lead's committed state stays authoritative.
func (s *Service) sendAndLog(ctx context.Context, lead *Lead, text string) {
	if err := s.sms.Send(ctx, lead.Phone, text); err != nil {
		s.logger.Error("sms send failed",
			zap.String("lead_id", lead.ID.String()),
			zap.Error(err),
		)
	}

	msg := &Message{
		ID:        uuid.New(),
		LeadID:    lead.ID,
		Direction: DirectionOut,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.InsertMessage(ctx, msg); err != nil {
		s.logger.Error("failed to log outbound message",
			zap.String("lead_id", lead.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) publishErr(topic string, err error) {
	if err != nil {
		s.logger.Error("failed to publish event", zap.String("topic", topic), zap.Error(err))
	}
}
