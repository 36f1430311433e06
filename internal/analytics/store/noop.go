// Package store holds analytics.Store implementations.
package store

import (
	"context"

	"github.com/easyforty/funnel-go/internal/analytics"
	"go.uber.org/zap"
)

// Noop is a no-op implementation of analytics.Store that logs events.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveLeadSubmitted(_ context.Context, event *analytics.LeadSubmittedEvent) error {
	n.logger.Info("lead submitted event received",
		zap.String("leadId", event.LeadID),
		zap.Int64("linkId", event.LinkID),
		zap.Bool("resubmitted", event.Resubmitted),
	)

	return nil
}

func (n *Noop) SaveLeadVerified(_ context.Context, event *analytics.LeadVerifiedEvent) error {
	n.logger.Info("lead verified event received",
		zap.String("leadId", event.LeadID),
		zap.Int("evidenceCount", event.EvidenceCount),
	)

	return nil
}

func (n *Noop) SaveLeadOptedOut(_ context.Context, event *analytics.LeadOptedOutEvent) error {
	n.logger.Info("lead opted out event received",
		zap.String("leadId", event.LeadID),
	)

	return nil
}

func (n *Noop) SaveLinkRotated(_ context.Context, event *analytics.LinkRotatedEvent) error {
	n.logger.Info("link rotated event received",
		zap.Int64("fromLinkId", event.FromLinkID),
		zap.Int64("toLinkId", event.ToLinkID),
	)

	return nil
}
