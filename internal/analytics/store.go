package analytics

import "context"

// Store persists aggregate funnel metrics derived from lifecycle events.
// Nothing beyond counts is kept.
type Store interface {
	SaveLeadSubmitted(ctx context.Context, event *LeadSubmittedEvent) error
	SaveLeadVerified(ctx context.Context, event *LeadVerifiedEvent) error
	SaveLeadOptedOut(ctx context.Context, event *LeadOptedOutEvent) error
	SaveLinkRotated(ctx context.Context, event *LinkRotatedEvent) error
}
