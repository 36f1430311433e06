package funnel

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/easyforty/funnel-go/internal/analytics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitRequest is an intake form submission.
type SubmitRequest struct {
	Phone        string
	PayoutHandle string
	Consent      bool
	ClientIP     string
}

// SubmitResult is the committed outcome of a submission.
type SubmitResult struct {
	Lead    *Lead
	Link    *Link
	Created bool
}

// Submit validates the submission, allocates a referral link, and creates
// or updates the lead — all link/lead writes in one atomic transaction.
// The welcome SMS and the lifecycle event go out after commit; their
// failure never rolls the lead back.
//
// Validation failures (ErrConsentRequired, ErrInvalidPhone,
// ErrMissingPayoutHandle, ErrOptedOut) leave no side effects.
// ErrNoCapacity means the pool needs seeding; nothing is written.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if !req.Consent {
		return nil, ErrConsentRequired
	}

	phone, err := NormalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}

	payout := strings.TrimSpace(req.PayoutHandle)
	if payout == "" {
		return nil, ErrMissingPayoutHandle
	}

	now := time.Now().UTC()

	var result SubmitResult

	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		// Capacity is the gate for the whole operation, even for
		// resubmissions: an exhausted pool aborts before any write.
		active, err := s.pool.Allocate(ctx, tx)
		if err != nil {
			return err
		}

		lead, err := tx.LeadByPhone(ctx, phone)

		switch {
		case errors.Is(err, ErrNotFound):
			lead = &Lead{
				ID:           uuid.New(),
				Phone:        phone,
				PayoutHandle: payout,
				Status:       StatusLinkSent,
				LinkID:       active.ID,
				CreatedAt:    now,
				LastUpdated:  now,
			}
			if err := tx.InsertLead(ctx, lead); err != nil {
				return err
			}

			result = SubmitResult{Lead: lead, Link: active, Created: true}

		case err != nil:
			return err

		case lead.Status == StatusOptedOut:
			// Opt-out is terminal; a fresh submission cannot re-arm it.
			return ErrOptedOut

		default:
			// Resubmission: update the payout handle only, keep the
			// originally allocated link.
			if err := tx.UpdateLeadPayout(ctx, lead.ID, payout, now); err != nil {
				return err
			}

			lead.PayoutHandle = payout
			lead.LastUpdated = now

			own, err := tx.LinkByID(ctx, lead.LinkID)
			if err != nil {
				return err
			}

			result = SubmitResult{Lead: lead, Link: own}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("lead submission committed",
		zap.String("lead_id", result.Lead.ID.String()),
		zap.Int64("link_id", result.Link.ID),
		zap.Bool("created", result.Created),
	)

	s.sendAndLog(ctx, result.Lead, s.texts.Welcome(result.Link.URL))

	s.publishErr(analytics.TopicLeadSubmitted, s.events.LeadSubmitted(&analytics.LeadSubmittedEvent{
		LeadID:      result.Lead.ID.String(),
		Phone:       result.Lead.Phone,
		LinkID:      result.Lead.LinkID,
		Resubmitted: !result.Created,
		SubmittedAt: now,
		ClientIP:    req.ClientIP,
	}))

	return &result, nil
}
