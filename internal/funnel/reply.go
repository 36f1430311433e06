package funnel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/easyforty/funnel-go/internal/analytics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InboundMessage is the typed form of a provider webhook event, produced by
// the transport parser at the boundary.
type InboundMessage struct {
	From      string
	To        string
	Text      string
	Direction string
	MediaURLs []string
}

// HandleInbound dispatches an inbound SMS/MMS through the lead state
// machine. Keyword checks take precedence over media checks. Returns an
// error only on storage failures; transport callers acknowledge inbound
// traffic regardless, so upstream retries cannot duplicate committed
// transitions.
func (s *Service) HandleInbound(ctx context.Context, in InboundMessage) error {
	if dir := strings.ToLower(in.Direction); dir != "" && dir != "inbound" && dir != "in" {
		return nil
	}

	phone := NormalizeSender(in.From)
	if phone == "" {
		return nil
	}

	lead, err := s.store.LeadByPhone(ctx, phone)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		lead = nil
	}

	// Opt-out is terminal: nothing from this lead is processed or logged.
	if lead != nil && lead.Status == StatusOptedOut {
		return nil
	}

	switch ClassifyKeyword(in.Text) {
	case KeywordStop:
		return s.handleStop(ctx, lead)
	case KeywordHelp:
		return s.handleHelp(ctx, phone)
	case KeywordDone:
		return s.handleDone(ctx, lead, phone)
	case KeywordNone:
	}

	if len(in.MediaURLs) > 0 {
		if lead == nil {
			// No record to attach the proof to; drop it.
			s.logger.Info("media from unknown number dropped", zap.String("phone", phone))

			return nil
		}

		return s.handleProof(ctx, lead, in)
	}

	if lead != nil {
		s.logInbound(ctx, lead, in.Text, "")
	}

	return nil
}

// handleStop records the opt-out. The carrier already blocks further
// traffic for toll-free numbers; the status flip keeps our side honest.
func (s *Service) handleStop(ctx context.Context, lead *Lead) error {
	if lead == nil {
		return nil
	}

	now := time.Now().UTC()

	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.UpdateLeadStatus(ctx, lead.ID, StatusOptedOut, now)
	})
	if err != nil {
		return err
	}

	s.logger.Info("lead opted out", zap.String("lead_id", lead.ID.String()))

	s.publishErr(analytics.TopicLeadOptedOut, s.events.LeadOptedOut(&analytics.LeadOptedOutEvent{
		LeadID:     lead.ID.String(),
		OptedOutAt: now,
	}))

	return nil
}

// handleHelp answers HELP for known and unknown numbers alike.
func (s *Service) handleHelp(ctx context.Context, phone string) error {
	if err := s.sms.Send(ctx, phone, s.texts.Help()); err != nil {
		s.logger.Error("help sms send failed", zap.Error(err))
	}

	return nil
}

func (s *Service) handleDone(ctx context.Context, lead *Lead, phone string) error {
	if lead == nil {
		if err := s.sms.Send(ctx, phone, s.texts.NotFound()); err != nil {
			s.logger.Error("not-found sms send failed", zap.Error(err))
		}

		return nil
	}

	now := time.Now().UTC()

	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.UpdateLeadStatus(ctx, lead.ID, StatusRepliedDone, now)
	})
	if err != nil {
		return err
	}

	lead.Status = StatusRepliedDone

	s.sendAndLog(ctx, lead, s.texts.AskForScreenshot())

	return nil
}

// handleProof retrieves each attachment independently: a failed fetch skips
// the evidence row but still logs the message, and never aborts the
// remaining attachments or the verification transition. The status flip and
// the link-usage accounting commit in one transaction after the fetch loop.
func (s *Service) handleProof(ctx context.Context, lead *Lead, in InboundMessage) error {
	now := time.Now().UTC()
	stored := 0

	for _, mediaURL := range in.MediaURLs {
		if mediaURL == "" {
			continue
		}

		data, err := s.media.Fetch(ctx, mediaURL)
		if err != nil {
			s.logger.Warn("media fetch failed",
				zap.String("lead_id", lead.ID.String()),
				zap.String("url", mediaURL),
				zap.Error(err),
			)
		} else if err := s.storeEvidence(ctx, lead, data, now); err != nil {
			s.logger.Error("failed to store evidence",
				zap.String("lead_id", lead.ID.String()),
				zap.Error(err),
			)
		} else {
			stored++
		}

		s.logInbound(ctx, lead, in.Text, mediaURL)
	}

	var rotated *Link

	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.UpdateLeadStatus(ctx, lead.ID, StatusVerified, now); err != nil {
			return err
		}

		next, err := s.pool.RecordUsage(ctx, tx, lead.LinkID)
		if err != nil {
			return err
		}

		rotated = next

		return nil
	})
	if err != nil {
		return err
	}

	lead.Status = StatusVerified

	s.logger.Info("lead verified",
		zap.String("lead_id", lead.ID.String()),
		zap.Int("evidence_stored", stored),
	)

	s.sendAndLog(ctx, lead, s.texts.Verified(lead.PayoutHandle))

	s.publishErr(analytics.TopicLeadVerified, s.events.LeadVerified(&analytics.LeadVerifiedEvent{
		LeadID:        lead.ID.String(),
		LinkID:        lead.LinkID,
		EvidenceCount: stored,
		VerifiedAt:    now,
	}))

	if rotated != nil {
		s.publishErr(analytics.TopicLinkRotated, s.events.LinkRotated(&analytics.LinkRotatedEvent{
			FromLinkID: lead.LinkID,
			ToLinkID:   rotated.ID,
			RotatedAt:  now,
		}))
	}

	return nil
}

func (s *Service) storeEvidence(ctx context.Context, lead *Lead, data []byte, now time.Time) error {
	key := fmt.Sprintf("leads/%s/%d_%s", lead.ID, now.UnixMilli(), s.keyGen())

	if err := s.blobs.Put(ctx, key, data); err != nil {
		return err
	}

	return s.store.InsertEvidence(ctx, &Evidence{
		ID:         uuid.New(),
		LeadID:     lead.ID,
		StorageKey: key,
		CreatedAt:  now,
	})
}

func (s *Service) logInbound(ctx context.Context, lead *Lead, text, mediaURL string) {
	if text == "" && mediaURL != "" {
		text = "(media)"
	}

	msg := &Message{
		ID:        uuid.New(),
		LeadID:    lead.ID,
		Direction: DirectionIn,
		Text:      text,
		MediaURL:  mediaURL,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.InsertMessage(ctx, msg); err != nil {
		s.logger.Error("failed to log inbound message",
			zap.String("lead_id", lead.ID.String()),
			zap.Error(err),
		)
	}
}
