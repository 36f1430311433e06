package funnel

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// SeedEntry describes one link to insert into the pool.
type SeedEntry struct {
	URL      string
	Capacity int
}

// Pool manages the capped, shared referral links: allocation to new leads,
// usage accounting on verification, and rotation at the capacity boundary.
type Pool struct {
	store  Store
	logger *zap.Logger
}

// NewPool creates a link pool over the given store.
func NewPool(store Store, logger *zap.Logger) *Pool {
	return &Pool{
		store:  store,
		logger: logger,
	}
}

// Allocate selects the link to hand to a new lead: the active link with
// remaining capacity. Allocation never increments the usage count; that
// happens on verification via RecordUsage. Returns ErrNoCapacity when no
// active link qualifies — callers must not fall back to an inactive link.
//
// Runs inside the caller's transaction so that selection and the dependent
// lead insert are one atomic unit.
func (p *Pool) Allocate(ctx context.Context, tx Tx) (*Link, error) {
	link, err := tx.ActiveLinkWithCapacity(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoCapacity
		}

		return nil, err
	}

	return link, nil
}

// RecordUsage increments the link's usage count, clamped at capacity. When
// the increment fills an active link, the link is deactivated and the
// lowest-id inactive link with remaining capacity is activated in the same
// transaction, so no observable state has two active links or an
// active-but-full link. Returns the newly activated link when a rotation
// happened.
//
// A missing link is logged and skipped rather than failing the caller's
// verification transition.
func (p *Pool) RecordUsage(ctx context.Context, tx Tx, linkID int64) (*Link, error) {
	link, err := tx.LinkByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			p.logger.Warn("usage recorded against unknown link", zap.Int64("link_id", linkID))

			return nil, nil
		}

		return nil, err
	}

	if link.UsedCount < link.Capacity {
		link.UsedCount++
		if err := tx.SetLinkUsage(ctx, link.ID, link.UsedCount); err != nil {
			return nil, err
		}
	}

	if !link.Full() || !link.Active {
		return nil, nil
	}

	if err := tx.SetLinkActive(ctx, link.ID, false); err != nil {
		return nil, err
	}

	next, err := tx.NextRotationCandidate(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Zero active links is a low-capacity condition for
			// operators, not an error for the verifying lead.
			p.logger.Warn("link pool exhausted, no rotation candidate",
				zap.Int64("deactivated_link_id", link.ID),
			)

			return nil, nil
		}

		return nil, err
	}

	if err := tx.SetLinkActive(ctx, next.ID, true); err != nil {
		return nil, err
	}

	next.Active = true

	p.logger.Info("rotated referral link",
		zap.Int64("from_link_id", link.ID),
		zap.Int64("to_link_id", next.ID),
	)

	return next, nil
}

// Seed inserts new links, all initially inactive, skipping entries with an
// empty URL or a non-positive capacity. When the pool ends up with no
// active link, the lowest-id link with remaining capacity is activated.
// Existing links are never reset, so repeated seeding is safe.
func (p *Pool) Seed(ctx context.Context, entries []SeedEntry) (int, error) {
	inserted := 0

	err := p.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		inserted = 0

		for _, entry := range entries {
			if entry.URL == "" || entry.Capacity < 1 {
				continue
			}

			if _, err := tx.InsertLink(ctx, entry.URL, entry.Capacity); err != nil {
				return err
			}

			inserted++
		}

		active, err := tx.HasActiveLink(ctx)
		if err != nil || active {
			return err
		}

		candidate, err := tx.NextRotationCandidate(ctx)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}

			return err
		}

		return tx.SetLinkActive(ctx, candidate.ID, true)
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}
