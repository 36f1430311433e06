package funnel

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tx is the set of record operations available inside one atomic unit of
// work. The two sections that must be atomic — allocate+insert on intake
// and record-usage+rotate on verification — only touch links and leads
// through a Tx.
type Tx interface {
	// ActiveLinkWithCapacity returns the active link whose used count is
	// below capacity, lowest id first. Returns ErrNotFound when no such
	// link exists.
	ActiveLinkWithCapacity(ctx context.Context) (*Link, error)

	// NextRotationCandidate returns the inactive link with remaining
	// capacity and the lowest id, or ErrNotFound.
	NextRotationCandidate(ctx context.Context) (*Link, error)

	LinkByID(ctx context.Context, id int64) (*Link, error)
	InsertLink(ctx context.Context, url string, capacity int) (*Link, error)
	HasActiveLink(ctx context.Context) (bool, error)
	SetLinkActive(ctx context.Context, id int64, active bool) error
	SetLinkUsage(ctx context.Context, id int64, used int) error

	LeadByPhone(ctx context.Context, phone string) (*Lead, error)
	InsertLead(ctx context.Context, lead *Lead) error
	UpdateLeadPayout(ctx context.Context, id uuid.UUID, payout string, at time.Time) error
	UpdateLeadStatus(ctx context.Context, id uuid.UUID, status Status, at time.Time) error
}

// Store is the transactional storage collaborator.
//
// InTx runs fn as one atomic transaction: all writes commit together or
// roll back together when fn returns an error. Implementations must
// serialize concurrent transactions touching the same link rows.
//
// The remaining methods are non-transactional reads and append-only writes
// used outside the atomic sections.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	LeadByPhone(ctx context.Context, phone string) (*Lead, error)
	LinkByID(ctx context.Context, id int64) (*Link, error)
	ActiveLink(ctx context.Context) (*Link, error)
	ListLinks(ctx context.Context) ([]*Link, error)
	CountLeads(ctx context.Context) (int64, error)
	CountLeadsByStatus(ctx context.Context, status Status) (int64, error)

	InsertMessage(ctx context.Context, msg *Message) error
	InsertEvidence(ctx context.Context, ev *Evidence) error
}
