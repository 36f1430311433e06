package funnel

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks a lead through the verification lifecycle.
type Status string

const (
	// StatusLinkSent is the initial status, set when the referral link SMS goes out.
	StatusLinkSent Status = "LINK_SENT"
	// StatusRepliedDone means the lead replied DONE and was asked for a screenshot.
	StatusRepliedDone Status = "REPLIED_DONE"
	// StatusVerified means the lead supplied photographic proof.
	StatusVerified Status = "VERIFIED"
	// StatusOptedOut is terminal: no further transitions, no further messages.
	StatusOptedOut Status = "OPTED_OUT"
)

// Lead is a phone number that submitted the intake form.
//
// Phone is stored normalized (digits and an optional leading "+", nothing
// else) and is unique across leads. LinkID is set exactly once at creation
// and never reassigned, even when the lead resubmits the form.
type Lead struct {
	ID           uuid.UUID
	Phone        string
	PayoutHandle string
	Status       Status
	LinkID       int64
	CreatedAt    time.Time
	LastUpdated  time.Time
}
