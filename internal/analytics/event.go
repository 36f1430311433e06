package analytics

import "time"

// Topics for funnel lifecycle events.
const (
	TopicLeadSubmitted = "lead.submitted"
	TopicLeadVerified  = "lead.verified"
	TopicLeadOptedOut  = "lead.opted_out"
	TopicLinkRotated   = "link.rotated"
)

// LeadSubmittedEvent is emitted after a submission commits.
type LeadSubmittedEvent struct {
	LeadID      string    `json:"leadId"`
	Phone       string    `json:"phone"`
	LinkID      int64     `json:"linkId"`
	Resubmitted bool      `json:"resubmitted"`
	SubmittedAt time.Time `json:"submittedAt"`
	ClientIP    string    `json:"clientIp,omitempty"`
}

// LeadVerifiedEvent is emitted after a proof-of-deposit verification commits.
type LeadVerifiedEvent struct {
	LeadID        string    `json:"leadId"`
	LinkID        int64     `json:"linkId"`
	EvidenceCount int       `json:"evidenceCount"`
	VerifiedAt    time.Time `json:"verifiedAt"`
}

// LeadOptedOutEvent is emitted after a stop-keyword opt-out commits.
type LeadOptedOutEvent struct {
	LeadID     string    `json:"leadId"`
	OptedOutAt time.Time `json:"optedOutAt"`
}

// LinkRotatedEvent is emitted when a capacity-exhausted link is rotated out.
type LinkRotatedEvent struct {
	FromLinkID int64     `json:"fromLinkId"`
	ToLinkID   int64     `json:"toLinkId"`
	RotatedAt  time.Time `json:"rotatedAt"`
}
