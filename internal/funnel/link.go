package funnel

import "time"

// Link is a capped referral link shared among leads.
//
// At most one link is active at any instant. UsedCount only moves up, via
// Pool.RecordUsage, and never past Capacity.
type Link struct {
	ID        int64
	URL       string
	Capacity  int
	UsedCount int
	Active    bool
	CreatedAt time.Time
}

// Full reports whether the link has no remaining capacity.
func (l *Link) Full() bool {
	return l.UsedCount >= l.Capacity
}
