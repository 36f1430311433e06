package funnel

import "errors"

var (
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNoCapacity is returned when no active link has remaining capacity.
	// Operators need to seed more links; callers must not fall back to an
	// inactive link.
	ErrNoCapacity = errors.New("no active referral link with remaining capacity")

	// ErrConsentRequired rejects submissions without explicit consent.
	ErrConsentRequired = errors.New("consent required")

	// ErrInvalidPhone rejects phone numbers that are not an international
	// number of 7-16 digits with an optional leading "+".
	ErrInvalidPhone = errors.New("invalid phone")

	// ErrMissingPayoutHandle rejects submissions with an empty payout handle.
	ErrMissingPayoutHandle = errors.New("missing payout handle")

	// ErrOptedOut rejects submissions from a phone number that opted out.
	ErrOptedOut = errors.New("phone number has opted out")
)
