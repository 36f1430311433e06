package funnel

import (
	"regexp"
	"strings"
	"unicode"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{6,15}$`)

// stripPhone removes whitespace and hyphens, keeping digits and "+".
func stripPhone(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}

		return r
	}, raw)
}

// NormalizePhone validates and normalizes an intake phone number.
// Returns ErrInvalidPhone when the stripped value is not an international
// number shape.
func NormalizePhone(raw string) (string, error) {
	phone := stripPhone(strings.TrimSpace(raw))
	if !phonePattern.MatchString(phone) {
		return "", ErrInvalidPhone
	}

	return phone, nil
}

// NormalizeSender normalizes an inbound sender number for lead lookup.
// Inbound numbers are provider-supplied, so this only strips; it never
// rejects.
func NormalizeSender(raw string) string {
	return stripPhone(strings.TrimSpace(raw))
}
