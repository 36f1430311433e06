package sms

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
)

// Verifier checks Telnyx webhook signatures: Ed25519 over
// "<timestamp>|<raw body>" (or the raw body alone when no timestamp header
// was sent), with the signature base64-encoded.
type Verifier struct {
	publicKey ed25519.PublicKey
}

// NewVerifier creates a verifier from the base64-encoded 32-byte public key
// shown in the Telnyx portal.
func NewVerifier(base64Key string) (*Verifier, error) {
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("decode webhook public key: %w", err)
	}

	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("webhook public key must be %d bytes, got %d", ed25519.PublicKeySize, len(key))
	}

	return &Verifier{publicKey: ed25519.PublicKey(key)}, nil
}

// Verify reports whether the signature matches the payload. A nil Verifier
// is "open mode": verification is skipped and every payload passes.
func (v *Verifier) Verify(payload []byte, timestamp, signatureB64 string) bool {
	if v == nil {
		return true
	}

	if signatureB64 == "" {
		return false
	}

	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return false
	}

	message := payload
	if timestamp != "" {
		message = append([]byte(timestamp+"|"), payload...)
	}

	return ed25519.Verify(v.publicKey, message, sig)
}
