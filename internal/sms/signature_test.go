package sms_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/easyforty/funnel-go/internal/sms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSignedPayload(t *testing.T) (*sms.Verifier, ed25519.PrivateKey) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	verifier, err := sms.NewVerifier(base64.StdEncoding.EncodeToString(pub))
	require.NoError(t, err)

	return verifier, priv
}

func TestNewVerifier(t *testing.T) {
	t.Run("rejects invalid base64", func(t *testing.T) {
		_, err := sms.NewVerifier("not-base64!!!")

		assert.Error(t, err)
	})

	t.Run("rejects wrong key size", func(t *testing.T) {
		_, err := sms.NewVerifier(base64.StdEncoding.EncodeToString([]byte("short")))

		assert.Error(t, err)
	})
}

func TestVerifier_Verify(t *testing.T) {
	payload := []byte(`{"data":{"payload":{"text":"DONE"}}}`)

	t.Run("accepts a valid signature", func(t *testing.T) {
		verifier, priv := newSignedPayload(t)

		sig := ed25519.Sign(priv, append([]byte("1700000000|"), payload...))

		ok := verifier.Verify(payload, "1700000000", base64.StdEncoding.EncodeToString(sig))

		assert.True(t, ok)
	})

	t.Run("signs the payload alone without a timestamp", func(t *testing.T) {
		verifier, priv := newSignedPayload(t)

		sig := ed25519.Sign(priv, payload)

		ok := verifier.Verify(payload, "", base64.StdEncoding.EncodeToString(sig))

		assert.True(t, ok)
	})

	t.Run("rejects a tampered payload", func(t *testing.T) {
		verifier, priv := newSignedPayload(t)

		sig := ed25519.Sign(priv, append([]byte("1700000000|"), payload...))

		ok := verifier.Verify([]byte(`{"data":{}}`), "1700000000", base64.StdEncoding.EncodeToString(sig))

		assert.False(t, ok)
	})

	t.Run("rejects a wrong timestamp", func(t *testing.T) {
		verifier, priv := newSignedPayload(t)

		sig := ed25519.Sign(priv, append([]byte("1700000000|"), payload...))

		ok := verifier.Verify(payload, "1700000001", base64.StdEncoding.EncodeToString(sig))

		assert.False(t, ok)
	})

	t.Run("rejects missing or malformed signatures", func(t *testing.T) {
		verifier, _ := newSignedPayload(t)

		assert.False(t, verifier.Verify(payload, "1700000000", ""))
		assert.False(t, verifier.Verify(payload, "1700000000", "not-base64!!!"))
	})

	t.Run("nil verifier passes everything", func(t *testing.T) {
		var verifier *sms.Verifier

		assert.True(t, verifier.Verify(payload, "", ""))
	})
}
