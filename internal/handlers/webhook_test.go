package handlers_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"testing"

	"github.com/easyforty/funnel-go/internal/funnel"
	"github.com/easyforty/funnel-go/internal/handlers"
	"github.com/easyforty/funnel-go/internal/sms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func inboundPayload(from, text string) []byte {
	return fmt.Appendf(nil, `{
		"data": {
			"event_type": "message.received",
			"payload": {
				"direction": "inbound",
				"text": %q,
				"from": {"phone_number": %q}
			}
		}
	}`, text, from)
}

func TestWebhookHandler_OpenMode(t *testing.T) {
	t.Run("processes a keyword reply", func(t *testing.T) {
		f := newFixture()
		f.seed(t, funnel.SeedEntry{URL: testLink, Capacity: 40})

		_, err := f.service.Submit(context.Background(), funnel.SubmitRequest{
			Phone:        testPhone,
			PayoutHandle: testPayout,
			Consent:      true,
		})
		require.NoError(t, err)

		handler := handlers.NewWebhookHandler(f.service, nil, zap.NewNop())

		resp, err := handler.Receive(context.Background(), &handlers.WebhookRequest{
			RawBody: inboundPayload(testPhone, "DONE"),
		})

		require.NoError(t, err)
		assert.True(t, resp.Body.OK)

		lead, err := f.store.LeadByPhone(context.Background(), testPhone)
		require.NoError(t, err)
		assert.Equal(t, funnel.StatusRepliedDone, lead.Status)
	})

	t.Run("acknowledges an unparseable payload", func(t *testing.T) {
		f := newFixture()
		handler := handlers.NewWebhookHandler(f.service, nil, zap.NewNop())

		resp, err := handler.Receive(context.Background(), &handlers.WebhookRequest{
			RawBody: []byte("not json"),
		})

		require.NoError(t, err)
		assert.True(t, resp.Body.OK)
		assert.Empty(t, f.sms.sent, "nothing is processed")
	})

	t.Run("acknowledges an event from an unknown number", func(t *testing.T) {
		f := newFixture()
		handler := handlers.NewWebhookHandler(f.service, nil, zap.NewNop())

		resp, err := handler.Receive(context.Background(), &handlers.WebhookRequest{
			RawBody: inboundPayload("+15550009999", "hello"),
		})

		require.NoError(t, err)
		assert.True(t, resp.Body.OK)
	})
}

func TestWebhookHandler_Signatures(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	verifier, err := sms.NewVerifier(base64.StdEncoding.EncodeToString(pub))
	require.NoError(t, err)

	payload := inboundPayload(testPhone, "HELP")
	timestamp := "1700000000"

	sign := func(body []byte, ts string) string {
		return base64.StdEncoding.EncodeToString(ed25519.Sign(priv, append([]byte(ts+"|"), body...)))
	}

	t.Run("accepts a signed event", func(t *testing.T) {
		f := newFixture()
		handler := handlers.NewWebhookHandler(f.service, verifier, zap.NewNop())

		resp, err := handler.Receive(context.Background(), &handlers.WebhookRequest{
			Timestamp: timestamp,
			Signature: sign(payload, timestamp),
			RawBody:   payload,
		})

		require.NoError(t, err)
		assert.True(t, resp.Body.OK)
		require.Len(t, f.sms.sent, 1, "HELP gets a reply")
	})

	t.Run("rejects a bad signature with 401", func(t *testing.T) {
		f := newFixture()
		handler := handlers.NewWebhookHandler(f.service, verifier, zap.NewNop())

		_, err := handler.Receive(context.Background(), &handlers.WebhookRequest{
			Timestamp: timestamp,
			Signature: sign([]byte("different body"), timestamp),
			RawBody:   payload,
		})

		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
		assert.Empty(t, f.sms.sent)
	})

	t.Run("rejects a missing signature with 401", func(t *testing.T) {
		f := newFixture()
		handler := handlers.NewWebhookHandler(f.service, verifier, zap.NewNop())

		_, err := handler.Receive(context.Background(), &handlers.WebhookRequest{
			Timestamp: timestamp,
			RawBody:   payload,
		})

		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})
}
