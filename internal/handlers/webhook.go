package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/easyforty/funnel-go/internal/funnel"
	"github.com/easyforty/funnel-go/internal/sms"
	"go.uber.org/zap"
)

// WebhookHandler receives inbound message events from the SMS provider.
type WebhookHandler struct {
	service  *funnel.Service
	verifier *sms.Verifier
	logger   *zap.Logger
}

// NewWebhookHandler creates the inbound webhook handler. verifier may be
// nil (open mode, signature checks skipped).
func NewWebhookHandler(service *funnel.Service, verifier *sms.Verifier, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service:  service,
		verifier: verifier,
		logger:   logger,
	}
}

// WebhookRequest carries the raw provider payload plus signature headers.
// The body must stay raw: the signature covers the exact bytes.
type WebhookRequest struct {
	Timestamp string `header:"Telnyx-Timestamp"`
	Signature string `header:"Telnyx-Signature-Ed25519"`
	RawBody   []byte
}

// WebhookResponse acknowledges the event.
type WebhookResponse struct {
	Body struct {
		OK bool `json:"ok"`
	}
}

// Receive verifies, parses, and dispatches an inbound event. Everything
// except a signature failure is acknowledged with 200 — an upstream retry
// would only duplicate side effects that already committed.
func (h *WebhookHandler) Receive(ctx context.Context, req *WebhookRequest) (*WebhookResponse, error) {
	if !h.verifier.Verify(req.RawBody, req.Timestamp, req.Signature) {
		return nil, huma.Error401Unauthorized("invalid signature")
	}

	ack := &WebhookResponse{}
	ack.Body.OK = true

	in, ok := sms.ParseInbound(req.RawBody)
	if !ok {
		h.logger.Debug("unparseable inbound payload ignored")

		return ack, nil
	}

	err := h.service.HandleInbound(ctx, funnel.InboundMessage{
		From:      in.From,
		To:        in.To,
		Text:      in.Text,
		Direction: in.Direction,
		MediaURLs: in.MediaURLs,
	})
	if err != nil {
		h.logger.Error("inbound processing failed", zap.Error(err))
	}

	return ack, nil
}
