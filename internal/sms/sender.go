// Package sms holds the Telnyx transport: the outbound message client, the
// inbound webhook parser, and the webhook signature verifier.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultMessagesURL = "https://api.telnyx.com/v2/messages"

// TelnyxSender sends SMS/MMS through the Telnyx messages API.
type TelnyxSender struct {
	client     *http.Client
	url        string
	apiKey     string
	fromNumber string
	profileID  string
}

// TelnyxOption configures a TelnyxSender.
type TelnyxOption func(*TelnyxSender)

// WithMessagesURL overrides the API endpoint. Used by tests.
func WithMessagesURL(url string) TelnyxOption {
	return func(s *TelnyxSender) { s.url = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) TelnyxOption {
	return func(s *TelnyxSender) { s.client = client }
}

// NewTelnyxSender creates a Telnyx message sender. profileID is optional.
func NewTelnyxSender(apiKey, fromNumber, profileID string, opts ...TelnyxOption) *TelnyxSender {
	s := &TelnyxSender{
		client:     &http.Client{Timeout: 10 * time.Second},
		url:        defaultMessagesURL,
		apiKey:     apiKey,
		fromNumber: fromNumber,
		profileID:  profileID,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type telnyxMessage struct {
	From               string `json:"from"`
	To                 string `json:"to"`
	Text               string `json:"text"`
	MessagingProfileID string `json:"messaging_profile_id,omitempty"`
}

// Send posts one outbound message. A non-2xx response is a failed delivery
// attempt; there are no retries here.
func (s *TelnyxSender) Send(ctx context.Context, to, text string) error {
	payload, err := json.Marshal(telnyxMessage{
		From:               s.fromNumber,
		To:                 to,
		Text:               text,
		MessagingProfileID: s.profileID,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return fmt.Errorf("telnyx send failed: status %d: %s", resp.StatusCode, body)
	}

	return nil
}

// LogSender logs outbound messages instead of delivering them. Stands in
// when no Telnyx credentials are configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, text string) error {
	s.logger.Info("sms send skipped, no transport configured",
		zap.String("to", to),
		zap.Int("text_len", len(text)),
	)

	return nil
}
