package sms

import (
	"encoding/json"
	"strings"
)

// Inbound is a parsed inbound message event.
type Inbound struct {
	From      string
	To        string
	Text      string
	Direction string
	MediaURLs []string
}

// Webhook envelope: Telnyx wraps the event under "data", with the message
// fields under "payload".
type inboundEnvelope struct {
	Data    *inboundEvent   `json:"data"`
	Payload json.RawMessage `json:"payload"`
}

type inboundEvent struct {
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

type inboundPayload struct {
	Direction string          `json:"direction"`
	Text      string          `json:"text"`
	From      json.RawMessage `json:"from"`
	To        json.RawMessage `json:"to"`
	Media     []mediaItem     `json:"media"`
}

type mediaItem struct {
	URL string `json:"url"`
}

type phoneRef struct {
	PhoneNumber string `json:"phone_number"`
}

// ParseInbound maps a raw webhook payload to a typed inbound event. It
// accepts the documented Telnyx envelope (fields under data.payload) and
// the bare payload shape used by test fixtures. Anything else fails
// closed: ok is false and the caller acknowledges and ignores the event.
func ParseInbound(raw []byte) (Inbound, bool) {
	var env inboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Inbound{}, false
	}

	payloadRaw := env.Payload
	if env.Data != nil && len(env.Data.Payload) > 0 {
		payloadRaw = env.Data.Payload
	}

	if len(payloadRaw) == 0 {
		return Inbound{}, false
	}

	var payload inboundPayload
	if err := json.Unmarshal(payloadRaw, &payload); err != nil {
		return Inbound{}, false
	}

	in := Inbound{
		From:      parsePhone(payload.From),
		To:        parseFirstPhone(payload.To),
		Text:      strings.TrimSpace(payload.Text),
		Direction: strings.ToLower(payload.Direction),
	}

	for _, m := range payload.Media {
		if m.URL != "" {
			in.MediaURLs = append(in.MediaURLs, m.URL)
		}
	}

	if in.From == "" {
		return Inbound{}, false
	}

	return in, true
}

// parsePhone accepts the documented object form {"phone_number": "..."} and
// the plain-string form some providers emit.
func parsePhone(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var ref phoneRef
	if err := json.Unmarshal(raw, &ref); err == nil && ref.PhoneNumber != "" {
		return strings.TrimSpace(ref.PhoneNumber)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	return ""
}

// parseFirstPhone handles "to" as a list of phone refs, a single ref, or a
// plain string.
func parseFirstPhone(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var refs []phoneRef
	if err := json.Unmarshal(raw, &refs); err == nil {
		if len(refs) > 0 {
			return strings.TrimSpace(refs[0].PhoneNumber)
		}

		return ""
	}

	return parsePhone(raw)
}
