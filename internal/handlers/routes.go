package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/easyforty/funnel-go/internal/ratelimit"
)

// RegisterRoutes registers all funnel routes with per-endpoint rate limit
// configuration.
func RegisterRoutes(api huma.API, submit *SubmitHandler, webhook *WebhookHandler, admin *AdminHandler) {
	UseCompactErrors()

	// POST /api/submit - Intake form submission
	// Strict limits: one human fills this in once.
	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/api/submit",
		Summary:     "Submit the intake form",
		Description: "Validates the submission, allocates a referral link, and texts it to the lead.",
		Tags:        []string{"Funnel"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 10},     // 10 per minute
					{Window: time.Hour, Max: 60},       // 60 per hour
					{Window: 24 * time.Hour, Max: 200}, // 200 per day
				},
			},
		},
	}, submit.Submit)

	// POST /webhook - Inbound SMS/MMS events from the provider
	// Relaxed limits: one busy campaign day is a burst of replies.
	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/webhook",
		Summary:     "Receive inbound message events",
		Description: "Verifies the provider signature and processes STOP/HELP/DONE replies and media proofs.",
		Tags:        []string{"Funnel"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 120}, // 120 per minute
				},
			},
		},
	}, webhook.Receive)

	// GET /admin/summary - Funnel progress and pool state
	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/admin/summary",
		Summary:     "Funnel summary",
		Description: "Reports lead counts and the state of every referral link.",
		Tags:        []string{"Admin"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 30}, // 30 per minute
				},
			},
		},
	}, admin.Summary)

	// POST /admin/seed - Add links to the pool
	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/admin/seed",
		Summary:     "Seed referral links",
		Description: "Inserts new referral links into the pool and activates one if none is active.",
		Tags:        []string{"Admin"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 30}, // 30 per minute
				},
			},
		},
	}, admin.Seed)
}
