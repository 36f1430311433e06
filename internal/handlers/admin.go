package handlers

import (
	"context"
	"crypto/subtle"

	"github.com/danielgtaylor/huma/v2"
	"github.com/easyforty/funnel-go/internal/funnel"
	"go.uber.org/zap"
)

// AdminHandler serves the operator endpoints: pool/lead summary and link
// seeding. All operations require the shared admin key.
type AdminHandler struct {
	store    funnel.Store
	pool     *funnel.Pool
	adminKey string
	logger   *zap.Logger
}

// NewAdminHandler creates the admin handler. An empty adminKey disables
// the surface entirely (every request is rejected).
func NewAdminHandler(store funnel.Store, pool *funnel.Pool, adminKey string, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		store:    store,
		pool:     pool,
		adminKey: adminKey,
		logger:   logger,
	}
}

func (h *AdminHandler) authorize(key string) error {
	if h.adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.adminKey)) != 1 {
		return huma.Error401Unauthorized("Unauthorized")
	}

	return nil
}

// LinkSummary is one pool entry in the summary response.
type LinkSummary struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	Cap       int    `json:"cap"`
	UsedCount int    `json:"used_count"`
	Active    bool   `json:"active"`
}

// SummaryRequest authenticates the summary read.
type SummaryRequest struct {
	AdminKey string `header:"X-Admin-Key"`
}

// SummaryResponse reports funnel progress and pool state.
type SummaryResponse struct {
	Body struct {
		TotalLeads int64         `json:"totalLeads"`
		Verified   int64         `json:"verified"`
		ActiveLink *LinkSummary  `json:"activeLink"`
		Links      []LinkSummary `json:"links"`
	}
}

func (h *AdminHandler) Summary(ctx context.Context, req *SummaryRequest) (*SummaryResponse, error) {
	if err := h.authorize(req.AdminKey); err != nil {
		return nil, err
	}

	total, err := h.store.CountLeads(ctx)
	if err != nil {
		h.logger.Error("failed to count leads", zap.Error(err))

		return nil, huma.Error500InternalServerError("Server error")
	}

	verified, err := h.store.CountLeadsByStatus(ctx, funnel.StatusVerified)
	if err != nil {
		h.logger.Error("failed to count verified leads", zap.Error(err))

		return nil, huma.Error500InternalServerError("Server error")
	}

	links, err := h.store.ListLinks(ctx)
	if err != nil {
		h.logger.Error("failed to list links", zap.Error(err))

		return nil, huma.Error500InternalServerError("Server error")
	}

	resp := &SummaryResponse{}
	resp.Body.TotalLeads = total
	resp.Body.Verified = verified
	resp.Body.Links = make([]LinkSummary, 0, len(links))

	for _, link := range links {
		summary := LinkSummary{
			ID:        link.ID,
			URL:       link.URL,
			Cap:       link.Capacity,
			UsedCount: link.UsedCount,
			Active:    link.Active,
		}

		resp.Body.Links = append(resp.Body.Links, summary)

		if link.Active {
			active := summary
			resp.Body.ActiveLink = &active
		}
	}

	return resp, nil
}

// SeedRequest carries the links to add to the pool.
type SeedRequest struct {
	AdminKey string `header:"X-Admin-Key"`
	Body     struct {
		Links []SeedLink `json:"links"`
	}
}

// SeedLink is one link to insert.
type SeedLink struct {
	URL string `doc:"Referral link URL"               json:"url"`
	Cap int    `doc:"Maximum verified uses"  example:"40" json:"cap"`
}

// SeedResponse reports how many links were inserted.
type SeedResponse struct {
	Body struct {
		OK       bool `json:"ok"`
		Inserted int  `json:"inserted"`
	}
}

func (h *AdminHandler) Seed(ctx context.Context, req *SeedRequest) (*SeedResponse, error) {
	if err := h.authorize(req.AdminKey); err != nil {
		return nil, err
	}

	if len(req.Body.Links) == 0 {
		return nil, huma.Error400BadRequest("Provide {links: [{url, cap}]}")
	}

	entries := make([]funnel.SeedEntry, 0, len(req.Body.Links))
	for _, link := range req.Body.Links {
		entries = append(entries, funnel.SeedEntry{URL: link.URL, Capacity: link.Cap})
	}

	inserted, err := h.pool.Seed(ctx, entries)
	if err != nil {
		h.logger.Error("failed to seed links", zap.Error(err))

		return nil, huma.Error500InternalServerError("Server error")
	}

	h.logger.Info("seeded referral links", zap.Int("inserted", inserted))

	resp := &SeedResponse{}
	resp.Body.OK = true
	resp.Body.Inserted = inserted

	return resp, nil
}
