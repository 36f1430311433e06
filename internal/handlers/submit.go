package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/easyforty/funnel-go/internal/funnel"
	"go.uber.org/zap"
)

// SubmitHandler handles intake form submissions.
type SubmitHandler struct {
	service *funnel.Service
	logger  *zap.Logger
}

// NewSubmitHandler creates the submission handler.
func NewSubmitHandler(service *funnel.Service, logger *zap.Logger) *SubmitHandler {
	return &SubmitHandler{
		service: service,
		logger:  logger,
	}
}

// SubmitRequest is the intake form body.
type SubmitRequest struct {
	Body struct {
		Phone        string `doc:"Phone number in international format" example:"+15551234567" json:"phone"`
		PayoutHandle string `doc:"Where the payout goes"                example:"$cashtag"     json:"payout_handle"`
		Consent      bool   `doc:"Explicit consent to receive SMS"      json:"consent"`
	}
}

// SubmitResponse acknowledges a committed submission.
type SubmitResponse struct {
	Body struct {
		OK bool `json:"ok"`
	}
}

func (h *SubmitHandler) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error) {
	meta := RequestMetaFromContext(ctx)

	_, err := h.service.Submit(ctx, funnel.SubmitRequest{
		Phone:        req.Body.Phone,
		PayoutHandle: req.Body.PayoutHandle,
		Consent:      req.Body.Consent,
		ClientIP:     meta.ClientIP,
	})

	switch {
	case err == nil:
	case errors.Is(err, funnel.ErrConsentRequired):
		return nil, huma.Error400BadRequest("Consent required")
	case errors.Is(err, funnel.ErrInvalidPhone):
		return nil, huma.Error400BadRequest("Invalid phone")
	case errors.Is(err, funnel.ErrMissingPayoutHandle):
		return nil, huma.Error400BadRequest("Missing payout handle")
	case errors.Is(err, funnel.ErrOptedOut):
		return nil, huma.Error400BadRequest("This number has opted out")
	case errors.Is(err, funnel.ErrNoCapacity):
		return nil, huma.Error503ServiceUnavailable("No active referral link available right now. Please try later.")
	default:
		h.logger.Error("submission failed", zap.Error(err))

		return nil, huma.Error500InternalServerError("Server error")
	}

	resp := &SubmitResponse{}
	resp.Body.OK = true

	return resp, nil
}
