package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/easyforty/funnel-go/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimiter returns a huma middleware applying the per-endpoint limits
// declared in operation metadata. Endpoints without limits pass through.
func RateLimiter(api huma.API, limiter *ratelimit.Limiter, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		cfg := ratelimit.GetEndpointConfig(ctx)
		if cfg == nil || cfg.Disabled || len(cfg.Limits) == 0 {
			next(ctx)

			return
		}

		path := ""
		if op := ctx.Operation(); op != nil {
			path = op.Path
		}

		key := clientKey(ctx) + ":" + path

		allowed, exceeded, err := limiter.Allow(ctx.Context(), key, cfg.Limits)
		if err != nil {
			logger.Error("rate limit check failed", zap.String("path", path), zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if !allowed {
			logger.Warn("rate limit exceeded",
				zap.String("path", path),
				zap.String("client_ip", clientIP(ctx)),
				zap.Int64("max", exceeded.Max),
				zap.Duration("window", exceeded.Window),
			)
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "rate limit exceeded")

			return
		}

		next(ctx)
	}
}

// clientKey generates a rate limiting key from client IP and User-Agent.
func clientKey(ctx huma.Context) string {
	hash := sha256.Sum256([]byte(clientIP(ctx) + "|" + ctx.Header("User-Agent")))

	return hex.EncodeToString(hash[:])
}
