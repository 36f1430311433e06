// Package container wires the application together with samber/do. Each
// *Package function registers one concern's providers; cmd binaries pick
// the packages they need.
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/easyforty/funnel-go/internal/analytics"
	analyticsstore "github.com/easyforty/funnel-go/internal/analytics/store"
	"github.com/easyforty/funnel-go/internal/blob"
	"github.com/easyforty/funnel-go/internal/funnel"
	"github.com/easyforty/funnel-go/internal/handlers"
	"github.com/easyforty/funnel-go/internal/health"
	"github.com/easyforty/funnel-go/internal/media"
	"github.com/easyforty/funnel-go/internal/messaging"
	"github.com/easyforty/funnel-go/internal/middleware"
	"github.com/easyforty/funnel-go/internal/ratelimit"
	"github.com/easyforty/funnel-go/internal/sms"
	"github.com/easyforty/funnel-go/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
)

const evidenceKeyLength = 12

// Options holds the CLI/environment configuration for both binaries.
type Options struct {
	Port        int    `default:"8080"    help:"Port to listen on"                                            short:"p"`
	DatabaseURL string `help:"Postgres connection URL (empty = in-memory store)"`
	RedisAddr   string `help:"Redis server address (empty = in-memory rate limits, no events)"    short:"r"`
	LogFormat   string `default:"console" enum:"console,json"                                                 help:"Log output format"`

	AdminKey string `help:"Shared key for the admin endpoints (empty disables them)"`

	TelnyxAPIKey     string `help:"Telnyx API key (empty = log outbound messages instead of sending)"`
	TelnyxFromNumber string `help:"Sending number in E.164 format"`
	TelnyxProfileID  string `help:"Telnyx messaging profile id"`
	TelnyxPublicKey  string `help:"Base64 Ed25519 public key for webhook signatures (empty = skip verification)"`
	MediaAuthHost    string `default:"api.telnyx.com" help:"Host allowed to receive the media bearer token"`

	Brand        string `default:"EasyForty"            help:"Brand name used in SMS copy"`
	SiteURL      string `default:"https://easyforty.com" help:"Public site URL used in SMS copy"`
	SupportEmail string `default:"help@easyforty.com"   help:"Support contact used in SMS copy"`
	Pledge       string `default:"40"                   help:"Payout amount quoted in the verification SMS"`
}

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		if options.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the Redis client, or nil when no address is
// configured.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options := do.MustInvoke[*Options](i)
		if options.RedisAddr == "" {
			return nil, nil
		}

		return redis.NewClient(&redis.Options{
			Addr: options.RedisAddr,
		}), nil
	})
}

// PostgresPackage provides the pgx pool, or nil when no database URL is
// configured. The schema is created on first connect.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		options := do.MustInvoke[*Options](i)
		if options.DatabaseURL == "" {
			return nil, nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, options.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}

		if err := store.InitSchema(ctx, pool); err != nil {
			pool.Close()

			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}

		return pool, nil
	})
}

// StorePackage provides the funnel store: Postgres when configured, the
// in-memory store otherwise.
func StorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (funnel.Store, error) {
		pool := do.MustInvoke[*pgxpool.Pool](i)
		if pool == nil {
			do.MustInvoke[*zap.Logger](i).Warn("no database configured, using in-memory store")

			return store.NewMemoryStore(), nil
		}

		return store.NewPostgresStore(pool), nil
	})
}

// BlobPackage provides evidence blob storage: Redis when configured, an
// in-memory map otherwise.
func BlobPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (funnel.BlobStore, error) {
		client := do.MustInvoke[*redis.Client](i)
		if client == nil {
			return blob.NewMemoryStore(), nil
		}

		return blob.NewRedisStore(client), nil
	})
}

// SMSPackage provides the outbound sender and the webhook signature
// verifier. Without Telnyx credentials, outbound messages are logged and
// the verifier is nil (open mode).
func SMSPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (funnel.SMSSender, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if options.TelnyxAPIKey == "" || options.TelnyxFromNumber == "" {
			logger.Warn("telnyx not configured, logging outbound messages instead of sending")

			return sms.NewLogSender(logger), nil
		}

		return sms.NewTelnyxSender(options.TelnyxAPIKey, options.TelnyxFromNumber, options.TelnyxProfileID), nil
	})

	do.Provide(injector, func(i *do.Injector) (*sms.Verifier, error) {
		options := do.MustInvoke[*Options](i)
		if options.TelnyxPublicKey == "" {
			do.MustInvoke[*zap.Logger](i).Warn("webhook signature verification disabled")

			return nil, nil
		}

		return sms.NewVerifier(options.TelnyxPublicKey)
	})
}

// PublisherGroupPackage provides the event publisher and the typed publish
// functions. Without Redis, events are discarded.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*redis.Client](i)
		if client == nil {
			return nil, nil
		}

		publisher, err := messaging.NewRedisPublisher(client, do.MustInvoke[*zap.Logger](i))
		if err != nil {
			return nil, fmt.Errorf("failed to create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (funnel.Events, error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)
		if group == nil {
			return funnel.NoopEvents(), nil
		}

		publisher := group.Publisher()

		return funnel.Events{
			LeadSubmitted: messaging.NewPublishFunc[analytics.LeadSubmittedEvent](publisher, analytics.TopicLeadSubmitted),
			LeadVerified:  messaging.NewPublishFunc[analytics.LeadVerifiedEvent](publisher, analytics.TopicLeadVerified),
			LeadOptedOut:  messaging.NewPublishFunc[analytics.LeadOptedOutEvent](publisher, analytics.TopicLeadOptedOut),
			LinkRotated:   messaging.NewPublishFunc[analytics.LinkRotatedEvent](publisher, analytics.TopicLinkRotated),
		}, nil
	})
}

// FunnelPackage provides the link pool and the funnel service.
func FunnelPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*funnel.Pool, error) {
		return funnel.NewPool(
			do.MustInvoke[funnel.Store](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*funnel.Service, error) {
		options := do.MustInvoke[*Options](i)

		keyGen, err := nanoid.Standard(evidenceKeyLength)
		if err != nil {
			return nil, fmt.Errorf("failed to create key generator: %w", err)
		}

		texts := funnel.Texts{
			Brand:        options.Brand,
			SiteURL:      options.SiteURL,
			SupportEmail: options.SupportEmail,
			Pledge:       options.Pledge,
		}

		return funnel.NewService(
			do.MustInvoke[funnel.Store](i),
			do.MustInvoke[*funnel.Pool](i),
			do.MustInvoke[funnel.SMSSender](i),
			media.NewFetcher(options.TelnyxAPIKey, options.MediaAuthHost),
			do.MustInvoke[funnel.BlobStore](i),
			texts,
			keyGen,
			do.MustInvoke[funnel.Events](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// RateLimitPackage provides the sliding-window limiter: Redis-backed when
// configured, in-memory otherwise.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ratelimit.Limiter, error) {
		client := do.MustInvoke[*redis.Client](i)
		if client == nil {
			return ratelimit.NewLimiter(store.NewRateLimitMemoryStore()), nil
		}

		return ratelimit.NewLimiter(store.NewRateLimitRedisStore(client)), nil
	})
}

// HTTPPackage provides the router and the huma API with all routes and
// middleware registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		router := do.MustInvoke[*chi.Mux](i)
		api := humachi.New(router, huma.DefaultConfig("Referral Funnel", "1.0.0"))

		api.UseMiddleware(
			middleware.RequestMeta(api),
			middleware.RateLimiter(api, do.MustInvoke[*ratelimit.Limiter](i), logger),
		)

		service := do.MustInvoke[*funnel.Service](i)
		funnelStore := do.MustInvoke[funnel.Store](i)
		pool := do.MustInvoke[*funnel.Pool](i)

		handlers.RegisterRoutes(api,
			handlers.NewSubmitHandler(service, logger),
			handlers.NewWebhookHandler(service, do.MustInvoke[*sms.Verifier](i), logger),
			handlers.NewAdminHandler(funnelStore, pool, options.AdminKey, logger),
		)

		var database, cache health.Checker

		if pgPool := do.MustInvoke[*pgxpool.Pool](i); pgPool != nil {
			database = health.NewPostgresChecker(pgPool)
		}

		if client := do.MustInvoke[*redis.Client](i); client != nil {
			cache = health.NewRedisChecker(client)
		}

		health.RegisterRoutes(api, health.NewHandler(database, cache))

		return api, nil
	})
}

// ConsumerGroupPackage provides the analytics consumer group. The consumer
// binary requires Redis; there is nothing to consume without it.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		client := do.MustInvoke[*redis.Client](i)
		if client == nil {
			return nil, fmt.Errorf("consumer requires redis, set --redis-addr")
		}

		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := messaging.NewRedisSubscriber(client, "funnel-analytics", logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create subscriber: %w", err)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		analytics.RegisterConsumers(group, subscriber, analyticsstore.NewRedis(client), logger)

		return group, nil
	})
}
