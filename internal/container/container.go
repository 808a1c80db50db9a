package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/record-service-go/internal/events"
	"github.com/serroba/record-service-go/internal/handlers"
	"github.com/serroba/record-service-go/internal/health"
	"github.com/serroba/record-service-go/internal/middleware"
	"github.com/serroba/record-service-go/internal/ratelimit"
	"github.com/serroba/record-service-go/internal/record"
	"github.com/serroba/record-service-go/internal/store"
	"go.uber.org/zap"
)

const (
	apiRouterName      = "api-router"
	auditConsumerGroup = "record-audit"
	requestIDLength    = 12
	rateLimitWindow    = time.Second
	storageOpenTimeout = 10 * time.Second
)

// ErrRedisDisabled is returned when a Redis-backed service is requested without a Redis address.
var ErrRedisDisabled = errors.New("redis is not configured")

// RedisClient gives the shared Redis client a Shutdown hook for the injector.
type RedisClient struct {
	*redis.Client
}

// Shutdown closes the client.
func (c *RedisClient) Shutdown() error {
	return c.Close()
}

// LoggerPackage provides the application logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the shared Redis client when an address is configured.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.RedisAddr == "" {
			return nil, ErrRedisDisabled
		}

		return &RedisClient{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

// StoragePackage provides the record repository described by the storage location,
// wrapped with a Redis cache when Redis is configured.
func StoragePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (record.Repository, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		ctx, cancel := context.WithTimeout(context.Background(), storageOpenTimeout)
		defer cancel()

		repo, err := store.Open(ctx, opts.Storage, logger)
		if err != nil {
			return nil, err
		}

		if opts.RedisAddr == "" {
			return repo, nil
		}

		client := do.MustInvoke[*RedisClient](i)
		ttl := time.Duration(opts.CacheTTL) * time.Second

		return store.NewRedisCacheRepository(repo, client.Client, ttl, logger), nil
	})
}

// RateLimitPackage provides the process-wide fixed window limiter.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ratelimit.FixedWindowLimiter, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.RateLimit <= 0 {
			return nil, fmt.Errorf("%w: rate limit must be a positive integer", ErrInvalidOptions)
		}

		return ratelimit.NewFixedWindowLimiter(int64(opts.RateLimit), rateLimitWindow), nil
	})
}

// PublisherPackage provides the record written publish function.
// Without Redis, events are dropped.
func PublisherPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*events.Publisher, error) {
		client := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)

		pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client:     client.Client,
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		}, events.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create event publisher: %w", err)
		}

		return events.NewPublisher(pub), nil
	})

	do.Provide(injector, func(i *do.Injector) (events.Publish[events.RecordWritten], error) {
		opts := do.MustInvoke[*Options](i)
		if opts.RedisAddr == "" {
			return events.NoopPublish[events.RecordWritten](), nil
		}

		publisher, err := do.Invoke[*events.Publisher](i)
		if err != nil {
			return nil, err
		}

		return publisher.RecordWritten(), nil
	})
}

// ConsumerGroupPackage provides the audit consumer group reading record written events.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*events.ConsumerGroup, error) {
		client := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)

		sub, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client.Client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: auditConsumerGroup,
		}, events.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create event subscriber: %w", err)
		}

		group := events.NewConsumerGroup(sub, logger)
		group.Add(events.NewConsumer(sub, events.TopicRecordWritten, events.AuditLog(logger), logger))

		return group, nil
	})
}

// HTTPPackage provides the huma API and the root router.
// Admission control sits on the root router so unmatched paths are limited too.
func HTTPPackage(injector *do.Injector) {
	do.ProvideNamed(injector, apiRouterName, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		router := do.MustInvokeNamed[*chi.Mux](i, apiRouterName)
		repo := do.MustInvoke[record.Repository](i)
		publish := do.MustInvoke[events.Publish[events.RecordWritten]](i)
		logger := do.MustInvoke[*zap.Logger](i)

		generateID, err := nanoid.Standard(requestIDLength)
		if err != nil {
			return nil, fmt.Errorf("create request id generator: %w", err)
		}

		api := humachi.New(router, huma.DefaultConfig("Record Service", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api, generateID))

		handlers.RegisterRoutes(api, handlers.NewRecordHandler(repo, publish, logger))
		health.RegisterRoutes(api, health.NewHandler(storageChecker(repo), redisChecker(i)))

		return api, nil
	})

	do.Provide(injector, func(i *do.Injector) (*chi.Mux, error) {
		opts := do.MustInvoke[*Options](i)
		api := do.MustInvoke[huma.API](i)
		limiter := do.MustInvoke[*ratelimit.FixedWindowLimiter](i)
		logger := do.MustInvoke[*zap.Logger](i)

		root := chi.NewMux()
		root.Use(middleware.CORS(opts.CORSOrigin))
		root.Use(middleware.RateLimiter(api, limiter, logger))
		root.Mount("/", do.MustInvokeNamed[*chi.Mux](i, apiRouterName))

		return root, nil
	})
}

func storageChecker(repo record.Repository) health.Checker {
	if pinger, ok := repo.(record.Pinger); ok {
		return pinger
	}

	return health.CheckerFunc(func(context.Context) error { return nil })
}

func redisChecker(i *do.Injector) health.Checker {
	client, err := do.Invoke[*RedisClient](i)
	if err != nil {
		return nil
	}

	return health.NewRedisChecker(client.Client)
}
