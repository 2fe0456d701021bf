package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	limits "github.com/gin-contrib/size"
	"github.com/gin-gonic/gin"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/sandbox-pool/infra/packages/api/internal/accounts"
	"github.com/sandbox-pool/infra/packages/api/internal/api"
	"github.com/sandbox-pool/infra/packages/api/internal/awsconfig"
	"github.com/sandbox-pool/infra/packages/api/internal/cfg"
	"github.com/sandbox-pool/infra/packages/api/internal/consumer"
	"github.com/sandbox-pool/infra/packages/api/internal/events"
	"github.com/sandbox-pool/infra/packages/api/internal/globalconfig"
	"github.com/sandbox-pool/infra/packages/api/internal/handlers"
	"github.com/sandbox-pool/infra/packages/api/internal/identity"
	"github.com/sandbox-pool/infra/packages/api/internal/leases"
	customMiddleware "github.com/sandbox-pool/infra/packages/api/internal/middleware"
	metricsMiddleware "github.com/sandbox-pool/infra/packages/api/internal/middleware/otel/metrics"
	"github.com/sandbox-pool/infra/packages/api/internal/monitor"
	"github.com/sandbox-pool/infra/packages/api/internal/store"
	"github.com/sandbox-pool/infra/packages/api/internal/store/memory"
	"github.com/sandbox-pool/infra/packages/api/internal/store/postgres"
	redisstore "github.com/sandbox-pool/infra/packages/api/internal/store/redis"
	"github.com/sandbox-pool/infra/packages/api/internal/teams"
	"github.com/sandbox-pool/infra/packages/api/internal/templates"
	"github.com/sandbox-pool/infra/packages/shared/pkg/db"
	"github.com/sandbox-pool/infra/packages/shared/pkg/env"
	sharedevents "github.com/sandbox-pool/infra/packages/shared/pkg/events"
	featureflags "github.com/sandbox-pool/infra/packages/shared/pkg/feature-flags"
	"github.com/sandbox-pool/infra/packages/shared/pkg/logger"
	redis_utils "github.com/sandbox-pool/infra/packages/shared/pkg/redis"
	"github.com/sandbox-pool/infra/packages/shared/pkg/telemetry"
	sharedutils "github.com/sandbox-pool/infra/packages/shared/pkg/utils"
)

const (
	serviceName    = "sandbox-pool-api"
	serviceVersion = "1.0.0"

	maxRequestSize = 1 << 20 // 1 MiB

	eventConsumerGroup = "lifecycle-api"

	maxReadHeaderTimeout = 5 * time.Second
	maxReadTimeout       = 10 * time.Second
	maxWriteTimeout      = 30 * time.Second
	idleTimeout          = 620 * time.Second

	shutdownTimeout = 30 * time.Second
)

var commitSHA string

func NewGinServer(ctx context.Context, config cfg.Config, l logger.Logger, svc *services, swagger *openapi3.T) (*http.Server, error) {
	r := gin.New()

	requestMetrics, err := metricsMiddleware.Middleware(otel.GetMeterProvider(), serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
	}

	r.Use(
		customMiddleware.ExcludeRoutes(otelgin.Middleware(serviceName), "/health"),
		customMiddleware.ExcludeRoutes(requestMetrics, "/health"),
		gin.Recovery(),
	)

	corsConfig := cors.DefaultConfig()
	if len(config.CORSAllowedOrigins) > 0 {
		corsConfig.AllowOrigins = config.CORSAllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		identity.EmailHeader,
		identity.RolesHeader,
	}

	r.Use(
		cors.New(corsConfig),
		limits.RequestSizeLimiter(maxRequestSize),
		customMiddleware.ExcludeRoutes(customMiddleware.LoggingMiddleware(l), "/health"),
	)

	var authenticated []gin.HandlerFunc
	if svc.redisClient != nil && config.LeaseCreateRatePerMinute > 0 {
		limiter := redis_rate.NewLimiter(svc.redisClient)
		authenticated = append(authenticated, customMiddleware.OnlyRoute(http.MethodPost, "/leases",
			customMiddleware.RateLimit(limiter, "create-lease", redis_rate.PerMinute(config.LeaseCreateRatePerMinute)),
		))
	}

	handlers.RegisterRoutes(r, svc.apiStore, swagger, authenticated...)

	return &http.Server{
		Handler: r,
		Addr:    fmt.Sprintf("0.0.0.0:%d", config.Port),

		ReadHeaderTimeout: maxReadHeaderTimeout,
		ReadTimeout:       maxReadTimeout,
		WriteTimeout:      maxWriteTimeout,
		IdleTimeout:       idleTimeout,

		BaseContext: func(net.Listener) context.Context { return ctx },
	}, nil
}

type services struct {
	apiStore       *handlers.APIStore
	sweeper        *monitor.Sweeper
	cleanupResults *consumer.CleanupResults
	redisClient    redis.UniversalClient
	cleanup        []func(context.Context) error
}

func buildServices(ctx context.Context, l logger.Logger, config cfg.Config, instanceID string) (*services, error) {
	s := &services{}

	var redisClient redis.UniversalClient
	if config.UsesRedis() {
		client, err := redis_utils.NewClient(ctx, config.RedisURL, config.RedisClusterURL)
		if err != nil {
			return s, err
		}

		redisClient = client
		s.redisClient = client
		s.cleanup = append(s.cleanup, func(context.Context) error { return client.Close() })
	}

	var backend store.Backend
	switch config.StoreBackend {
	case cfg.StoreRedis:
		backend = redisstore.NewBackend(redisClient)
	case cfg.StorePostgres:
		pool, err := db.NewPool(ctx, config.PostgresConnectionString,
			db.WithMaxConnections(config.PostgresMaxConnections),
			db.WithMinIdle(config.PostgresMinIdle),
		)
		if err != nil {
			return s, err
		}
		s.cleanup = append(s.cleanup, func(context.Context) error { pool.Close(); return nil })

		pgBackend := postgres.NewBackend(pool)
		if err := pgBackend.Migrate(ctx); err != nil {
			return s, err
		}

		backend = pgBackend
	default:
		l.Warn(ctx, "using the in-memory store, state is lost on restart")
		backend = memory.NewBackend()
	}

	var delivery sharedevents.Delivery[events.Event]
	if redisClient != nil {
		delivery = sharedevents.NewRedisStreamsDelivery[events.Event](redisClient, config.EventStreamName, eventConsumerGroup, instanceID)
	} else {
		l.Warn(ctx, "redis is not configured, lifecycle events are not published")
		delivery = sharedevents.NewNoopDelivery[events.Event]()
	}

	dispatcher := events.NewDispatcher(delivery)
	s.cleanup = append(s.cleanup, dispatcher.Close)

	flags, err := featureflags.NewClient(config.LaunchDarklyAPIKey, nil)
	if err != nil {
		return s, fmt.Errorf("failed to create feature flags client: %w", err)
	}
	s.cleanup = append(s.cleanup, flags.Close)

	defaults, err := config.Defaults.GlobalConfig()
	if err != nil {
		return s, err
	}

	globalConfig := globalconfig.NewFlagProvider(flags, defaults)

	conflictRetry := sharedutils.RetryConfig{
		Attempts:     config.ConflictRetryAttempts,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     200 * time.Millisecond,
	}

	accountOpts := []accounts.Option{
		accounts.WithClaimAttempts(config.AccountClaimAttempts),
		accounts.WithConflictRetry(conflictRetry),
	}

	var awsCfg aws.Config
	if config.DriftScanEnabled || config.CostExplorerEnabled {
		awsCfg, err = awsconfig.Load(ctx, config.AWSRegion)
		if err != nil {
			return s, err
		}
	}

	if config.DriftScanEnabled {
		mapping, err := accounts.ParseOUMapping(config.OrgOUIDs)
		if err != nil {
			return s, err
		}

		accountOpts = append(accountOpts, accounts.WithPlacement(accounts.NewOrganizationsPlacement(awsCfg), mapping))
	}

	accountRegistry, err := accounts.NewRegistry(backend, dispatcher, globalConfig, accountOpts...)
	if err != nil {
		return s, err
	}

	templateCache := templates.NewCache(config.TemplateCacheTTL)
	s.cleanup = append(s.cleanup, templateCache.Close)

	templateRegistry := templates.NewRegistry(backend, templateCache, globalConfig)
	teamRegistry := teams.NewRegistry(backend)
	leaseRegistry := leases.NewRegistry(
		backend,
		accountRegistry,
		templateRegistry,
		teamRegistry,
		dispatcher,
		globalConfig,
		leases.WithConflictRetry(conflictRetry),
	)

	var sweeperOpts []monitor.Option
	if redisClient != nil {
		sweeperOpts = append(sweeperOpts, monitor.WithLocker(monitor.NewRedisLocker(redisClient)))
	}

	if config.CostExplorerEnabled {
		sweeperOpts = append(sweeperOpts, monitor.WithSpendSource(monitor.NewCostExplorerSpend(awsCfg)))
	}

	s.sweeper, err = monitor.New(leaseRegistry, accountRegistry, monitor.Config{
		Interval:             config.SweepInterval,
		Concurrency:          config.SweepConcurrency,
		ReconcileGracePeriod: config.ReconcileGracePeriod,
		DriftScan:            config.DriftScanEnabled,
	}, sweeperOpts...)
	if err != nil {
		return s, err
	}

	if redisClient != nil {
		results := sharedevents.NewRedisStreamsDelivery[events.Event](redisClient, config.CleanupResultStreamName, eventConsumerGroup, instanceID)
		s.cleanupResults = consumer.NewCleanupResults(results, accountRegistry)
	} else {
		l.Warn(ctx, "redis is not configured, cleanup results are not consumed")
	}

	s.apiStore = handlers.NewAPIStore(leaseRegistry, accountRegistry, templateRegistry, teamRegistry, globalConfig)

	return s, nil
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var debug string
	flag.StringVar(&debug, "debug", "false", "is debug")
	flag.Parse()

	instanceID := uuid.New().String()

	tel, err := telemetry.New(ctx, telemetry.Config{
		ServiceName:       serviceName,
		ServiceVersion:    serviceVersion + "-" + commitSHA,
		ServiceInstanceID: instanceID,
		CollectorEndpoint: env.GetEnv("OTEL_COLLECTOR_GRPC_ENDPOINT", ""),
	})
	if err != nil {
		log.Printf("failed to set up telemetry: %v\n", err)

		return 1
	}
	defer func() {
		if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Printf("telemetry shutdown: %v\n", err)
		}
	}()

	l := sharedutils.Must(logger.NewLogger(ctx, logger.LoggerConfig{
		ServiceName:   serviceName,
		IsInternal:    true,
		IsDevelopment: env.IsLocal(),
		IsDebug:       env.IsDebug(),
	}))
	defer l.Sync()
	logger.ReplaceGlobals(ctx, l)

	config, err := cfg.Parse()
	if err != nil {
		l.Error(ctx, "Error parsing config", zap.Error(err))

		return 1
	}

	l.Info(ctx, "Starting API service...",
		zap.String("commit_sha", commitSHA),
		zap.String("store_backend", string(config.StoreBackend)),
		logger.WithServiceInstanceID(instanceID),
	)

	if debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	swagger, err := api.GetSwagger()
	if err != nil {
		l.Error(ctx, "Error loading swagger spec", zap.Error(err))

		return 1
	}

	exitCode := &atomic.Int32{}

	svc, err := buildServices(ctx, l, config, instanceID)

	cleanupOnce := &sync.Once{}
	cleanup := func() {
		cleanupOnce.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			// Reverse order so nothing is closed before its users.
			for i := len(svc.cleanup) - 1; i >= 0; i-- {
				if err := svc.cleanup[i](ctx); err != nil {
					exitCode.Add(1)
					l.Error(ctx, "Cleanup operation error", zap.Int("index", i), zap.Error(err))
				}
			}
		})
	}
	defer cleanup()

	if err != nil {
		l.Error(ctx, "failed to build services", zap.Error(err))

		return 1
	}

	s, err := NewGinServer(ctx, config, l, svc, swagger)
	if err != nil {
		l.Error(ctx, "failed to create http server", zap.Error(err))

		return 1
	}

	signalCtx, sigCancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer sigCancel()

	wg := &sync.WaitGroup{}
	defer wg.Wait()

	wg.Go(func() {
		svc.sweeper.Start(signalCtx)
	})

	if svc.cleanupResults != nil {
		wg.Go(func() {
			if err := svc.cleanupResults.Start(signalCtx); err != nil {
				exitCode.Add(1)
				l.Error(ctx, "Cleanup result consumer stopped", zap.Error(err))
			}
		})
	}

	wg.Go(func() {
		defer cancel()

		svc.apiStore.Healthy.Store(true)
		l.Info(ctx, "Http service starting", zap.Int("port", config.Port))

		err := s.ListenAndServe()

		switch {
		case errors.Is(err, http.ErrServerClosed):
			l.Info(ctx, "Http service shutdown successfully", zap.Int("port", config.Port))
		case err != nil:
			exitCode.Add(1)
			l.Error(ctx, "Http service encountered error", zap.Int("port", config.Port), zap.Error(err))
		default:
			l.Info(ctx, "Http service exited without error", zap.Int("port", config.Port))
		}
	})

	wg.Go(func() {
		<-signalCtx.Done()

		// Fail health checks first so the load balancer drains this replica.
		svc.apiStore.Healthy.Store(false)

		if !env.IsLocal() {
			time.Sleep(15 * time.Second)
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := s.Shutdown(shutdownCtx); err != nil {
			exitCode.Add(1)
			l.Error(ctx, "Http service shutdown error", zap.Int("port", config.Port), zap.Error(err))
		}
	})

	wg.Wait()

	cleanup()

	return int(exitCode.Load())
}

func main() {
	os.Exit(run())
}
