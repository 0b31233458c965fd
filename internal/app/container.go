package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	catalogDomain "github.com/xl-c111/Flora-sub001/internal/catalog/domain"
	"github.com/xl-c111/Flora-sub001/internal/catalog/infrastructure/cache"
	catalogPersistence "github.com/xl-c111/Flora-sub001/internal/catalog/infrastructure/persistence"
	deliveryDomain "github.com/xl-c111/Flora-sub001/internal/delivery/domain"
	identityPersistence "github.com/xl-c111/Flora-sub001/internal/identity/infrastructure/persistence"
	orderingDomain "github.com/xl-c111/Flora-sub001/internal/ordering/domain"
	"github.com/xl-c111/Flora-sub001/internal/ordering/infrastructure/httpclient"
	orderingPersistence "github.com/xl-c111/Flora-sub001/internal/ordering/infrastructure/persistence"
	sharedApplication "github.com/xl-c111/Flora-sub001/internal/shared/application"
	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database"
	_ "github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/eventbus"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/lock"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/migrations"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/outbox"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/commands"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/queries"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/services"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/subscribers"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/workers"
	subDomain "github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
	subPersistence "github.com/xl-c111/Flora-sub001/internal/subscriptions/infrastructure/persistence"
	"github.com/xl-c111/Flora-sub001/pkg/config"
	"github.com/xl-c111/Flora-sub001/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Clock   sharedDomain.Clock
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Storage
	DB       database.Connection
	DBDriver database.Driver
	Redis    redis.UniversalClient

	// Repositories
	SubscriptionRepo subDomain.Repository
	ProductRepo      catalogDomain.ProductRepository
	Prices           catalogDomain.PriceLookup
	OutboxRepo       outbox.Repository
	Users            *identityPersistence.UserDirectory
	OrderStore       *orderingPersistence.OrderStore
	Orders           orderingDomain.OrderCreator
	UnitOfWork       sharedApplication.UnitOfWork
	Locker           lock.Locker
	Pricing          *deliveryDomain.PricingTable

	// Messaging
	EventPublisher    eventbus.Publisher
	InProcessEventBus *eventbus.InProcessEventBus
	DeliveryAlert     *subscribers.DeliveryFailureAlert
	OutboxProcessor   *outbox.Processor

	// Engine
	SchedulePolicy *subDomain.SchedulePolicy
	Engine         *services.OrderDerivationEngine
	Scanner        *services.DueDeliveryScanner
	ScanWorker     *workers.ScanWorker

	// Subscription command handlers
	CreateSubscriptionHandler *commands.CreateSubscriptionHandler
	CreateFromProductHandler  *commands.CreateFromProductHandler
	PauseSubscriptionHandler  *commands.PauseSubscriptionHandler
	ResumeSubscriptionHandler *commands.ResumeSubscriptionHandler
	CancelSubscriptionHandler *commands.CancelSubscriptionHandler
	UpdateSubscriptionHandler *commands.UpdateSubscriptionHandler

	// Subscription query handlers
	GetSubscriptionHandler        *queries.GetSubscriptionHandler
	ListSubscriptionsHandler      *queries.ListSubscriptionsHandler
	ListSubscriptionOrdersHandler *queries.ListSubscriptionOrdersHandler
}

// Option customizes NewContainer.
type Option func(*options)

type options struct {
	clock  sharedDomain.Clock
	random subDomain.RandomSource
	redis  redis.UniversalClient
}

// WithClock replaces the system clock.
func WithClock(clock sharedDomain.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithRandom seeds spontaneous scheduling.
func WithRandom(random subDomain.RandomSource) Option {
	return func(o *options) { o.random = random }
}

// WithRedisClient uses client instead of dialing REDIS_URL.
func WithRedisClient(client redis.UniversalClient) Option {
	return func(o *options) { o.redis = client }
}

// NewContainer connects storage and messaging and builds every handler.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Clock:   sharedDomain.ClockOrSystem(o.clock),
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	if err := c.connectDatabase(ctx); err != nil {
		return nil, err
	}
	if err := c.connectRedis(ctx, o.redis); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.SubscriptionRepo = subPersistence.NewSubscriptionRepository(c.DB)
	c.ProductRepo = catalogPersistence.NewProductRepository(c.DB)
	c.OutboxRepo = outbox.NewRepository(c.DB)
	c.Users = identityPersistence.NewUserDirectory(c.DB, c.Clock)
	c.OrderStore = orderingPersistence.NewOrderStore(c.DB, c.Clock)
	c.UnitOfWork = database.NewUnitOfWork(c.DB)
	c.Pricing = deliveryDomain.NewPricingTable(map[deliveryDomain.Type]deliveryDomain.Rate{
		deliveryDomain.TypeStandard: {Fee: cfg.DeliveryFeeStandard, Estimate: "3-5 business days"},
		deliveryDomain.TypeExpress:  {Fee: cfg.DeliveryFeeExpress, Estimate: "1-2 business days"},
		deliveryDomain.TypeSameDay:  {Fee: cfg.DeliveryFeeSameDay, Estimate: "Same day delivery"},
	})

	c.Prices = c.ProductRepo
	if c.Redis != nil {
		c.Prices = cache.NewCachedPriceLookup(c.ProductRepo, c.Redis, cache.DefaultTTL, logger)
		c.Locker = lock.NewRedisLocker(c.Redis)
	} else {
		c.Locker = lock.NewLocalLocker(c.Clock)
	}

	c.Orders = c.OrderStore
	if cfg.OrderServiceURL != "" {
		clientCfg := httpclient.DefaultConfig(cfg.OrderServiceURL)
		clientCfg.Timeout = cfg.OrderServiceTimeout
		if cfg.OrderBreakerThreshold > 0 {
			clientCfg.FailureThreshold = uint32(cfg.OrderBreakerThreshold)
		}
		clientCfg.Cooldown = cfg.OrderBreakerCooldown
		c.Orders = httpclient.New(clientCfg, nil, c.Metrics, logger)
		logger.Info("using remote order service", "url", cfg.OrderServiceURL)
	}

	if err := c.connectPublisher(); err != nil {
		_ = c.Close()
		return nil, err
	}

	processorCfg := outbox.DefaultProcessorConfig()
	processorCfg.PollInterval = cfg.OutboxPollInterval
	processorCfg.BatchSize = cfg.OutboxBatchSize
	processorCfg.MaxRetries = cfg.OutboxMaxRetries
	processorCfg.Retention = retentionOf(cfg.OutboxRetentionDays)
	processorCfg.CleanupInterval = cfg.OutboxCleanupInterval
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorCfg, c.Clock, c.Metrics, logger)

	c.SchedulePolicy = subDomain.NewSchedulePolicy(o.random)
	c.Engine = services.NewOrderDerivationEngine(services.EngineDeps{
		Repo:    c.SubscriptionRepo,
		Outbox:  c.OutboxRepo,
		UoW:     c.UnitOfWork,
		Orders:  c.Orders,
		Prices:  c.Prices,
		Pricing: c.Pricing,
		Clock:   c.Clock,
		Metrics: c.Metrics,
		Logger:  logger,
	})
	c.Scanner = services.NewDueDeliveryScanner(
		c.SubscriptionRepo, c.OutboxRepo, c.UnitOfWork, c.Engine, c.SchedulePolicy,
		services.ScannerConfig{Concurrency: cfg.ScanConcurrency},
		c.Metrics, logger,
	)
	c.ScanWorker = workers.NewScanWorker(c.Scanner, c.Locker, c.Clock, workers.ScanWorkerConfig{
		Interval:   cfg.ScanInterval,
		LockTTL:    cfg.ScanLockTTL,
		LockKey:    workers.DefaultScanLockKey,
		RunOnStart: cfg.ScanOnStart,
	}, c.Metrics, logger)

	c.CreateSubscriptionHandler = commands.NewCreateSubscriptionHandler(
		c.SubscriptionRepo, c.OutboxRepo, c.UnitOfWork, c.Users, c.Engine,
		c.SchedulePolicy, c.Clock, c.Metrics, logger,
	)
	c.CreateFromProductHandler = commands.NewCreateFromProductHandler(c.CreateSubscriptionHandler)
	c.PauseSubscriptionHandler = commands.NewPauseSubscriptionHandler(c.SubscriptionRepo, c.OutboxRepo, c.UnitOfWork, c.Clock, c.Metrics, logger)
	c.ResumeSubscriptionHandler = commands.NewResumeSubscriptionHandler(c.SubscriptionRepo, c.OutboxRepo, c.UnitOfWork, c.SchedulePolicy, c.Clock, c.Metrics, logger)
	c.CancelSubscriptionHandler = commands.NewCancelSubscriptionHandler(c.SubscriptionRepo, c.OutboxRepo, c.UnitOfWork, c.Clock, c.Metrics, logger)
	c.UpdateSubscriptionHandler = commands.NewUpdateSubscriptionHandler(c.SubscriptionRepo, c.OutboxRepo, c.UnitOfWork, c.SchedulePolicy, c.Clock, c.Metrics, logger)

	c.GetSubscriptionHandler = queries.NewGetSubscriptionHandler(c.SubscriptionRepo)
	c.ListSubscriptionsHandler = queries.NewListSubscriptionsHandler(c.SubscriptionRepo)
	c.ListSubscriptionOrdersHandler = queries.NewListSubscriptionOrdersHandler(c.SubscriptionRepo, c.OrderStore)

	return c, nil
}

func (c *Container) connectDatabase(ctx context.Context) error {
	cfg := c.Config
	conn, err := database.NewConnection(ctx, database.ConfigFromURL(cfg.DatabaseURL, cfg.DatabaseMaxConns))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = conn
	c.DBDriver = conn.Driver()
	c.Health.Register("database", observability.PingChecker("database", observability.HealthStatusUnhealthy, conn.Ping))
	c.Logger.Info("connected to database", "driver", c.DBDriver)

	// PostgreSQL schemas are managed with `flora migrate`; SQLite files are
	// local and migrate themselves.
	if c.DBDriver != database.DriverSQLite {
		return nil
	}
	applied, err := migrations.Up(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if applied > 0 {
		c.Logger.Info("applied migrations", "count", applied)
	}

	if cfg.UserID != "" {
		userID, err := uuid.Parse(cfg.UserID)
		if err != nil {
			_ = conn.Close()
			return fmt.Errorf("invalid FLORA_USER_ID: %w", err)
		}
		if err := identityPersistence.NewUserDirectory(conn, c.Clock).EnsureExists(ctx, userID); err != nil {
			_ = conn.Close()
			return fmt.Errorf("failed to ensure local user exists: %w", err)
		}
	}
	return nil
}

// connectRedis is optional in development: a bad URL or unreachable server
// falls back to the in-process locker and uncached prices.
func (c *Container) connectRedis(ctx context.Context, client redis.UniversalClient) error {
	cfg := c.Config
	if client == nil {
		if cfg.RedisURL == "" {
			return nil
		}
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				return fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			c.Logger.Warn("invalid Redis URL, using local lock and uncached prices", "error", err)
			return nil
		}
		client = redis.NewClient(opt)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, using local lock and uncached prices", "error", err)
		return nil
	}

	c.Redis = client
	c.Health.Register("redis", observability.PingChecker("redis", observability.HealthStatusDegraded, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	c.Logger.Info("connected to Redis")
	return nil
}

// connectPublisher picks the outbox's destination from EVENT_BUS. Broker
// failures fall back to the noop publisher in development.
func (c *Container) connectPublisher() error {
	cfg := c.Config
	c.DeliveryAlert = subscribers.NewDeliveryFailureAlert(c.Metrics, c.Logger)

	var (
		publisher eventbus.Publisher
		err       error
	)
	switch cfg.EventBus {
	case config.EventBusNoop:
		publisher = eventbus.NewNoopPublisher(c.Logger)
	case config.EventBusRabbitMQ:
		publisher, err = eventbus.NewRabbitMQPublisher(eventbus.RabbitMQConfig{
			URL:      cfg.RabbitMQURL,
			Exchange: cfg.RabbitMQExchange,
		}, c.Logger)
	case config.EventBusKafka:
		publisher, err = eventbus.NewKafkaPublisher(eventbus.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		}, c.Logger)
	default:
		bus := eventbus.NewInProcessEventBus(c.Logger)
		bus.RegisterConsumer(c.DeliveryAlert)
		c.InProcessEventBus = bus
		publisher = bus
	}

	if err != nil {
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to connect event bus %s: %w", cfg.EventBus, err)
		}
		c.Logger.Warn("event bus not available, using noop publisher", "bus", cfg.EventBus, "error", err)
		publisher = eventbus.NewNoopPublisher(c.Logger)
	}
	c.EventPublisher = publisher
	return nil
}

// UserID returns the configured operator identity.
func (c *Container) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Config.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid FLORA_USER_ID %q: %w", c.Config.UserID, err)
	}
	return id, nil
}

// Close releases all resources.
func (c *Container) Close() error {
	var errs []error
	if c.ScanWorker != nil {
		c.ScanWorker.Stop()
	}
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}
	if c.EventPublisher != nil {
		errs = append(errs, c.EventPublisher.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}

func retentionOf(days int) time.Duration {
	if days <= 0 {
		return 0
	}
	return time.Duration(days) * 24 * time.Hour
}
