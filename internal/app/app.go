package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/emrahgewer/yorumatorapp/internal/auth"
	"github.com/emrahgewer/yorumatorapp/internal/config"
	"github.com/emrahgewer/yorumatorapp/internal/event"
	handler "github.com/emrahgewer/yorumatorapp/internal/handler/http"
	"github.com/emrahgewer/yorumatorapp/internal/moderation"
	"github.com/emrahgewer/yorumatorapp/internal/repository/postgres"
	"github.com/emrahgewer/yorumatorapp/internal/service"
	"github.com/emrahgewer/yorumatorapp/migrations"
	"github.com/emrahgewer/yorumatorapp/pkg/database"
	"github.com/emrahgewer/yorumatorapp/pkg/health"
	pkgkafka "github.com/emrahgewer/yorumatorapp/pkg/kafka"
	"github.com/emrahgewer/yorumatorapp/pkg/tracing"
)

// Version is reported in traces.
const Version = "0.1.0"

const idempotencyKeyPrefix = "yorumator:events"

// App wires together all dependencies and runs the API process and the
// notification materializer.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	consumer       *pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	tracerShutdown, err := tracing.Init(ctx, cfg.Tracing(Version))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, config.ServiceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if cfg.RunMigrations {
		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")
	}

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)
	}

	// Redis backs consumer idempotency when configured.
	if redisCfg, ok := cfg.Redis(); ok {
		client, err := database.NewRedisClient(ctx, redisCfg)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
		logger.Info("connected to Redis", slog.String("addr", redisCfg.Addr()))
	}

	// Repositories
	reviewRepo := postgres.NewReviewRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	followRepo := postgres.NewFollowRepository(pool)
	favoriteRepo := postgres.NewFavoriteRepository(pool)
	opinionRepo := postgres.NewOpinionRepository(pool)
	replyRepo := postgres.NewReplyRepository(pool)
	questionRepo := postgres.NewQuestionRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)

	// Kafka. Without it the API still serves and counters stay consistent;
	// only notifications stop being materialized.
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers, config.ServiceName), logger)
		a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		a.consumer = a.newMaterializerConsumer(notificationRepo, userRepo)
		logger.Info("kafka initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Warn("kafka disabled, notifications will not be materialized")
	}
	eventProducer := event.NewProducer(a.producer, logger)

	var scorer moderation.Scorer = moderation.Noop{}
	if cfg.ModerationURL != "" {
		scorer = moderation.NewClient(cfg.ModerationURL, cfg.ModerationTimeout, logger)
	}

	svcs := handler.Services{
		Reviews:       service.NewReviewService(reviewRepo, productRepo, scorer, eventProducer, cfg.RatingRefreshMaxAttempts, logger),
		Social:        service.NewSocialService(userRepo, followRepo, favoriteRepo, eventProducer, logger),
		Opinions:      service.NewOpinionService(opinionRepo, reviewRepo, eventProducer, logger),
		Replies:       service.NewReplyService(replyRepo, reviewRepo, eventProducer, cfg.ReplyPageLimit, logger),
		QA:            service.NewQAService(questionRepo, eventProducer, logger),
		Notifications: service.NewNotificationService(notificationRepo, logger),
	}

	healthHandler := a.healthChecks()

	routerCfg := handler.RouterConfig{
		ServiceName: config.ServiceName,
		CORSOrigins: cfg.CORSAllowedOrigins,
		PprofCIDRs:  cfg.PprofAllowedCIDRs,
		WriteRPS:    cfg.WriteRateLimitRPS,
		WriteBurst:  cfg.WriteRateLimitBurst,
	}
	if cfg.AuthEnabled {
		routerCfg.TokenValidator = auth.NewValidator(cfg.JWTSecret, cfg.JWTIssuer).TokenValidator()
	} else {
		logger.Warn("token auth disabled, trusting gateway identity headers")
	}

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler.NewRouter(svcs, healthHandler, routerCfg, logger),
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) newMaterializerConsumer(notifications *postgres.NotificationRepository, users *postgres.UserRepository) *pkgkafka.Consumer {
	var store pkgkafka.IdempotencyStore
	if a.redis != nil {
		store = pkgkafka.NewRedisIdempotencyStore(a.redis, idempotencyKeyPrefix, a.cfg.IdempotencyTTL)
	} else {
		store = pkgkafka.NewMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
	}

	group := a.cfg.KafkaConsumerGroup
	if group == "" {
		group = event.DefaultConsumerGroupID
	}

	materializer := event.NewMaterializer(notifications, users, a.logger)
	return pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:  a.cfg.KafkaBrokers,
		GroupID:  group,
		Topics:   event.Topics(),
		MinBytes: 1,
		MaxBytes: 10e6,
	}, pkgkafka.IdempotentHandler(store, materializer.Handle, a.logger), a.dlq, a.logger)
}

func (a *App) healthChecks() *health.Handler {
	h := health.NewHandler()
	h.Register("postgres", func(ctx context.Context) error {
		return a.pool.Ping(ctx)
	})
	if a.redis != nil {
		h.RegisterOptional("redis", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}
	if a.producer != nil {
		h.RegisterOptional("kafka", a.producer.Ping)
	}
	return h
}

// Run starts the HTTP server and the materializer and blocks until the
// context is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	var wg sync.WaitGroup
	if a.consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.consumer.Start(consumerCtx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		a.logger.Error("component failed", slog.String("error", runErr.Error()))
	}

	stopConsumer()
	wg.Wait()
	return errors.Join(runErr, a.Shutdown())
}

// Shutdown stops all components in dependency order: HTTP first so no new
// events are produced, then tracing, Kafka, Redis and PostgreSQL.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.HTTPShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer tracerCancel()
	if err := a.tracerShutdown(tracerCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
