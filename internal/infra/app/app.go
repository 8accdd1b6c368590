package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/savoria/orderdesk/internal/core/port"
	"github.com/savoria/orderdesk/internal/infra/config"
	"github.com/savoria/orderdesk/internal/infra/database"
	kafkainfra "github.com/savoria/orderdesk/internal/infra/kafka"
	"github.com/savoria/orderdesk/internal/infra/logger"
	redisinfra "github.com/savoria/orderdesk/internal/infra/redis"
	"github.com/savoria/orderdesk/internal/infra/security"
	"github.com/savoria/orderdesk/internal/infra/telemetry"
	filerepo "github.com/savoria/orderdesk/internal/repository/file"
	postgresrepo "github.com/savoria/orderdesk/internal/repository/postgres"
	redisrepo "github.com/savoria/orderdesk/internal/repository/redis"
	"github.com/savoria/orderdesk/internal/transport/http/middleware"
	"github.com/savoria/orderdesk/internal/transport/http/routes"
	"github.com/savoria/orderdesk/internal/usecase"
)

// Application owns the wired service graph and the HTTP server lifecycle.
type Application struct {
	cfg       *config.AppConfig
	engine    *gin.Engine
	logger    *zap.Logger
	pool      *pgxpool.Pool
	redis     *redisinfra.Client
	publisher port.EventPublisher
	tracing   *telemetry.TracerProvider
}

// New builds the full dependency graph from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if _, err := telemetry.Attach(ctx, cfg); err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	var tracing *telemetry.TracerProvider
	if cfg.Telemetry.OTLPEndpoint != "" {
		tracing, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			log.Warn("tracing disabled", zap.Error(err))
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	hasher, err := security.NewHasher(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		return nil, fmt.Errorf("init hasher: %w", err)
	}

	tokens, err := security.NewTokenManager([]byte(cfg.Session.Secret), cfg.Session.Issuer, cfg.Session.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init token manager: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	var publisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			publisher = kafkainfra.NewStubPublisher(log)
		} else {
			publisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		publisher = kafkainfra.NewStubPublisher(log)
	}

	auditFallback := filerepo.NewAuditFallback(cfg.Audit.FallbackPath)
	auditService := usecase.NewAuditService(repos.Audit, auditFallback, publisher, log)

	lockoutService := usecase.NewLockoutService(repos.Lockouts, cfg.Security.LockoutThreshold, cfg.Security.LockoutCooldown, log)

	authService, err := usecase.NewAuthService(repos.Accounts, lockoutService, auditService, hasher, tokens, log)
	if err != nil {
		return nil, fmt.Errorf("init auth service: %w", err)
	}

	keyPrefix := cfg.Redis.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "orderdesk"
	}

	reauthStore := redisrepo.NewReauthRepository(redisClient.Client(), keyPrefix)
	reauthService := usecase.NewReauthService(repos.Accounts, reauthStore, auditService, hasher, cfg.Security.ReauthWindow, log)

	policy := security.NewPasswordPolicy(hasher, cfg.Security.MinPasswordAge)
	passwordService := usecase.NewPasswordService(repos.Accounts, policy, hasher, reauthService, auditService, publisher, cfg.Security.PasswordHistory, log)

	resetStore := redisrepo.NewResetFlowRepository(redisClient.Client(), keyPrefix)
	resetService, err := usecase.NewResetService(repos.Accounts, resetStore, passwordService, lockoutService, auditService, hasher, cfg.Security.ResetFlowTTL, cfg.Security.ResetAnswerRetries, log)
	if err != nil {
		return nil, fmt.Errorf("init reset service: %w", err)
	}

	registrationService := usecase.NewRegistrationService(repos.Accounts, policy, hasher, auditService, log)
	userService := usecase.NewUserService(repos.Accounts, reauthService, auditService, log)
	authorizer := usecase.NewAuthorizer(auditService, log)
	menuService := usecase.NewMenuService(repos.Menu, reauthService, auditService, log)
	orderService := usecase.NewOrderService(repos.Orders, repos.Menu, auditService, log)
	dashboardService := usecase.NewDashboardService(repos.Orders, repos.Menu)

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: keyPrefix + ":rate-limit",
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Tokens:      tokens,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Auth:         authService,
			Registration: registrationService,
			Passwords:    passwordService,
			Reauth:       reauthService,
			Reset:        resetService,
			Audit:        auditService,
			Users:        userService,
			Menu:         menuService,
			Orders:       orderService,
			Dashboard:    dashboardService,
			Authorizer:   authorizer,
		},
	})

	return &Application{
		cfg:       cfg,
		engine:    engine,
		logger:    log,
		pool:      pool,
		redis:     redisClient,
		publisher: publisher,
		tracing:   tracing,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down cleanly.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.publisher != nil {
			if err := a.publisher.Close(); err != nil {
				a.logger.Warn("close event publisher", zap.Error(err))
			}
		}
	}()
	defer func() {
		if a.tracing != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.tracing.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("shutdown tracing", zap.Error(err))
			}
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting orderdesk API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
