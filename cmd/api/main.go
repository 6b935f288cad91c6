package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/sstove-api/docs" // Swagger docs (generated)
	"github.com/redmonkez12/sstove-api/internal/auth"
	"github.com/redmonkez12/sstove-api/internal/config"
	"github.com/redmonkez12/sstove-api/internal/database"
	"github.com/redmonkez12/sstove-api/internal/dish"
	"github.com/redmonkez12/sstove-api/internal/email"
	httpServer "github.com/redmonkez12/sstove-api/internal/http"
	"github.com/redmonkez12/sstove-api/internal/logging"
	"github.com/redmonkez12/sstove-api/internal/metrics"
	"github.com/redmonkez12/sstove-api/internal/profile"
	"github.com/redmonkez12/sstove-api/internal/ratelimit"
	"github.com/redmonkez12/sstove-api/internal/stove"
	"github.com/redmonkez12/sstove-api/internal/user"
)

//go:generate swag init -g cmd/api/main.go -o docs -d ../../

// @title           SStove API
// @version         1.0
// @description     Backend for smart stoves: accounts, stove membership and dish timings.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

const refreshTokenCleanupInterval = time.Hour

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"auth_strategy", cfg.Auth.Strategy,
		"refresh_store", cfg.Auth.RefreshStore,
		"chief_claim_mode", cfg.Stove.ChiefClaimMode,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	redisClient, err := initRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	tokenService, err := newTokenService(cfg.Auth)
	if err != nil {
		return err
	}

	var refreshStore auth.RefreshTokenRepository
	switch cfg.Auth.RefreshStore {
	case config.RefreshStorePostgres:
		pgStore := auth.NewRepository(db)
		refreshStore = pgStore
		go cleanupRefreshTokens(ctx, pgStore, logger)
	default:
		refreshStore = auth.NewRedisRepository(redisClient)
	}

	var mailer auth.EmailService
	if cfg.Email.SMTPConfigured() {
		mailer, err = email.NewService(cfg.Email, cfg.Auth.ActivationTokenTTL)
		if err != nil {
			return fmt.Errorf("failed to initialize email service: %w", err)
		}
	} else {
		logger.Warn("SMTP is not configured, emails will be logged instead of sent")
		mailer = email.NewLogMailer(logger, cfg.Email.FrontendURL)
	}

	userRepo := user.NewRepository(db)
	authService := auth.NewService(
		userRepo,
		refreshStore,
		auth.NewPasswordResetRepository(redisClient),
		tokenService,
		mailer,
		logger,
		m,
		auth.Lifetimes{
			Access:     cfg.Auth.AccessTokenDuration,
			Refresh:    cfg.Auth.RefreshTokenDuration,
			Activation: cfg.Auth.ActivationTokenTTL,
		},
	)

	handlers := httpServer.Handlers{
		Auth: auth.NewHandler(
			authService,
			ratelimit.NewLimiter(redisClient),
			!cfg.Server.IsDevelopment(), // isProduction
			cfg.Auth.AccessTokenDuration,
			cfg.Auth.RefreshTokenDuration,
		),
		Stoves:   stove.NewHandler(stove.NewService(stove.NewRepository(db), logger, m, cfg.Stove.ChiefClaimMode)),
		Dishes:   dish.NewHandler(dish.NewService(dish.NewRepository(db), logger, m)),
		Profiles: profile.NewHandler(profile.NewService(userRepo, authService)),
		Health:   httpServer.NewHealthHandler(db, redisClient),
	}

	router := httpServer.NewRouter(cfg, handlers, auth.NewMiddleware(tokenService, userRepo), m, logger)
	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

func newTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	switch cfg.Strategy {
	case config.StrategyJWT:
		svc, err := auth.NewJWTService([]byte(cfg.JWTSecret))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
		}
		return svc, nil
	default:
		svc, err := auth.NewPasetoService([]byte(cfg.PasetoKey))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PASETO service: %w", err)
		}
		return svc, nil
	}
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// cleanupRefreshTokens purges expired rows from the PostgreSQL refresh store
// until ctx is cancelled.
func cleanupRefreshTokens(ctx context.Context, repo *auth.Repository, logger *logging.Logger) {
	ticker := time.NewTicker(refreshTokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.CleanupExpiredTokens(ctx); err != nil {
				logger.Error("failed to clean up refresh tokens", "error", err.Error())
			}
		}
	}
}
