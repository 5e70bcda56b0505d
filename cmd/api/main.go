package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"text-stock-tracker/internal/config"
	"text-stock-tracker/internal/db"
	apihttp "text-stock-tracker/internal/http"
	"text-stock-tracker/internal/marketdata"
	"text-stock-tracker/internal/metrics"
	"text-stock-tracker/internal/repository"
	"text-stock-tracker/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var (
		pool    *pgxpool.Pool
		users   repository.UserRepository
		lookups repository.LookupRepository
	)
	pool, err = db.NewPool(ctx, cfg)
	switch {
	case errors.Is(err, db.ErrNoDatabaseURL):
		logger.Warn("DATABASE_URL not set, conversation state kept in memory")
		mem := repository.NewMemoryStore()
		users, lookups = mem.Users(), mem.Lookups()
	case err != nil:
		logger.Fatal("db connect", zap.Error(err))
	default:
		defer pool.Close()
		users = repository.NewPgUserRepository(pool)
		lookups = repository.NewPgLookupRepository(pool)
	}

	var (
		locker      service.SenderLocker
		limiter     service.SenderRateLimiter
		tokenStore  service.TokenRevocationStore
		cache       marketdata.Cache
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-process fallbacks", zap.Error(err))
			redisClient = nil
		} else {
			locker = service.NewRedisSenderLocker(redisClient, cfg.SenderLockTTL)
			if cfg.SenderRateLimitPerMinute > 0 {
				limiter = service.NewRedisSenderRateLimiter(redisClient, time.Minute, cfg.SenderRateLimitPerMinute)
			}
			tokenStore = service.NewRedisTokenRevocationStore(redisClient)
			cache = marketdata.NewRedisCache(redisClient)
		}
		cancel()
	}
	if locker == nil {
		locker = service.NewMemorySenderLocker()
	}
	if limiter == nil && cfg.SenderRateLimitPerMinute > 0 {
		limiter = service.NewMemorySenderRateLimiter(time.Minute, cfg.SenderRateLimitPerMinute)
	}
	if cache == nil {
		cache = marketdata.NewLRUCache(4096, cfg.LookupCacheTTL)
	}

	httpGateway := marketdata.NewHTTPClient(cfg.MarketDataBaseURL, cfg.MarketDataTimeout, cfg.MarketDataRPS, logger)
	gateway := marketdata.NewCachingGateway(httpGateway, cache, cfg.QuoteCacheTTL, cfg.LookupCacheTTL)

	routerMetrics := metrics.NewRouterMetrics(prometheus.DefaultRegisterer)
	store := service.NewConversationStore(logger, users, lookups, locker)
	convRouter := service.NewConversationRouter(logger, store, gateway, limiter, routerMetrics, cfg.RecallWindow)

	retention := service.NewRetentionService(logger, lookups, cfg.LookupRetention)
	go retention.Run(ctx, cfg.RetentionInterval)

	var jwtSvc *service.JWTService
	if cfg.JWTSecret != "" {
		jwtSvc = service.NewJWTServiceWithStore(cfg.JWTSecret, time.Duration(cfg.JWTTTLMinutes)*time.Minute, tokenStore)
	} else {
		logger.Warn("jwt secret not configured, /api disabled")
	}
	if cfg.TwilioAuthToken == "" {
		logger.Warn("twilio auth token not configured, webhook signatures not verified")
	}

	health := func(ctx context.Context) error {
		if pool != nil {
			if err := db.Ping(ctx, pool); err != nil {
				return err
			}
		}
		if redisClient != nil {
			return redisClient.Ping(ctx).Err()
		}
		return nil
	}

	smsHandler := apihttp.NewSMSHandler(logger, convRouter, cfg.TwilioAuthToken, cfg.TwilioWebhookURL)
	router := apihttp.NewRouter(logger, smsHandler, jwtSvc, prometheus.DefaultGatherer, health)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
