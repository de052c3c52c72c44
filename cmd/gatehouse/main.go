package main

import (
	"context"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/calyptra/gatehouse/adapters/codec"
	"github.com/calyptra/gatehouse/adapters/events"
	"github.com/calyptra/gatehouse/adapters/hasher"
	"github.com/calyptra/gatehouse/adapters/store"
	"github.com/calyptra/gatehouse/adapters/userstore"
	"github.com/calyptra/gatehouse/config"
	"github.com/calyptra/gatehouse/ports"
	"github.com/calyptra/gatehouse/service"
	httptransport "github.com/calyptra/gatehouse/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to parse Redis URL", zap.Error(err))
	}
	redisClient := redis.NewClient(opts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}

	users, err := newUserStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to set up user store", zap.Error(err))
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: redisClient},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		logger.Fatal("failed to create event publisher", zap.Error(err))
	}

	cdc, err := codec.New([]byte(cfg.JWTSecret))
	if err != nil {
		logger.Fatal("failed to create token codec", zap.Error(err))
	}

	revocations := store.NewRedisStore(redisClient)
	bc := hasher.NewBcrypt(cfg.BcryptCost)
	eventPub := events.NewWatermillPublisher(publisher)

	sessions := service.NewSessionManager(users, revocations, cdc, bc, eventPub, logger,
		cfg.AccessTTL(), cfg.RefreshTTL())
	accounts := service.NewAccountService(users, revocations, cdc, bc, eventPub, logger,
		cfg.ConfirmTokenTTL(), cfg.ResetTokenTTL())
	admin := service.NewAdminService(users, revocations, logger)
	gate := service.NewGate(users, revocations, cdc)

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httptransport.NewRouter(
		httptransport.NewAuthHandlers(sessions, accounts, cfg.AccessTTL()),
		httptransport.NewAdminHandlers(admin),
		gate,
		logger,
	)

	logger.Info("starting server", zap.String("addr", cfg.HTTPAddr))
	if err := router.Run(cfg.HTTPAddr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Production() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// newUserStore connects to Postgres when DATABASE_URL is set and falls back
// to the in-memory store otherwise, which is enough for local development.
func newUserStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.UserStore, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory user store")
		return userstore.NewMemoryStore(), nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	pg := userstore.NewPostgresStore(pool)
	if err := pg.Migrate(ctx); err != nil {
		return nil, err
	}
	return pg, nil
}
