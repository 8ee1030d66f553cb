package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/access"
	"github.com/lalith-99/galynx/internal/api"
	"github.com/lalith-99/galynx/internal/attach"
	"github.com/lalith-99/galynx/internal/audit"
	"github.com/lalith-99/galynx/internal/auth"
	"github.com/lalith-99/galynx/internal/bootstrap"
	"github.com/lalith-99/galynx/internal/channel"
	"github.com/lalith-99/galynx/internal/config"
	"github.com/lalith-99/galynx/internal/db"
	"github.com/lalith-99/galynx/internal/events"
	"github.com/lalith-99/galynx/internal/identity"
	"github.com/lalith-99/galynx/internal/message"
	"github.com/lalith-99/galynx/internal/metrics"
	"github.com/lalith-99/galynx/internal/objstore"
	"github.com/lalith-99/galynx/internal/observ"
	"github.com/lalith-99/galynx/internal/ratelimit"
	"github.com/lalith-99/galynx/internal/realtime"
	"github.com/lalith-99/galynx/internal/repository"
	memstore "github.com/lalith-99/galynx/internal/repository/memory"
	mongostore "github.com/lalith-99/galynx/internal/repository/mongo"
	"github.com/lalith-99/galynx/internal/user"
	"github.com/lalith-99/galynx/internal/workspace"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	readiness := map[string]api.HealthChecker{}

	var stores *repository.Stores
	switch cfg.PersistenceBackend {
	case config.BackendMongo:
		mongoDB, err := db.NewMongo(ctx, cfg.MongoURI, logger)
		if err != nil {
			return fmt.Errorf("connect to mongo: %w", err)
		}
		defer mongoDB.Close(context.Background())
		stores = mongostore.NewStores(mongoDB.Database())
		readiness["mongo"] = mongoDB.Health
	default:
		stores = memstore.NewStores()
	}

	bus := events.NewBus()

	var limiter ratelimit.Limiter = ratelimit.NewLocal()
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = db.NewRedis(ctx, cfg.RedisURL, logger)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		limiter = ratelimit.NewRedis(redisClient, logger)
		readiness["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}

		mirror := events.NewMirror(redisClient, bus, identity.NewID().String(), logger)
		go mirror.Run(ctx)
	}

	var store objstore.Storage = objstore.NewLocal()
	if cfg.S3Bucket != "" {
		store, err = objstore.NewS3(objstore.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			PublicEndpoint:  cfg.S3PublicEndpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			ForcePathStyle:  cfg.S3ForcePathStyle,
		}, logger)
		if err != nil {
			return fmt.Errorf("init object store: %w", err)
		}
	}

	recorder := audit.NewRecorder(stores.Audit, logger)
	defer recorder.Close()
	checker := access.NewChecker(stores.Channels)

	accessTTL := time.Duration(cfg.AccessTTLMinutes) * time.Minute
	refreshTTL := time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour
	authService := auth.NewService(stores.Users, stores.Workspaces, stores.RefreshTokens, cfg.JWTSecret, accessTTL, refreshTTL, recorder, logger)
	messageService := message.NewService(stores.Messages, stores.Reactions, checker, bus, recorder, logger)
	channelService := channel.NewService(stores.Channels, stores.Messages, stores.Workspaces, checker, bus, recorder, logger)
	workspaceService := workspace.NewService(stores.Workspaces, stores.Users, recorder, logger)
	userService := user.NewService(stores.Users, stores.Workspaces, recorder, logger)
	attachService := attach.NewService(stores.PendingUploads, stores.Attachments, stores.Messages, store, bus, recorder, logger)

	engine := realtime.NewEngine(cfg.JWTSecret, messageService, bus, recorder, limiter, logger)

	if _, err := bootstrap.Seed(ctx, stores, bootstrap.Params{
		WorkspaceName: cfg.BootstrapWorkspaceName,
		Email:         cfg.BootstrapEmail,
		Password:      cfg.BootstrapPassword,
	}, logger); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	var registry *metrics.Registry
	if cfg.MetricsEnabled {
		registry = metrics.NewRegistry(engine.Sessions, bus.Dropped)
	}

	router := api.NewRouter(api.RouterConfig{
		JWTSecret:   cfg.JWTSecret,
		Auth:        api.NewAuthHandler(authService, limiter, logger),
		Users:       api.NewUserHandler(userService, logger),
		Workspaces:  api.NewWorkspaceHandler(workspaceService, logger),
		Channels:    api.NewChannelHandler(channelService, logger),
		Messages:    api.NewMessageHandler(messageService, logger),
		Attachments: api.NewAttachmentHandler(attachService, checker, logger),
		Audit:       api.NewAuditHandler(stores.Audit, logger),
		Realtime:    engine,
		Metrics:     registry,
		Readiness:   readiness,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting galynx",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("backend", string(cfg.PersistenceBackend)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
