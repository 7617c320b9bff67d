package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	classificationapp "github.com/crosspost/backend/internal/application/classification"
	listingapp "github.com/crosspost/backend/internal/application/listing"
	publishingapp "github.com/crosspost/backend/internal/application/publishing"
	"github.com/crosspost/backend/internal/domain/classification"
	"github.com/crosspost/backend/internal/domain/listing"
	"github.com/crosspost/backend/internal/domain/publication"
	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/crosspost/backend/internal/infrastructure/automation"
	"github.com/crosspost/backend/internal/infrastructure/cache"
	"github.com/crosspost/backend/internal/infrastructure/config"
	"github.com/crosspost/backend/internal/infrastructure/event"
	"github.com/crosspost/backend/internal/infrastructure/logger"
	"github.com/crosspost/backend/internal/infrastructure/notify"
	"github.com/crosspost/backend/internal/infrastructure/pacing"
	"github.com/crosspost/backend/internal/infrastructure/persistence"
	"github.com/crosspost/backend/internal/infrastructure/proxy"
	"github.com/crosspost/backend/internal/infrastructure/storage"
	"github.com/crosspost/backend/internal/interfaces/http/handler"
	"github.com/crosspost/backend/internal/interfaces/http/middleware"
	"github.com/crosspost/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting crosspost backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	db, err := persistence.NewDatabase(persistence.DatabaseConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute,
		LogQueries:      cfg.Database.LogQueries,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	// Postgres deployments run cmd/migrate; SQLite runs pick up the schema here
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(&listing.Listing{}, &publication.Publication{}); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}

	// Initialize repositories
	listingRepo := persistence.NewGormListingRepository(db)
	publicationRepo := persistence.NewGormPublicationRepository(db)

	// Initialize event bus and outcome notifications
	eventBus := event.NewBus(log)
	sinks := buildNotifySinks(cfg, log)
	if len(sinks) > 0 {
		eventBus.Subscribe(notify.NewHandler(listingRepo, log, sinks...))
		log.Info("Notification sinks registered", zap.Int("count", len(sinks)))
	}
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Photo storage backend
	photoStorage, err := buildPhotoStorage(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize photo storage", zap.Error(err))
	}
	log.Info("Photo storage ready", zap.String("backend", cfg.Storage.Backend))

	// Classification preview cache
	previewCache := buildPreviewCache(cfg, log)

	// Pacing policy shared by the orchestrator and the browser adapters
	pacer, err := pacing.NewPolicy(
		pacing.Bounds{Min: cfg.Pacing.ActionMin, Max: cfg.Pacing.ActionMax},
		pacing.Bounds{Min: cfg.Pacing.PostMin, Max: cfg.Pacing.PostMax},
	)
	if err != nil {
		log.Fatal("Invalid pacing configuration", zap.Error(err))
	}

	// Outbound proxy rotation; an empty file means direct connections
	var descriptors []proxy.Descriptor
	if cfg.Proxy.File != "" {
		descriptors, err = proxy.LoadFile(cfg.Proxy.File)
		if err != nil {
			log.Fatal("Failed to load proxy list", zap.Error(err))
		}
	}
	proxyPool := proxy.NewPool(descriptors, cfg.Proxy.FailThreshold, cfg.Proxy.Cooldown, log)
	log.Info("Proxy pool ready", zap.Int("proxies", len(descriptors)))

	// Marketplace browser adapters
	browserCfg := automation.BrowserConfig{
		Headless:    cfg.Browser.Headless,
		NoSandbox:   cfg.Browser.NoSandbox,
		StepTimeout: cfg.Browser.StepTimeout,
		Logger:      log,
	}
	adapters := []automation.Adapter{
		automation.NewVintedAdapter(browserCfg, pacer, log),
		automation.NewLeboncoinAdapter(browserCfg, pacer, log),
	}

	credentials := func(platform shared.Platform) (automation.Credentials, bool) {
		c, ok := cfg.Platforms.Credentials(string(platform))
		if !ok {
			return automation.Credentials{}, false
		}
		return automation.Credentials{Email: c.Email, Password: c.Password}, true
	}

	// Category classifier over the built-in taxonomy
	classifier := classification.NewClassifier()

	// Publishing orchestrator
	orchestrator := publishingapp.NewOrchestrator(
		publicationRepo,
		listingRepo,
		adapters,
		credentials,
		proxyPool,
		pacer,
		publishingapp.NewTaxonomyClassifier(classifier),
		photoStorage,
		eventBus,
		log,
		publishingapp.Config{
			Backoff:         cfg.Publisher.Backoff,
			BackoffInterval: cfg.Publisher.BackoffInterval,
			SweepInterval:   cfg.Publisher.SweepInterval,
			MaxAttempts:     cfg.Publisher.MaxAttempts,
		},
	)
	if err := orchestrator.Start(context.Background()); err != nil {
		log.Fatal("Failed to start publisher", zap.Error(err))
	}
	defer orchestrator.Stop()
	log.Info("Publisher started",
		zap.Int("max_attempts", cfg.Publisher.MaxAttempts),
		zap.String("backoff", cfg.Publisher.Backoff),
	)

	// Initialize application services
	listingService := listingapp.NewService(listingRepo, publicationRepo, photoStorage, eventBus, log)
	classificationService := classificationapp.NewService(classifier, previewCache, cfg.Cache.TTL, log)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
		MaxAge:       12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health endpoints live outside the versioned API
	handler.NewHealthHandler(db).
		WithProxyPool(proxyPool).
		WithPublisher(orchestrator).
		RegisterRoutes(engine.Group(""))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewListingHandler(listingService))
	r.Register(handler.NewPublishingHandler(orchestrator))
	r.Register(handler.NewClassificationHandler(classificationService))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}

// buildNotifySinks assembles the configured outcome sinks; unset sections are
// simply skipped so a bare config runs silent.
func buildNotifySinks(cfg *config.Config, log *zap.Logger) []notify.Sink {
	var sinks []notify.Sink
	if cfg.Notify.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookSink(cfg.Notify.WebhookURL))
	}
	if cfg.Notify.SMTP.Host != "" {
		s := cfg.Notify.SMTP
		sinks = append(sinks, notify.NewSMTPSink(s.Host, s.Port, s.Username, s.Password, s.From, s.To))
	}
	if cfg.Notify.NATS.URL != "" {
		natsSink, err := notify.NewNATSSink(cfg.Notify.NATS.URL)
		if err != nil {
			log.Warn("NATS sink unavailable, continuing without it", zap.Error(err))
		} else {
			sinks = append(sinks, natsSink)
		}
	}
	return sinks
}

func buildPhotoStorage(cfg *config.Config, log *zap.Logger) (storage.PhotoStorage, error) {
	if cfg.Storage.Backend == "s3" {
		return storage.NewS3PhotoStorage(context.Background(), storage.S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.Bucket,
			UsePathStyle:    cfg.Storage.UsePathStyle,
		}, log)
	}
	return storage.NewFilesystemStorage(cfg.Storage.LocalRoot, cfg.Storage.BaseURL)
}

func buildPreviewCache(cfg *config.Config, log *zap.Logger) cache.PreviewCache {
	if cfg.Cache.Backend == "redis" {
		factory := cache.NewPreviewCacheFactory(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cache.WithLogger(log), cache.WithInMemoryFallback(true))
		c, err := factory.Create()
		if err != nil {
			log.Warn("Preview cache unavailable, previews will not be cached", zap.Error(err))
			return nil
		}
		return c
	}
	return cache.NewInMemoryPreviewCache()
}
