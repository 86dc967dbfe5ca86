package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"businessconnect_backend/database"
	"businessconnect_backend/internal/auth"
	"businessconnect_backend/internal/cache"
	"businessconnect_backend/internal/config"
	"businessconnect_backend/internal/email"
	"businessconnect_backend/internal/events"
	"businessconnect_backend/internal/handlers"
	"businessconnect_backend/internal/imageprocessor"
	"businessconnect_backend/internal/logger"
	"businessconnect_backend/internal/metrics"
	"businessconnect_backend/internal/middleware"
	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/payment"
	"businessconnect_backend/internal/repositories"
	"businessconnect_backend/internal/repositories/forum"
	"businessconnect_backend/internal/routes"
	"businessconnect_backend/internal/services"
	"businessconnect_backend/internal/sms"
	"businessconnect_backend/internal/storage"
	"businessconnect_backend/internal/validator"
	"businessconnect_backend/internal/workers"
	"businessconnect_backend/pkg/apperrors"
	"businessconnect_backend/ws"
)

const shutdownTimeout = 15 * time.Second

// Dependencies are the external systems the application talks to. Optional
// ones may be nil: Cache (redis), NATS, Mongo.
type Dependencies struct {
	Config    *config.Config
	DB        *gorm.DB
	Cache     *cache.Client
	Publisher events.Publisher
	NATS      *events.NATSPublisher
	Mongo     *mongo.Client
	Forum     forum.Repository
	Storage   storage.Storage
	Gateway   payment.Gateway
	Email     email.Provider
	SMS       sms.Sender
	Metrics   *metrics.Metrics
}

// Application is the assembled HTTP server and its background parts.
type Application struct {
	Router    *gin.Engine
	Services  *services.ServiceContainer
	WSManager *ws.WebSocketManager
	Scheduler *workers.Scheduler
}

func Run() {
	cfg := config.LoadConfig()
	logger.Init(cfg.Server.Env)
	apperrors.SetDebug(!cfg.IsProduction())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := connect(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies", "error", err)
	}
	defer cleanup()

	if err := seedFirstAdmin(deps.DB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	application, err := SetupRouter(ctx, deps)
	if err != nil {
		logger.Fatal("Failed to set up router", "error", err)
	}

	subsWorker := workers.NewSubscriptionWorker(deps.DB, application.Services.SubscriptionService, repositories.NewRefreshTokenRepository())
	jobWorker := workers.NewJobWorker(deps.DB, repositories.NewJobRepository())
	if err := workers.RegisterDefaults(application.Scheduler, subsWorker, jobWorker, cfg.Subscriptions.ExpiryCron); err != nil {
		logger.Fatal("Failed to schedule workers", "error", err)
	}
	application.Scheduler.Start()

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	application.Scheduler.Stop(shutdownCtx)
	logger.Info("Server stopped")
}

// connect opens every backing service. Redis, NATS and Mongo are optional and
// degrade to no cache, no events and the in-memory forum store.
func connect(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN, !cfg.IsProduction())
	if err != nil {
		return nil, cleanup, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, cleanup, err
	}
	logger.Info("Database connected", "driver", cfg.Database.Driver)
	if sqlDB, err := db.DB(); err == nil {
		closers = append(closers, func() { _ = sqlDB.Close() })
	}

	deps := &Dependencies{
		Config:    cfg,
		DB:        db,
		Publisher: events.NoopPublisher{},
		Forum:     forum.NewMemoryRepository(),
		Gateway:   payment.NewCinetPayClient(payment.CinetPayConfigFrom(cfg), nil),
		Email:     email.NewProvider(email.FromAppConfig(cfg)),
		SMS:       sms.NewSender(sms.Config{APIURL: cfg.SMS.APIURL, APIKey: cfg.SMS.APIKey, From: cfg.SMS.Sender}),
		Metrics:   metrics.New(),
	}

	if cfg.Redis.Addr != "" {
		deps.Cache = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := deps.Cache.Ping(ctx); err != nil {
			logger.Warn("Redis unavailable, continuing without cache", "error", err.Error())
		}
		closers = append(closers, func() { _ = deps.Cache.Close() })
	}

	if cfg.NATS.URL != "" {
		nc, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Warn("NATS unavailable, domain events disabled", "error", err.Error())
		} else {
			deps.Publisher = nc
			deps.NATS = nc
			closers = append(closers, nc.Close)
		}
	}

	if cfg.Mongo.URI != "" {
		client, err := forum.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			logger.Warn("MongoDB unavailable, forum uses the in-memory store", "error", err.Error())
		} else {
			repo := forum.NewMongoRepository(client, cfg.Mongo.Database)
			if err := repo.EnsureIndexes(ctx); err != nil {
				logger.Warn("Failed to create forum indexes", "error", err.Error())
			}
			deps.Mongo = client
			deps.Forum = repo
			closers = append(closers, func() {
				disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = client.Disconnect(disconnectCtx)
			})
		}
	}

	store, err := storage.NewStorage(storage.FromAppConfig(cfg))
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to initialize storage: %w", err)
	}
	deps.Storage = store
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	return deps, cleanup, nil
}

// SetupRouter builds services, handlers and routes. The websocket manager runs
// until ctx is done.
func SetupRouter(ctx context.Context, deps *Dependencies) (*Application, error) {
	cfg := deps.Config
	if deps.Publisher == nil {
		deps.Publisher = events.NoopPublisher{}
	}
	if deps.Forum == nil {
		deps.Forum = forum.NewMemoryRepository()
	}

	wsManager := ws.NewWebSocketManager()
	go wsManager.Run(ctx)

	serviceContainer, err := initializeServices(deps, wsManager)
	if err != nil {
		return nil, err
	}

	base := handlers.NewBaseHandler(validator.New(), serviceContainer.AuthService)
	appHandlers := initializeHandlers(base, serviceContainer, deps)
	wsHandler := ws.NewWebSocketHandler(wsManager, serviceContainer.AuthService, cfg.Server.CORSOrigins)

	ginRouter := initializeGinRouter(deps.DB, cfg, deps.Metrics)

	opts := routes.Options{Swagger: !cfg.IsProduction()}
	if deps.Metrics != nil {
		opts.Metrics = deps.Metrics.Handler()
	}
	if cfg.Storage.Type == "" || cfg.Storage.Type == "local" {
		opts.LocalUploadsURL = cfg.Storage.BaseURL
		opts.LocalUploadsPath = cfg.Storage.BasePath
	}
	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler, opts)

	return &Application{
		Router:    ginRouter,
		Services:  serviceContainer,
		WSManager: wsManager,
		Scheduler: workers.NewScheduler(ctx),
	}, nil
}

func initializeServices(deps *Dependencies, pusher services.Pusher) (*services.ServiceContainer, error) {
	cfg := deps.Config

	templates, err := email.DefaultTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}
	emailProvider := deps.Email
	if emailProvider == nil {
		emailProvider = &email.LogProvider{}
	}
	emailService := services.NewEmailService(emailProvider, templates, cfg.Server.FrontendURL)

	userRepo := repositories.NewUserRepository()
	refreshTokenRepo := repositories.NewRefreshTokenRepository()
	jobRepo := repositories.NewJobRepository()
	itemRepo := repositories.NewMarketplaceRepository()
	subscriptionRepo := repositories.NewSubscriptionRepository()
	notificationRepo := repositories.NewNotificationRepository()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTTLMin)*time.Minute)
	tokenStore := auth.NewTokenStore(deps.Cache)

	notificationService := services.NewNotificationService(notificationRepo, userRepo, pusher, emailService)

	authService := services.NewAuthService(userRepo, refreshTokenRepo, jwtService, tokenStore, deps.Cache,
		emailService, deps.SMS, deps.Publisher, time.Duration(cfg.JWT.RefreshTTLHours)*time.Hour)
	userService := services.NewUserService(userRepo, refreshTokenRepo)
	jobService := services.NewJobService(jobRepo, userRepo, notificationService, deps.Publisher)

	marketplaceService := services.NewMarketplaceService(
		itemRepo,
		subscriptionRepo,
		deps.Storage,
		imageprocessor.NewProcessor(cfg.Upload.ImageQuality),
		cache.NewItemCache(deps.Cache, time.Duration(cfg.Marketplace.CacheTTLSeconds)*time.Second),
		notificationService,
		deps.Publisher,
		deps.Metrics,
		services.MarketplaceConfig{
			ReportThreshold:     cfg.Marketplace.ReportThreshold,
			MaxImages:           cfg.Marketplace.MaxImages,
			RequireSubscription: cfg.Marketplace.RequireSubscription,
			MaxUploadSize:       cfg.Upload.MaxSize,
			AllowedTypes:        cfg.Upload.AllowedTypes,
		},
	)

	subscriptionService := services.NewSubscriptionService(
		subscriptionRepo,
		userRepo,
		deps.Gateway,
		notificationService,
		emailService,
		deps.Publisher,
		deps.Metrics,
		services.SubscriptionConfig{
			Plans:         cfg.Subscriptions.Plans,
			Currency:      cfg.CinetPay.Currency,
			ReminderDays:  cfg.Subscriptions.ReminderDays,
			WebhookSecret: cfg.CinetPay.SecretKey,
			SiteID:        cfg.CinetPay.SiteID,
		},
	)

	forumService := services.NewForumService(deps.Forum, userRepo, notificationService, deps.Publisher)

	return &services.ServiceContainer{
		AuthService:         authService,
		UserService:         userService,
		JobService:          jobService,
		MarketplaceService:  marketplaceService,
		SubscriptionService: subscriptionService,
		NotificationService: notificationService,
		ForumService:        forumService,
		EmailService:        emailService,
	}, nil
}

func initializeHandlers(base *handlers.BaseHandler, svc *services.ServiceContainer, deps *Dependencies) *handlers.AppHandlers {
	var redisPinger, mongoPinger handlers.Pinger
	if deps.Cache != nil {
		redisPinger = deps.Cache
	}
	if deps.Mongo != nil {
		mongoPinger = deps.Forum
	}
	var natsState handlers.ConnectionState
	if deps.NATS != nil {
		natsState = deps.NATS
	}

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(base, svc.AuthService),
		UserHandler:         handlers.NewUserHandler(base, svc.UserService),
		JobHandler:          handlers.NewJobHandler(base, svc.JobService),
		MarketplaceHandler:  handlers.NewMarketplaceHandler(base, svc.MarketplaceService, deps.Config.Upload.MaxSize),
		SubscriptionHandler: handlers.NewSubscriptionHandler(base, svc.SubscriptionService),
		NotificationHandler: handlers.NewNotificationHandler(base, svc.NotificationService),
		ForumHandler:        handlers.NewForumHandler(base, svc.ForumService),
		HealthHandler:       handlers.NewHealthHandler(deps.DB, redisPinger, mongoPinger, natsState),
	}
}

func initializeGinRouter(db *gorm.DB, cfg *config.Config, m *metrics.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))
	if m != nil {
		router.Use(m.Middleware())
	}
	router.Use(middleware.DBMiddleware(db))
	return router
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var adminUser models.User
		result := tx.Where("email = ?", adminEmail).First(&adminUser)
		if result.Error == nil {
			logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
			return nil
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check for admin user: %w", result.Error)
		}

		hashedPassword, err := auth.HashPassword(adminPassword)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}

		newAdmin := &models.User{
			FirstName:    "Admin",
			LastName:     "BusinessConnect",
			Email:        adminEmail,
			PasswordHash: hashedPassword,
			Role:         models.UserRoleAdmin,
			Status:       models.UserStatusActive,
			IsVerified:   true,
			Preferences:  datatypes.NewJSONType(models.DefaultPreferences()),
		}
		if err := tx.Create(newAdmin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		logger.Info("Created first admin user", "email", adminEmail)
		return nil
	})
}
