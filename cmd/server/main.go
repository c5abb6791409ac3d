// outreachctl server - multi-tenant outbound campaign orchestrator
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smilemakc/outreachctl/internal/application/accountpool"
	"github.com/smilemakc/outreachctl/internal/application/enrichment"
	"github.com/smilemakc/outreachctl/internal/application/eventbus"
	"github.com/smilemakc/outreachctl/internal/application/executor"
	"github.com/smilemakc/outreachctl/internal/application/ledger"
	"github.com/smilemakc/outreachctl/internal/application/poller"
	"github.com/smilemakc/outreachctl/internal/application/quota"
	"github.com/smilemakc/outreachctl/internal/application/scheduler"
	"github.com/smilemakc/outreachctl/internal/application/sourcer"
	"github.com/smilemakc/outreachctl/internal/application/workflow"
	"github.com/smilemakc/outreachctl/internal/config"
	"github.com/smilemakc/outreachctl/internal/infrastructure/api/rest"
	"github.com/smilemakc/outreachctl/internal/infrastructure/cache"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/internal/infrastructure/storage"
	"github.com/smilemakc/outreachctl/internal/infrastructure/tracing"
	"github.com/smilemakc/outreachctl/internal/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.Logging)
	logger.SetDefault(appLogger)

	appLogger.Info("Starting outreachctl server",
		"version", "1.0.0",
		"port", cfg.Server.Port,
	)

	dbConfig := &storage.Config{
		DSN:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MinConnections,
		ConnMaxLifetime: cfg.Database.MaxConnLifetime,
		ConnMaxIdleTime: cfg.Database.MaxIdleTime,
		Debug:           cfg.Logging.Level == "debug",
	}

	db, err := storage.NewDB(dbConfig)
	if err != nil {
		appLogger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer storage.Close(db)

	appLogger.Info("Database connected", "max_conns", cfg.Database.MaxConnections)

	tracingProvider, err := tracing.NewProvider(context.Background(), tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		appLogger.Warn("Failed to initialize tracing provider", "error", err)
		tracingProvider = nil
	} else if cfg.Tracing.Enabled {
		appLogger.Info("Tracing provider initialized", "endpoint", cfg.Tracing.Endpoint)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tracingProvider.Shutdown(shutdownCtx); err != nil {
			appLogger.Warn("Tracing provider shutdown failed", "error", err)
		}
	}()

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		appLogger.Warn("Failed to initialize Redis cache", "error", err)
		redisCache = nil
	} else {
		defer redisCache.Close()
		appLogger.Info("Redis cache connected")
	}

	tz, err := time.LoadLocation(cfg.Campaign.TZ)
	if err != nil {
		appLogger.Warn("Invalid default TZ, falling back to UTC", "tz", cfg.Campaign.TZ, "error", err)
		tz = time.UTC
	}

	// Repositories
	campaignRepo := storage.NewCampaignRepository(db)
	stepRepo := storage.NewStepRepository(db)
	leadRepo := storage.NewCampaignLeadRepository(db)
	activityRepo := storage.NewActivityRepository(db)
	accountRepo := storage.NewProviderAccountRepository(db)
	invitationRepo := storage.NewInvitationTrackRepository(db)
	executionLogRepo := storage.NewExecutionLogRepository(db)
	tenantRepo := storage.NewTenantRepository(db)

	appLogger.Info("Repositories initialized")

	// Event bus - fans campaign/account/activity events out to whichever
	// transports are configured (spec.md §1(e), §6).
	bus := eventbus.New()
	bus.Register(eventbus.NewLoggerSubscriber(appLogger))

	var wsHub *eventbus.WebSocketHub
	if cfg.Observer.EnableWebSocket {
		wsHub = eventbus.NewWebSocketHub(appLogger)
		bus.Register(eventbus.NewWebSocketSubscriber(wsHub))
		appLogger.Info("WebSocket hub registered on event bus")
	}

	if redisCache != nil {
		bus.Register(eventbus.NewRedisSubscriber(redisCache.Client(), appLogger))
		appLogger.Info("Redis fan-out registered on event bus")
	}

	appLogger.Info("Event bus initialized", "subscribers", bus.Count())

	// Providers (C3)
	linkedinClient := providers.NewUnipileLinkedInClient(cfg.Unipile)
	emailClient := providers.NewEmailClient(cfg.Campaign)
	whatsappClient := providers.NewWhatsAppClient(cfg.Campaign)
	instagramClient := providers.NewInstagramClient(cfg.Campaign)
	voiceClient := providers.NewVoiceClient(cfg.Campaign)
	apolloClient := providers.NewApolloClient(cfg.Apollo)
	summarizer := providers.NewOpenAISummarizer(cfg.OpenAI.APIKey, cfg.OpenAI.Model)

	appLogger.Info("Provider clients initialized")

	// Ledger, quota, account pool, enrichment cache (C1, C2, C4, C5)
	activityLedger := ledger.New(activityRepo, appLogger)
	quotaGate := quota.New(accountRepo, activityLedger, tenantRepo, appLogger)
	pool := accountpool.New(accountRepo, linkedinClient, cfg.Campaign.MaxReconnectAttempts, cfg.Campaign.ReconnectAttemptWindow, appLogger)
	enrichCache := enrichment.New(leadRepo, apolloClient, appLogger)

	appLogger.Info("Quota gate, account pool and enrichment cache initialized")

	// Step executor (C7) and workflow driver (C8)
	stepExecutor := executor.New(
		activityLedger,
		quotaGate,
		pool,
		enrichCache,
		invitationRepo,
		linkedinClient,
		emailClient,
		whatsappClient,
		instagramClient,
		voiceClient,
		summarizer,
		cfg.Campaign.PostInviteQuiescence,
		appLogger,
	)
	driver := workflow.New(stepRepo, leadRepo, activityLedger, stepExecutor, appLogger)

	// Lead sourcer (C9)
	leadSourcer := sourcer.New(campaignRepo, leadRepo, apolloClient, activityLedger, appLogger)

	appLogger.Info("Executor, workflow driver and sourcer initialized")

	// Daily scheduler (C10) and polling worker (C11)
	dailyScheduler := scheduler.New(campaignRepo, stepRepo, leadRepo, executionLogRepo, leadSourcer, driver, pool, bus, tz, appLogger)
	invitationPoller := poller.New(tenantRepo, invitationRepo, activityLedger, linkedinClient, accountRepo, bus, cfg.Campaign.PollSchedule, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := dailyScheduler.Start(ctx); err != nil {
		appLogger.Error("Failed to start daily scheduler", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Daily scheduler started")

	if err := invitationPoller.Start(ctx); err != nil {
		appLogger.Error("Failed to start invitation poller", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Invitation poller started", "schedule", cfg.Campaign.PollSchedule)

	// Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	loggingMiddleware := rest.NewLoggingMiddleware(appLogger)
	recoveryMiddleware := rest.NewRecoveryMiddleware(appLogger)
	tenantMiddleware := rest.NewTenantMiddleware(cfg.Auth.JWTSecret)

	router.Use(recoveryMiddleware.Recovery())
	router.Use(loggingMiddleware.RequestLogger())

	if cfg.Server.CORS {
		router.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Max-Age", "86400")

			if c.Request.Method == "OPTIONS" {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
			c.Next()
		})
		appLogger.Info("CORS enabled")
	}

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  fmt.Sprintf("database: %s", err.Error()),
			})
			return
		}

		if redisCache != nil {
			if err := redisCache.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"error":  fmt.Sprintf("redis: %s", err.Error()),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	router.GET("/metrics", func(c *gin.Context) {
		dbStats := db.Stats()
		metrics := gin.H{
			"database": gin.H{
				"open_connections": dbStats.OpenConnections,
				"in_use":           dbStats.InUse,
				"idle":             dbStats.Idle,
				"max_open_conns":   dbStats.MaxOpenConnections,
			},
			"event_bus": gin.H{
				"subscribers": bus.Count(),
			},
		}
		if redisCache != nil {
			cacheStats := redisCache.Stats()
			metrics["redis"] = gin.H{
				"hits":        cacheStats.Hits,
				"misses":      cacheStats.Misses,
				"total_conns": cacheStats.TotalConns,
				"idle_conns":  cacheStats.IdleConns,
			}
		}
		c.JSON(http.StatusOK, gin.H{"metrics": metrics})
	})

	if wsHub != nil {
		router.GET("/ws/live", func(c *gin.Context) {
			wsHub.ServeHTTP(c.Writer, c.Request)
		})
		appLogger.Info("WebSocket endpoint registered", "endpoint", "/ws/live")
	}

	campaignHandlers := rest.NewCampaignHandlers(campaignRepo, stepRepo, dailyScheduler, appLogger)
	stepHandlers := rest.NewStepHandlers(campaignRepo, stepRepo, appLogger)
	leadHandlers := rest.NewLeadHandlers(leadRepo, appLogger)
	activityHandlers := rest.NewActivityHandlers(activityRepo, appLogger)
	accountHandlers := rest.NewAccountHandlers(accountRepo, appLogger)

	apiV1 := router.Group("/api/v1")
	apiV1.Use(tenantMiddleware.RequireTenant())
	{
		campaigns := apiV1.Group("/campaigns")
		{
			campaigns.POST("", campaignHandlers.HandleCreateCampaign)
			campaigns.GET("", campaignHandlers.HandleListCampaigns)
			campaigns.GET("/:id", campaignHandlers.HandleGetCampaign)
			campaigns.PUT("/:id", campaignHandlers.HandleUpdateCampaign)
			campaigns.DELETE("/:id", campaignHandlers.HandleDeleteCampaign)

			campaigns.GET("/:id/steps", stepHandlers.HandleListSteps)
			campaigns.PUT("/:id/steps", stepHandlers.HandleReplaceSteps)

			campaigns.GET("/:id/leads", leadHandlers.HandleListLeads)
			campaigns.GET("/:id/activities", activityHandlers.HandleListActivities)
			campaigns.GET("/:id/stats", activityHandlers.HandleCampaignStats)
		}

		leads := apiV1.Group("/leads")
		{
			leads.GET("/:lead_id", leadHandlers.HandleGetLead)
			leads.GET("/:lead_id/activities", activityHandlers.HandleListActivitiesForLead)
		}

		accounts := apiV1.Group("/accounts")
		{
			accounts.GET("", accountHandlers.HandleListAccounts)
			accounts.GET("/:id", accountHandlers.HandleGetAccount)
			accounts.PUT("/:id/status", accountHandlers.HandleUpdateAccountStatus)
		}
	}

	appLogger.Info("REST API routes registered")

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		appLogger.Info("HTTP server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		appLogger.Error("Server error", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		appLogger.Info("Server shutdown initiated", "signal", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		appLogger.Info("Stopping invitation poller...")
		invitationPoller.Stop()

		appLogger.Info("Stopping daily scheduler...")
		dailyScheduler.Stop()
		cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Graceful shutdown failed", "error", err)
			if err := server.Close(); err != nil {
				appLogger.Error("Server close failed", "error", err)
			}
		}

		appLogger.Info("Server stopped")
	}
}
