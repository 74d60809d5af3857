package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ecobhandu-be/config"
	"ecobhandu-be/controllers"
	"ecobhandu-be/events"
	"ecobhandu-be/logger"
	"ecobhandu-be/metrics"
	"ecobhandu-be/middlewares"
	"ecobhandu-be/routes"
	"ecobhandu-be/services"
	"ecobhandu-be/store"
	authUtils "ecobhandu-be/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = zlog.Sync() }()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.App.Env,
			AttachStacktrace: true,
		}); err != nil {
			zlog.Error("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectDB(ctx, cfg.Mongo, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := store.EnsureIndexes(ctx, db.DB); err != nil {
		zlog.Fatal("Failed to create indexes", zap.Error(err))
	}

	redisClient, err := config.ConnectRedis(ctx, cfg.Redis, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	tokens, err := authUtils.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Expiry)
	if err != nil {
		zlog.Fatal("Failed to create token issuer", zap.Error(err))
	}

	reportStore := store.NewReportStore(db.DB)
	userStore := store.NewUserStore(db.DB)
	claimStore := store.NewClaimStore(db.DB)
	walletStore := store.NewWalletStore(db.DB)

	hub := events.NewHub(cfg.Events.Buffer, zlog)
	var publisher services.Publisher = hub
	var rateCounter middlewares.RateCounter
	if redisClient != nil {
		bridge := events.NewRedisBridge(redisClient, cfg.Events.Channel, hub, zlog)
		publisher = bridge
		go bridge.Serve(ctx)
		rateCounter = store.NewRateCounter(redisClient, cfg.Redis.RatePrefix)
	}

	reportService := services.NewReportService(reportStore, userStore, publisher, zlog)
	taskService := services.NewTaskService(reportStore, publisher, cfg.Workflow.StatusUpdateTargets, zlog)
	rewardService := services.NewRewardService(reportStore, walletStore, claimStore, zlog)
	authService := services.NewAuthService(userStore, tokens, zlog)

	if err := controllers.RegisterValidators(); err != nil {
		zlog.Fatal("Failed to register validators", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(logger.Recovery(zlog))
	r.Use(logger.GinMiddleware(zlog))
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(metrics.Middleware())
	r.Use(cors.New(corsConfig(cfg.HTTP.CORSOrigins)))
	r.Use(middlewares.BodyLimit(cfg.HTTP.BodyLimitMB << 20))

	routes.Register(r, routes.Deps{
		Auth: controllers.NewAuthController(authService, controllers.CookieOptions{
			Domain: cfg.JWT.CookieDomain,
			Secure: cfg.IsProduction(),
			MaxAge: tokens.Expiry(),
		}, zlog),
		Reports:     controllers.NewReportController(reportService, taskService, zlog),
		Volunteers:  controllers.NewVolunteerController(taskService, zlog),
		Rewards:     controllers.NewRewardController(rewardService, zlog),
		Events:      controllers.NewEventController(hub, cfg.Events.Heartbeat, zlog),
		Tokens:      tokens,
		RateCounter: rateCounter,
		RateLimit:   cfg.HTTP.ReportRateLimit,
		RateWindow:  cfg.HTTP.ReportRateWin,
		Timeout:     cfg.HTTP.RequestTimeout,
		Log:         zlog,
	})

	r.GET("/health", healthHandler(db, zlog))
	r.GET("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		zlog.Info("Server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Closing the hub ends open event streams so Shutdown does not wait on them.
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			zlog.Warn("redis close failed", zap.Error(err))
		}
	}
	if err := db.Close(shutdownCtx); err != nil {
		zlog.Warn("mongo disconnect failed", zap.Error(err))
	}

	zlog.Info("Server exited gracefully")
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader},
		ExposeHeaders:    []string{logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowOriginFunc = func(string) bool { return true }
	} else {
		c.AllowOrigins = origins
	}
	return c
}

func healthHandler(db *config.Mongo, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			logger.FromGin(c, log).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "EcoBhandu API Server is running"})
	}
}
