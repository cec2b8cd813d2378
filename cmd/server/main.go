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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vipogroup/vipo-api/internal/api"
	"github.com/vipogroup/vipo-api/internal/config"
	"github.com/vipogroup/vipo-api/internal/loaders"
	"github.com/vipogroup/vipo-api/internal/notify"
	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/utils"
	"github.com/vipogroup/vipo-api/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := utils.InitLogger(cfg.LogLevel, cfg.Environment); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer utils.Zlog.Sync()

	if err := utils.RegisterValidators(); err != nil {
		utils.Zlog.Fatal("Failed to register validators", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := loaders.NewPostgresClient(cfg.DatabaseURL, cfg.DBMaxConns, cfg.BatchSize)
	if err != nil {
		utils.Zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		utils.Zlog.Fatal("Failed to migrate database", zap.Error(err))
	}

	rdb, err := loaders.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		utils.Zlog.Warn("Redis unavailable, using in-memory fallbacks", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
	}

	pool := worker.NewPool(cfg.WorkerCount, cfg.QueueCapacity)
	pool.Start()

	var sender notify.Sender
	if cfg.TelegramBotToken != "" && cfg.TelegramAdminChatID != 0 {
		tg, err := notify.NewTelegramSender(cfg.TelegramBotToken, cfg.TelegramAdminChatID)
		if err != nil {
			utils.Zlog.Warn("Telegram notifications disabled", zap.Error(err))
		} else {
			sender = tg
		}
	}
	notifier := notify.NewNotifier(sender, pool)

	tokens := shared.NewTokenManager(cfg.JwtSecret, cfg.JwtTTL)
	services := api.NewServices(cfg, db, rdb, pool, notifier, tokens)
	limiter := shared.NewRateLimiter(rdb, cfg.DisableRateLimit, cfg.AutomationKey)

	scheduler := worker.NewScheduler()
	scheduler.Every("release_commissions", cfg.CommissionReleaseEvery, func(ctx context.Context) error {
		_, err := services.Commissions.Release(ctx)
		return err
	})
	scheduler.Every("database_backup", cfg.BackupInterval, func(ctx context.Context) error {
		_, err := services.Backups.Create(ctx, "scheduler")
		return err
	})
	scheduler.Run(ctx)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		utils.Zlog.Fatal("Invalid TRUSTED_PROXIES", zap.Error(err))
	}
	router.Use(
		shared.RequestID(),
		shared.RequestLogger(),
		shared.Recovery(),
		shared.CORS(cfg.AllowedOrigins),
		shared.Authenticate(tokens),
		shared.ResolveTenant(cfg.DefaultTenantID),
	)
	router.GET("/health", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName, "hostname": cfg.Hostname})
	})
	router.GET("/metrics", shared.MetricsHandler())
	api.RegisterRoutes(router.Group("/api"), services, cfg, limiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		utils.Zlog.Info("Server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Zlog.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	utils.Zlog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Zlog.Error("Server shutdown failed", zap.Error(err))
	}
	scheduler.Wait()
	pool.Stop(shutdownCtx)
}
