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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"code-review-market/config"
	"code-review-market/database"
	"code-review-market/email"
	"code-review-market/jobs"
	"code-review-market/logger"
	"code-review-market/middleware"
	"code-review-market/repository"
	"code-review-market/routes"
	"code-review-market/services"
	"code-review-market/storage"
	ws "code-review-market/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	env := os.Getenv("ENV")
	if err := logger.Init(env == "" || env == "development"); err != nil {
		log.Fatalf("failed to initialise logger: %v", err)
	}
	defer logger.Sync()
	lg := logger.L()
	cfg := config.Load(lg)

	if cfg.Server.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg, lg)
	if err != nil {
		lg.Fatal("failed to initialise database", zap.Error(err))
	}
	repo := repository.New(db)

	hub := ws.NewHub(lg.Named("ws"))
	go hub.Run(ctx)

	notifiers := []services.Notifier{services.NewStoreNotifier(repo, hub)}
	if cfg.SMTP.Enabled {
		mailer := email.NewService(&cfg.SMTP, lg.Named("email"))
		notifiers = append(notifiers, services.NewEmailNotifier(repo, mailer, cfg.BaseURL))
	}

	opts := services.Options{
		JWTSecret:      cfg.JWT.Secret,
		JWTExpiryHours: cfg.JWT.ExpiryHours,
		Dispatcher:     services.NewDispatcher(lg.Named("notify"), notifiers...),
	}
	if cfg.Cloudinary.URL != "" {
		store, err := storage.NewCloudinaryStore(cfg.Cloudinary.URL, cfg.Cloudinary.Folder, lg.Named("storage"))
		if err != nil {
			lg.Fatal("failed to initialise attachment storage", zap.Error(err))
		}
		opts.Attachments = store
	} else {
		lg.Warn("CLOUDINARY_URL not set, message attachments are disabled")
	}
	svc := services.New(repo, lg, opts)

	if cfg.SeedDemo {
		if err := seedDemoData(ctx, svc, lg); err != nil {
			lg.Error("failed to seed demo data", zap.Error(err))
		}
	}

	jobs.NewNotificationCleanupJob(repo.Notifications, lg.Named("jobs"),
		cfg.Jobs.NotificationRetentionDays, cfg.Jobs.CleanupIntervalMinutes).Start(ctx)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	go limiter.RunCleanup(ctx, 10*time.Minute)

	sqlDB, err := db.DB()
	if err != nil {
		lg.Fatal("failed to get underlying SQL database", zap.Error(err))
	}
	router := routes.NewRouter(routes.Deps{
		Services: svc,
		Hub:      hub,
		Config:   cfg,
		Log:      lg,
		Limiter:  limiter,
		Ping:     sqlDB.PingContext,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := sqlDB.Close(); err != nil {
		lg.Error("failed to close database", zap.Error(err))
	}
}
