package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"complaint_desk/internal/api"
	"complaint_desk/internal/app/service"
	"complaint_desk/internal/common/security"
	"complaint_desk/internal/platform/cache"
	"complaint_desk/internal/platform/config"
	"complaint_desk/internal/platform/events"
	"complaint_desk/internal/platform/logging"
	"complaint_desk/internal/platform/metrics"
	"complaint_desk/internal/platform/ratelimit"
	"complaint_desk/internal/platform/store"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	if cfg.UsesDefaultSecret() {
		logger.Warn("JWT_SECRET is not set; using the built-in default secret")
	}

	ctx := context.Background()

	// 2. Initialize Store
	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer st.Close(context.Background())

	// 3. Login throttle: Redis when configured, otherwise per-process
	limiter := newLimiter(ctx, cfg, logger)

	// 4. Complaint events
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		natsPublisher, err := events.ConnectNATS(cfg.NATSURL, cfg.NATSSubjectPrefix)
		if err != nil {
			logger.Warn("NATS unavailable, complaint events disabled", "error", err)
		} else {
			defer natsPublisher.Close()
			publisher = natsPublisher
			logger.Info("publishing complaint events", "url", cfg.NATSURL, "prefix", cfg.NATSSubjectPrefix)
		}
	}

	// 5. Initialize Services
	m := metrics.New()
	issuer := security.NewTokenIssuer(cfg.JWTKey, cfg.JWTExp, cfg.JWTClockSkew)
	authService := service.NewAuthService(st.Users, issuer, limiter, m, logger)
	complaintService := service.NewComplaintService(st.Complaints, publisher, m, logger)
	userService := service.NewUserService(st.Users)
	adminService := service.NewAdminService(st.Users, st.Complaints)

	// 6. Initialize Router & HTTP Server
	router := api.NewRouter(api.Deps{
		Issuer:           issuer,
		AuthService:      authService,
		ComplaintService: complaintService,
		UserService:      userService,
		AdminService:     adminService,
		Metrics:          m,
		Logger:           logger,
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		UploadsDir:       cfg.UploadsDir,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", "port", cfg.APIPort, "store", st.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("could not listen", "port", cfg.APIPort, "error", err)
			os.Exit(1)
		}
	}()

	<-stop // Wait for interrupt signal

	logger.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		return
	}
	logger.Info("server stopped gracefully")
}

func newLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) ratelimit.Limiter {
	if cfg.RedisAddr == "" {
		return ratelimit.NewLocalLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
	}
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("redis unavailable, using in-process login limiter", "error", err)
		return ratelimit.NewLocalLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
	}
	logger.Info("connected to redis", "addr", cfg.RedisAddr)
	return ratelimit.NewRedisLimiter(rdb, "complaints:login", cfg.LoginRateLimit, cfg.LoginRateWindow)
}
