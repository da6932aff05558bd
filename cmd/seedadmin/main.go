// Command seedadmin creates the initial admin account. Running it again is a no-op.
package main

import (
	"context"
	"os"
	"time"

	"complaint_desk/internal/app/service"
	"complaint_desk/internal/common/security"
	"complaint_desk/internal/platform/config"
	"complaint_desk/internal/platform/logging"
	"complaint_desk/internal/platform/store"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	if cfg.AdminPassword == "" {
		logger.Error("ADMIN_PASSWORD must be set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer st.Close(context.Background())

	issuer := security.NewTokenIssuer(cfg.JWTKey, cfg.JWTExp, cfg.JWTClockSkew)
	authService := service.NewAuthService(st.Users, issuer, nil, nil, logger)

	user, created, err := authService.SeedAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		logger.Error("failed to seed admin", "email", cfg.AdminEmail, "error", err)
		st.Close(context.Background())
		os.Exit(1)
	}
	if created {
		logger.Info("admin user created", "id", user.ID, "email", user.Email)
		return
	}
	logger.Info("admin user already exists", "id", user.ID, "email", user.Email, "role", user.Role)
}
