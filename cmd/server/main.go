package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"

	"customerhub/internal/auth"
	"customerhub/internal/cache"
	"customerhub/internal/config"
	"customerhub/internal/db"
	"customerhub/internal/handler"
	"customerhub/internal/logger"
	"customerhub/internal/repository"
	"customerhub/internal/router"
	"customerhub/internal/service"
)

// @title Customer Account API
// @version 1.0
// @description Customer signup, activation, login, token refresh and admin management with JWT bearer authentication.
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	gormDB, err := db.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		defer sqlDB.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cacheClient := cache.New(cfg.Redis, log)
	if err := cacheClient.Ping(ctx); err != nil {
		log.Warn("customer cache unreachable, continuing without it", slog.String("error", err.Error()))
	}
	defer cacheClient.Close()

	// Initialize repositories
	customerRepo := repository.NewCustomerRepository(gormDB)

	// Initialize auth components
	hasher := auth.NewBcryptHasher(auth.DefaultBcryptCost)
	tokens := auth.NewTokenCodec(cfg.Token)
	guard := auth.NewAccessGuard(tokens, log)

	// Initialize services
	authService := service.NewAuthService(customerRepo, hasher, tokens, service.NewLogNotifier(log), cacheClient, log)
	customerService := service.NewCustomerService(customerRepo, hasher, cacheClient, log)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	customerHandler := handler.NewCustomerHandler(customerService)

	e := echo.New()
	e.HidePort = true
	router.Register(e, cfg, log, guard, authHandler, customerHandler)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("addr", ":"+cfg.ServerPort))
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", slog.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
