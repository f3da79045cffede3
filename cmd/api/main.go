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

	"github.com/gin-gonic/gin"

	"buzzatt/internal/attendance"
	"buzzatt/internal/auth"
	"buzzatt/internal/config"
	"buzzatt/internal/handler"
	"buzzatt/internal/logger"
	"buzzatt/internal/metrics"
	"buzzatt/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(log)

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, log); err != nil {
		log.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

func runHTTP(cfg config.App, log *slog.Logger) error {
	ctx := context.Background()

	log.Info("connecting to database", "url", config.RedactDatabaseURL(cfg.DatabaseURL))
	db, err := store.Open(ctx, cfg.DatabaseURL, store.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		ConnectTimeout:  cfg.DBConnectTimeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("close database", "error", err)
		}
	}()

	var revoked auth.RevocationList
	switch cfg.RevocationBackend {
	case "memory":
		revoked = auth.NewMemoryRevocations()
	default:
		rdb := store.NewRedis(cfg.RedisAddr, "buzzatt:revoked:")
		if !rdb.Healthy(ctx) {
			log.Warn("redis not reachable at startup", "addr", cfg.RedisAddr)
		}
		defer rdb.Close()
		revoked = rdb
	}
	log.Info("token revocation list ready", "backend", cfg.RevocationBackend)

	m := metrics.New()

	authSvc, err := auth.NewService(auth.NewRepository(db.Client), revoked, auth.Options{
		Issuer:     cfg.JWTIssuer,
		SigningKey: cfg.JWTSigningKey,
		TokenTTL:   cfg.AccessTTL,
		BcryptCost: cfg.BcryptCost,
	}, m)
	if err != nil {
		return err
	}
	attSvc := attendance.NewService(attendance.NewRepository(db.Client), m)

	r := handler.NewRouter(handler.Deps{
		Auth:         authSvc,
		Attendance:   attSvc,
		DB:           db,
		Metrics:      m,
		Logger:       log,
		AllowOrigins: cfg.AllowedOrigins(),
		HSTS:         cfg.Production(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case sig := <-quit:
		log.Info("shutting down server", "signal", sig.String())
	}

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced shutdown", "error", err)
	}
	log.Info("server exited")
	return nil
}
