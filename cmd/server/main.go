package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/departments-api/config"
	"github.com/ErlanBelekov/departments-api/internal/apperror"
	"github.com/ErlanBelekov/departments-api/internal/health"
	"github.com/ErlanBelekov/departments-api/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/departments-api/internal/log"
	"github.com/ErlanBelekov/departments-api/internal/metrics"
	"github.com/ErlanBelekov/departments-api/internal/password"
	"github.com/ErlanBelekov/departments-api/internal/token"
	httptransport "github.com/ErlanBelekov/departments-api/internal/transport/http"
	"github.com/ErlanBelekov/departments-api/internal/transport/http/handler"
	"github.com/ErlanBelekov/departments-api/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL(), postgres.DefaultConnectOptions, logger)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if cfg.ShouldAutoMigrate() {
		if err := postgres.Migrate(ctx, pool); err != nil {
			stop()
			pool.Close()
			log.Fatalf("migrate: %v", err)
		}
		logger.Info("migrations applied")
	}

	// Auth
	userRepo := postgres.NewUserRepository(pool)
	tokens := token.NewIssuer([]byte(cfg.JWTSecret))
	authUsecase := usecase.NewAuthUsecase(userRepo, password.NewHasher(password.DefaultParams), tokens, logger)
	authHandler := handler.NewAuthHandler(authUsecase, logger)

	if err := authUsecase.SeedDefaultUser(ctx); err != nil {
		logger.Error("seed default user", "error", err)
	}

	// Departments
	departmentRepo := postgres.NewDepartmentRepository(pool)
	subDepartmentRepo := postgres.NewSubDepartmentRepository(pool)
	departmentUsecase := usecase.NewDepartmentUsecase(departmentRepo, subDepartmentRepo, logger)
	departmentHandler := handler.NewDepartmentHandler(departmentUsecase, logger)

	metrics.Register(prometheus.DefaultRegisterer)
	checker := health.NewChecker(logger, prometheus.DefaultRegisterer, health.Postgres(pool))

	normalizer := apperror.NewNormalizer(cfg.IsProduction(), logger)

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httptransport.NewRouter(logger, normalizer, tokens, authHandler, departmentHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
