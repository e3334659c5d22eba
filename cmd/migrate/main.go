// migrate applies pending schema migrations regardless of AUTO_MIGRATE.
// Run: go run ./cmd/migrate
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/ErlanBelekov/departments-api/config"
	"github.com/ErlanBelekov/departments-api/internal/infrastructure/postgres"
	"github.com/lmittmann/tint"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: cfg.SlogLevel()}))
	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL(), postgres.DefaultConnectOptions, logger)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		log.Fatalf("migrate: %v", err)
	}
	logger.Info("migrations applied")
}
