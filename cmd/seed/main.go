// seed creates the default account and a few sample departments in the local
// dev database. Re-running adds another copy of the departments.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/ErlanBelekov/departments-api/config"
	"github.com/ErlanBelekov/departments-api/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/departments-api/internal/password"
	"github.com/ErlanBelekov/departments-api/internal/token"
	"github.com/ErlanBelekov/departments-api/internal/usecase"
	"github.com/lmittmann/tint"
)

var departments = []usecase.CreateDepartmentInput{
	{Name: "Engineering", SubDepartments: []string{"Backend", "Frontend", "Platform"}},
	{Name: "People", SubDepartments: []string{"Recruiting", "Payroll"}},
	{Name: "Finance", SubDepartments: []string{"Accounting"}},
	{Name: "Legal"},
}

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

	auth := usecase.NewAuthUsecase(
		postgres.NewUserRepository(pool),
		password.NewHasher(password.DefaultParams),
		token.NewIssuer([]byte(cfg.JWTSecret)),
		logger,
	)
	if err := auth.SeedDefaultUser(ctx); err != nil {
		pool.Close()
		log.Fatalf("seed default user: %v", err)
	}

	uc := usecase.NewDepartmentUsecase(
		postgres.NewDepartmentRepository(pool),
		postgres.NewSubDepartmentRepository(pool),
		logger,
	)

	var created []int64
	for _, input := range departments {
		d, err := uc.CreateDepartment(ctx, input)
		if err != nil {
			pool.Close()
			log.Fatalf("create department %q: %v", input.Name, err)
		}
		created = append(created, d.ID)
	}

	login, err := auth.Login(ctx, usecase.DefaultUsername, usecase.DefaultPassword)
	if err != nil {
		pool.Close()
		log.Fatalf("login: %v", err)
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  User:            %s / %s\n", usecase.DefaultUsername, usecase.DefaultPassword)
	fmt.Printf("  Departments:     %d created  %v\n", len(created), created)
	fmt.Println()
	fmt.Println("Try it:")
	fmt.Println()
	fmt.Printf("  export JWT=%s\n", login.AccessToken)
	fmt.Printf("  curl -s http://localhost:%s/departments -H \"Authorization: Bearer $JWT\"\n", cfg.Port)
}
