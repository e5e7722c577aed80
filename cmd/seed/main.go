package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/sharecycle/accounts/config"
	"github.com/sharecycle/accounts/internal/application"
	pginfra "github.com/sharecycle/accounts/internal/infrastructure/postgres"
	"github.com/sharecycle/accounts/pkg/helpers"
	"github.com/sharecycle/accounts/pkg/mailer"
)

// Creates a superuser through the same code path the API uses, so the
// account comes out with a pending verification code like any other.
// No email is sent: the outbox is a no-op here.
func main() {
	email := flag.String("email", "", "superuser email (required)")
	password := flag.String("password", "", "superuser password (required)")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("usage: seed -email <email> -password <password>")
	}

	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	svc := application.NewService(
		pginfra.NewStore(pool),
		nil, nil, nil,
		mailer.NopOutbox{},
		nil, nil,
		logger,
		cfg,
	)

	a, err := svc.CreateSuperuser(ctx, *email, *password)
	if err != nil {
		log.Fatalf("failed to create superuser: %v", err)
	}
	fmt.Printf("superuser created: id=%s email=%s\n", a.ID, a.Email)
}
