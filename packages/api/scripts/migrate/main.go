package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/sandbox-pool/infra/packages/api/internal/store/postgres"
	"github.com/sandbox-pool/infra/packages/shared/pkg/db"
)

func main() {
	connectionString := os.Getenv("POSTGRES_CONNECTION_STRING")
	if connectionString == "" {
		log.Fatalf("POSTGRES_CONNECTION_STRING is not set")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, connectionString)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := postgres.NewBackend(pool).Migrate(ctx); err != nil {
		log.Fatalf("Failed to execute migration: %v", err)
	}

	fmt.Println("Migration completed successfully.")
}
