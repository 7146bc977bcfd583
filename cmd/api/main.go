package main

import (
	"context"
	"log"
	"os"

	"goglam/adapters/optimizer"
	"goglam/adapters/postgres"
	"goglam/api"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env for local development; production sets real env vars.
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := postgres.Connect(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := postgres.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	addr := os.Getenv("GOGLAM_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	server := api.NewServer(postgres.NewModelStore(db), optimizer.NewGonumFitter())
	if err := server.Run(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
