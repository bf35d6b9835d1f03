package main

import (
	"context"
	"log"
	"os"
	"time"

	"ideascope/internal/migration"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Standalone schema migration. The API server runs migrations on boot as
// well; this command exists for deploy pipelines that migrate before rollout.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[Migrate] No .env file found, using environment variables")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if len(os.Args) > 1 {
		databaseURL = os.Args[1]
	}
	if databaseURL == "" {
		log.Fatal("Usage: migrate <database_url> (or set DATABASE_URL)")
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Printf("[Migrate] Schema migration complete (version %s)", runner.Version())
}
