/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the disbursement engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Read environment config (DISB_* variables)
  2. Apply command-line flag overrides
  3. Initialize SQLite store and seed the default chart of accounts
  4. Create API handler with dependencies
  5. Start server with graceful shutdown

CONFIGURATION:
  Environment (prefix DISB_):
    DISB_PORT       HTTP server port (default: 8080)
    DISB_DB_PATH    SQLite database path (default: disbursements.db)
    DISB_SEED       Seed the default chart of accounts (default: true)

  Flags override environment:
    -port    HTTP server port
    -db      SQLite database path; use ":memory:" for in-memory

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/disbursements.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port
  DISB_PORT=3000 ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/warp/disbursement-engine/api"
	"github.com/warp/disbursement-engine/engine"
	"github.com/warp/disbursement-engine/store/sqlite"
)

// Config is read from DISB_* environment variables.
type Config struct {
	Port   int    `default:"8080"`
	DBPath string `envconfig:"DB_PATH" default:"disbursements.db"`
	Seed   bool   `default:"true"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("disb", &cfg); err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}

	// Flags override environment
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Seed the default chart of accounts; existing codes are kept as-is.
	if cfg.Seed {
		if err := engine.SeedDefaultAccounts(context.Background(), store); err != nil {
			log.Fatalf("Failed to seed chart of accounts: %v", err)
		}
	}

	// Initialize handler
	handler := api.NewHandler(store)

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
