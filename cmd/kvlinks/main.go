package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"

	"github.com/undeadops/kvlinks/internal/api"
	"github.com/undeadops/kvlinks/internal/mapping"
)

const (
	appName = "kvlinks"
)

var (
	port        string
	baseURL     string
	backend     string
	region      string
	table       string
	ddbEndpoint string
	sqliteDSN   string
	databaseDSN string
	debug       bool
	version     string
)

func main() {
	flag.StringVar(&port, "port", getEnv("PORT", "5000"), "port to listen on")
	flag.StringVar(&baseURL, "base-url", getEnv("BASE_URL", mapping.DefaultBaseURL), "origin short URLs are built on")
	flag.StringVar(&backend, "store", getEnv("STORE", "dynamodb"), "store backend: dynamodb, sqlite, postgres or memory")
	flag.StringVar(&region, "region", getEnv("AWS_REGION", "us-east-1"), "AWS region")
	flag.StringVar(&table, "table", getEnv("DYNAMODB_TABLE", appName), "DynamoDB table name")
	flag.StringVar(&ddbEndpoint, "ddb-endpoint", getEnv("DYNAMODB_ENDPOINT", ""), "DynamoDB endpoint URL")
	flag.StringVar(&sqliteDSN, "sqlite-dsn", getEnv("SQLITE_DSN", "file:kvlinks.sqlite?_journal_mode=wal"), "SQLite data source name")
	flag.StringVar(&databaseDSN, "database-dsn", getEnv("DATABASE_DSN", ""), "PostgreSQL connection string")
	flag.BoolVar(&debug, "debug", getEnvBool("DEBUG", false), "Enable debug mode")

	// Parse flags
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := httplog.NewLogger(appName, httplog.Options{
		JSON:     true,
		Concise:  true,
		LogLevel: logLevel(debug),
		Tags: map[string]string{
			"version": version,
			"app":     appName,
		},
	})

	logger.Info().Str("version", version).Msgf("Starting %s version %s", appName, version)

	logger.Info().Str("store", backend).Msg("Setting up store...")
	st, closeStore, err := openStore(ctx, storeConfig{
		Backend:     backend,
		Region:      region,
		Table:       table,
		DDBEndpoint: ddbEndpoint,
		SQLiteDSN:   sqliteDSN,
		DatabaseDSN: databaseDSN,
		Debug:       debug,
	}, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to set up store")
	}
	defer closeStore()

	svc := mapping.New(st, mapping.WithBaseURL(baseURL))
	router := api.Router(svc, logger)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info().Msgf("Starting %s server on port %s", appName, port)
	// Run server in the background
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Err(err).Msg("Server error")
			stop()
		}
	}()

	// Listen for the interrupt signal
	<-ctx.Done()

	// Create shutdown context with 30-second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Trigger graceful shutdown
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Err(err).Msg("Shutdown error")
	}
	logger.Info().Msgf("Shutting down %s server", appName)
}

func logLevel(debug bool) string {
	if debug {
		return "debug"
	}
	return "info"
}

// Helper functions to get environment variables with default values
func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		return value == "true" || value == "1" || value == "yes"
	}

	return defaultVal
}
