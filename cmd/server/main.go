// Package main is the entry point for the KGV case-management API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kgv/internal/domain/application"
	"kgv/internal/domain/auth"
	"kgv/internal/domain/district"
	"kgv/internal/domain/maintenance"
	"kgv/internal/domain/records"
	"kgv/internal/domain/waitinglist"
	v1 "kgv/internal/infrastructure/http/v1"
	"kgv/internal/infrastructure/sequence"
	"kgv/internal/infrastructure/storage/postgres"
	"kgv/internal/infrastructure/storage/postgres/application_repo"
	"kgv/internal/infrastructure/storage/postgres/auth_repo"
	"kgv/internal/infrastructure/storage/postgres/district_repo"
	"kgv/internal/infrastructure/storage/postgres/record_repo"
	"kgv/pkg/logger"
)

var version = "dev"

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Infow("starting kgv server", "version", version)

	// --- Database connection ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Audit trail ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Sequence issuance ---
	// The issuer runs its own statement against the pool so a failed
	// business transaction never returns a number to the counter.
	issuer := sequence.New(pool.Pool)

	// --- Repositories ---
	recordRepo := record_repo.NewRecordRepo(txManager)
	applicationRepo := application_repo.NewApplicationRepo(txManager)
	waitingListRepo := application_repo.NewWaitingListRepo(txManager)
	districtRepo := district_repo.NewDistrictRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)

	// --- Domain services ---
	recordFactory := records.NewFactory(issuer, recordRepo, txManager)
	ranker := waitinglist.NewRanker(waitingListRepo, txManager, nil)
	applicationService := application.NewService(applicationRepo, recordFactory, ranker, txManager)
	districtService := district.NewService(districtRepo, txManager)
	maintenanceService := maintenance.NewService(issuer, ranker, auditService)

	// --- Auth ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))
	authService := auth.NewService(userRepo, jwtService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:               pool.Pool,
		Logger:             log,
		JWTValidator:       jwtService,
		Version:            version,
		AuthService:        authService,
		ApplicationService: applicationService,
		RecordFactory:      recordFactory,
		Ranker:             ranker,
		DistrictService:    districtService,
		Maintenance:        maintenanceService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
