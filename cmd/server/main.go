// Package main is the entry point for the claims API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PatrykKozyra/claims-management-system/internal/core/retry"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/activity"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/auth"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/claim"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/shipowner"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/sync"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/voyage"
	v1 "github.com/PatrykKozyra/claims-management-system/internal/infrastructure/http/v1"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/radar"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/storage/postgres"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/storage/postgres/auth_repo"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/storage/postgres/record_repo"
	"github.com/PatrykKozyra/claims-management-system/pkg/logger"
	"github.com/PatrykKozyra/claims-management-system/pkg/numerator"
)

var version = "dev"

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting claims server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Activity log ---
	activityStore, err := postgres.NewActivityLogStore(txManager)
	if err != nil {
		log.Fatalw("failed to initialize activity log store", "error", err)
	}
	activityService := activity.NewService(activityStore)

	// --- Repositories ---
	voyageRepo := record_repo.NewVoyageRepo(txManager)
	claimRepo := record_repo.NewClaimRepo(txManager)
	ownerRepo := record_repo.NewShipOwnerRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)

	// Numbers must commit independently of business transactions.
	numeratorService := numerator.New(pool)

	// --- Domain services ---
	voyageService := voyage.NewService(voyageRepo, txManager, activityService)
	claimService := claim.NewService(claimRepo, voyageRepo, txManager, activityService, numeratorService)
	ownerService := shipowner.NewService(ownerRepo, txManager, activityService)

	// --- Auth ---
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(mustEnv("JWT_SECRET")))
	authService := auth.NewService(userRepo, jwtService)

	// --- RADAR sync (manual trigger endpoint; the worker runs the schedule) ---
	cursorStore := postgres.NewSyncCursorStore(txManager)
	var syncService *sync.Service
	if baseURL := getEnv("RADAR_BASE_URL", ""); baseURL != "" {
		fetcher := radar.NewClient(radar.Config{
			BaseURL: baseURL,
			Token:   getEnv("RADAR_TOKEN", ""),
		})
		syncService, err = sync.NewService(sync.Config{
			Fetcher:     fetcher,
			Cursors:     cursorStore,
			Voyages:     voyageService,
			Claims:      claimService,
			ShipOwners:  ownerRepo,
			RetryPolicy: retry.DefaultPolicy(),
			BatchSize:   getEnvInt("RADAR_BATCH_SIZE", 200),
		})
		if err != nil {
			log.Fatalw("failed to initialize sync service", "error", err)
		}
	} else {
		log.Warn("RADAR_BASE_URL not set, sync endpoints disabled")
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:             pool,
		Logger:           log,
		Version:          version,
		JWTValidator:     jwtService,
		AuthService:      authService,
		VoyageService:    voyageService,
		ClaimService:     claimService,
		ShipOwnerService: ownerService,
		SyncService:      syncService,
		CursorStore:      cursorStore,
	})

	// --- HTTP server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

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
