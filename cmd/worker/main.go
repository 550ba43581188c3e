// Package main is the entry point for the RADAR sync worker. It runs
// reconciliation cycles on a fixed interval until stopped.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	"github.com/PatrykKozyra/claims-management-system/internal/core/retry"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/activity"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/claim"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/sync"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/voyage"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/radar"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/storage/postgres"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/storage/postgres/record_repo"
	"github.com/PatrykKozyra/claims-management-system/pkg/logger"
	"github.com/PatrykKozyra/claims-management-system/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting RADAR sync worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	syncService, err := buildSyncService(pool)
	if err != nil {
		log.Fatalw("failed to initialize sync service", "error", err)
	}

	interval := getEnvDuration("SYNC_INTERVAL", 5*time.Minute)
	log.Infow("worker running", "interval", interval)

	done := make(chan struct{})
	go func() {
		defer close(done)
		runLoop(ctx, syncService, interval, log)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()
	<-done
	log.Info("worker stopped")
}

// runLoop runs one cycle immediately, then one per tick. A cycle still in
// flight when the tick fires is reported as a conflict and skipped.
func runLoop(ctx context.Context, svc *sync.Service, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runOnce(ctx, svc, log)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce(ctx, svc, log)
		}
	}
}

func runOnce(ctx context.Context, svc *sync.Service, log *logger.Logger) {
	report, err := svc.Run(ctx)
	if err != nil {
		if apperror.IsConflict(err) {
			log.Warn("previous sync cycle still running, skipping tick")
			return
		}
		log.Errorw("sync cycle failed", "error", err)
	}
	if report == nil {
		return
	}
	for _, sr := range []*sync.SourceReport{report.Voyages, report.Claims} {
		if sr == nil {
			continue
		}
		log.Infow("sync cycle source done",
			"source", sr.Source,
			"processed", sr.Processed,
			"succeeded", sr.Succeeded,
			"failed", sr.Failed,
			"cursor_advanced", sr.CursorAdvanced,
			"has_more", sr.HasMore,
			"duration", sr.Duration,
		)
	}
}

func buildSyncService(pool *postgres.Pool) (*sync.Service, error) {
	txManager := postgres.NewTxManager(pool)

	activityStore, err := postgres.NewActivityLogStore(txManager)
	if err != nil {
		return nil, err
	}
	activityService := activity.NewService(activityStore)

	voyageRepo := record_repo.NewVoyageRepo(txManager)
	claimRepo := record_repo.NewClaimRepo(txManager)
	ownerRepo := record_repo.NewShipOwnerRepo(txManager)

	numeratorService := numerator.New(pool)

	voyageService := voyage.NewService(voyageRepo, txManager, activityService)
	claimService := claim.NewService(claimRepo, voyageRepo, txManager, activityService, numeratorService)

	fetcher := radar.NewClient(radar.Config{
		BaseURL: mustEnv("RADAR_BASE_URL"),
		Token:   getEnv("RADAR_TOKEN", ""),
	})

	return sync.NewService(sync.Config{
		Fetcher:     fetcher,
		Cursors:     postgres.NewSyncCursorStore(txManager),
		Voyages:     voyageService,
		Claims:      claimService,
		ShipOwners:  ownerRepo,
		RetryPolicy: retry.DefaultPolicy(),
		BatchSize:   getEnvInt("RADAR_BATCH_SIZE", 200),
	})
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
