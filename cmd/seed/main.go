// Package main provides a CLI tool for seeding the database with initial data:
// an admin account, the ship owner catalog and, on request, demo voyages.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/activity"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/auth"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/shipowner"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/voyage"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/storage/postgres"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/storage/postgres/auth_repo"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/storage/postgres/record_repo"
	"github.com/PatrykKozyra/claims-management-system/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	activityStore, err := postgres.NewActivityLogStore(txManager)
	if err != nil {
		log.Fatalw("failed to initialize activity log store", "error", err)
	}
	activityService := activity.NewService(activityStore)

	if err := seedAdminUser(ctx, txManager, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	ownerService := shipowner.NewService(record_repo.NewShipOwnerRepo(txManager), txManager, activityService)
	if err := seedShipOwners(ctx, ownerService, log); err != nil {
		log.Fatalw("failed to seed ship owners", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		voyageService := voyage.NewService(record_repo.NewVoyageRepo(txManager), txManager, activityService)
		if err := seedDemoVoyages(ctx, voyageService, ownerService, log); err != nil {
			log.Fatalw("failed to seed demo voyages", "error", err)
		}
	}

	log.Info("seeding complete")
}

func seedAdminUser(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) error {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin-change-me"
		log.Warn("ADMIN_PASSWORD not set, using default (change it)")
	}

	userRepo := auth_repo.NewUserRepo(txManager)
	authService := auth.NewService(userRepo, auth.NewJWTService(auth.DefaultJWTConfig("seed-unused")))

	user, err := authService.Register(ctx, "admin", "admin@claims.local", password, auth.RoleAdmin)
	if err != nil {
		if isDuplicate(err) {
			log.Info("admin user already exists, skipping")
			return nil
		}
		return err
	}
	log.Infow("admin user created", "id", user.ID)
	return nil
}

func seedShipOwners(ctx context.Context, svc *shipowner.Service, log *logger.Logger) error {
	owners := []struct {
		Code string
		Name string
	}{
		{"MAERSK", "A.P. Moller-Maersk"},
		{"MSC", "Mediterranean Shipping Company"},
		{"CMACGM", "CMA CGM Group"},
		{"COSCO", "COSCO Shipping Lines"},
		{"HAPAG", "Hapag-Lloyd"},
		{"ONE", "Ocean Network Express"},
		{"EVERGRN", "Evergreen Marine"},
		{"YANGMING", "Yang Ming Marine Transport"},
	}

	created := 0
	for _, o := range owners {
		owner := shipowner.New(o.Code, o.Name)
		if err := svc.Create(ctx, owner); err != nil {
			if isDuplicate(err) {
				continue
			}
			return err
		}
		created++
	}
	log.Infow("ship owners seeded", "created", created, "total", len(owners))
	return nil
}

func seedDemoVoyages(ctx context.Context, voyages *voyage.Service, owners *shipowner.Service, log *logger.Logger) error {
	maersk, err := owners.GetByCode(ctx, "MAERSK")
	if err != nil {
		return err
	}

	demo := []*voyage.Voyage{
		newDemoVoyage("VOY-2026-0101", "Maersk Emerald", "Rotterdam", "Singapore", "25000", "5"),
		newDemoVoyage("VOY-2026-0102", "Maersk Altair", "Houston", "Antwerp", "18500", "4"),
		newDemoVoyage("VOY-2026-0103", "Ever Glory", "Shanghai", "Los Angeles", "31000", "6"),
	}

	created := 0
	for _, v := range demo {
		v.ShipOwnerID = &maersk.ID
		if err := voyages.Create(ctx, v); err != nil {
			if isDuplicate(err) {
				continue
			}
			return err
		}
		created++
	}
	log.Infow("demo voyages seeded", "created", created)
	return nil
}

func isDuplicate(err error) bool {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.Code == apperror.CodeDuplicate
	}
	return false
}

func newDemoVoyage(number, vessel, loadPort, dischargePort, rate, laytime string) *voyage.Voyage {
	v := voyage.New(number, vessel)
	v.LoadPort = loadPort
	v.DischargePort = dischargePort
	v.DemurrageRate = decimal.RequireFromString(rate)
	v.LaytimeAllowed = decimal.RequireFromString(laytime)
	return v
}
