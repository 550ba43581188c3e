// Package main provides the radarsync CLI: run reconciliation cycles and
// inspect or reset feed watermarks from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

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

type options struct {
	DatabaseURL string
	RadarURL    string
	RadarToken  string
	BatchSize   int
	Verbose     bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "radarsync",
		Short:         "Reconcile the local claims store with the RADAR feeds",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "db", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	cmd.PersistentFlags().StringVar(&opts.RadarURL, "radar-url", os.Getenv("RADAR_BASE_URL"), "RADAR feed base URL")
	cmd.PersistentFlags().StringVar(&opts.RadarToken, "radar-token", os.Getenv("RADAR_TOKEN"), "RADAR bearer token")
	cmd.PersistentFlags().IntVar(&opts.BatchSize, "batch-size", 200, "feed page size")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newCursorsCommand(opts))
	cmd.AddCommand(newResetCommand(opts))

	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	var drain bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one reconciliation cycle",
		Long: `Run one reconciliation cycle against the RADAR feeds: voyages
first, then claims. With --drain, cycles repeat until neither feed
reports more records.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx := logger.WithLogger(cmd.Context(), env.Log)
			for {
				report, err := env.Sync.Run(ctx)
				if err != nil {
					return err
				}
				printReport(report)
				if !drain || report == nil {
					return nil
				}
				hasMore := (report.Voyages != nil && report.Voyages.HasMore) ||
					(report.Claims != nil && report.Claims.HasMore)
				if !hasMore {
					return nil
				}
			}
		},
	}

	cmd.Flags().BoolVar(&drain, "drain", false, "repeat cycles until both feeds are exhausted")
	return cmd
}

func newCursorsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cursors",
		Short: "Show the persisted watermark for each feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer env.Close()

			for _, source := range []string{sync.SourceVoyages, sync.SourceClaims} {
				cur, err := env.Cursors.Get(cmd.Context(), source)
				if err != nil {
					return err
				}
				token := cur.Token
				if token == "" {
					token = "<never synced>"
				}
				fmt.Printf("%-16s token=%s last_synced=%s\n", source, token, formatTime(cur.LastSyncedAt))
			}
			return nil
		},
	}
}

func newResetCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <source>",
		Short: "Reset a feed watermark so the next cycle re-pulls from the start",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			if source != sync.SourceVoyages && source != sync.SourceClaims {
				return fmt.Errorf("unknown source %q: must be %s or %s", source, sync.SourceVoyages, sync.SourceClaims)
			}

			env, err := newEnv(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.Cursors.Save(cmd.Context(), sync.Cursor{Source: source}); err != nil {
				return err
			}
			fmt.Printf("cursor for %s reset\n", source)
			return nil
		},
	}
}

// env wires the sync stack for one CLI invocation.
type env struct {
	Pool    *postgres.Pool
	Sync    *sync.Service
	Cursors sync.CursorStore
	Log     *logger.Logger
}

func newEnv(ctx context.Context, opts *options) (*env, error) {
	if opts.DatabaseURL == "" {
		return nil, fmt.Errorf("database connection string required (--db or DATABASE_URL)")
	}
	if opts.RadarURL == "" {
		return nil, fmt.Errorf("RADAR base URL required (--radar-url or RADAR_BASE_URL)")
	}

	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Development: true})
	if err != nil {
		return nil, err
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(opts.DatabaseURL))
	if err != nil {
		return nil, err
	}

	txManager := postgres.NewTxManager(pool)

	activityStore, err := postgres.NewActivityLogStore(txManager)
	if err != nil {
		pool.Close()
		return nil, err
	}
	activityService := activity.NewService(activityStore)

	voyageRepo := record_repo.NewVoyageRepo(txManager)
	claimRepo := record_repo.NewClaimRepo(txManager)
	ownerRepo := record_repo.NewShipOwnerRepo(txManager)

	voyageService := voyage.NewService(voyageRepo, txManager, activityService)
	claimService := claim.NewService(claimRepo, voyageRepo, txManager, activityService, numerator.New(pool))

	cursors := postgres.NewSyncCursorStore(txManager)
	syncService, err := sync.NewService(sync.Config{
		Fetcher: radar.NewClient(radar.Config{
			BaseURL: opts.RadarURL,
			Token:   opts.RadarToken,
		}),
		Cursors:     cursors,
		Voyages:     voyageService,
		Claims:      claimService,
		ShipOwners:  ownerRepo,
		RetryPolicy: retry.DefaultPolicy(),
		BatchSize:   opts.BatchSize,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &env{Pool: pool, Sync: syncService, Cursors: cursors, Log: log}, nil
}

func (e *env) Close() {
	e.Pool.Close()
}

func printReport(report *sync.Report) {
	if report == nil {
		return
	}
	for _, sr := range []*sync.SourceReport{report.Voyages, report.Claims} {
		if sr == nil {
			continue
		}
		fmt.Printf("%-16s processed=%d succeeded=%d failed=%d advanced=%v has_more=%v duration=%s\n",
			sr.Source, sr.Processed, sr.Succeeded, sr.Failed, sr.CursorAdvanced, sr.HasMore,
			sr.Duration.Round(time.Millisecond))
		for _, f := range sr.Failures {
			fmt.Printf("  FAILED %s [%s] %s\n", f.ExternalID, f.Kind, f.Message)
		}
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
