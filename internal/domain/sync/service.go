// Package sync reconciles the local store with the RADAR change feeds. One
// cycle per source: load the watermark, pull a batch (the only retried step),
// apply each record in feed order, then advance the watermark past the
// longest contiguous prefix of successfully applied records. A failed record
// never blocks the ones after it from being applied, but it does pin the
// cursor, so the failed record is re-pulled next cycle.
package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
	"github.com/PatrykKozyra/claims-management-system/internal/core/retry"
	"github.com/PatrykKozyra/claims-management-system/internal/core/rules"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/claim"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/shipowner"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/voyage"
	"github.com/PatrykKozyra/claims-management-system/pkg/logger"
)

const defaultBatchSize = 200

// Config configures the sync service.
type Config struct {
	Fetcher    Fetcher
	Cursors    CursorStore
	Voyages    *voyage.Service
	Claims     *claim.Service
	ShipOwners shipowner.Repository

	// RetryPolicy governs the feed fetch only. Record upserts are never
	// retried inside a cycle; the pinned cursor re-delivers failed records
	// next cycle instead.
	RetryPolicy retry.Policy

	// BatchSize is the page size requested from the feed (default 200).
	BatchSize int
}

// Service runs reconciliation cycles against the RADAR feeds.
type Service struct {
	cfg Config

	voyageRules *rules.Engine
	claimRules  *rules.Engine

	// running serializes cycles; overlapping runs would race on the cursor.
	running gosync.Mutex

	lastMu     gosync.Mutex
	lastReport *Report
}

// NewService creates the sync service, compiling the payload rule sets.
func NewService(cfg Config) (*Service, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}

	voyageRules, err := rules.NewEngine(rules.VoyageRules())
	if err != nil {
		return nil, err
	}
	claimRules, err := rules.NewEngine(rules.ClaimRules())
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:         cfg,
		voyageRules: voyageRules,
		claimRules:  claimRules,
	}, nil
}

// Run executes one full cycle: voyages first, then claims, so claim records
// referencing a voyage that arrived in the same batch resolve. Returns a
// conflict error when a cycle is already in flight.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	if !s.running.TryLock() {
		return nil, apperror.NewConflict("sync cycle already running")
	}
	defer s.running.Unlock()

	report := &Report{}
	defer s.storeLastReport(report)

	voyageReport, err := s.syncVoyages(ctx)
	report.Voyages = voyageReport
	if err != nil {
		return report, err
	}

	claimReport, err := s.syncClaims(ctx)
	report.Claims = claimReport
	if err != nil {
		return report, err
	}

	return report, nil
}

func (s *Service) storeLastReport(report *Report) {
	s.lastMu.Lock()
	s.lastReport = report
	s.lastMu.Unlock()
}

// LastReport returns the report of the most recent cycle, or nil if none has
// run in this process.
func (s *Service) LastReport() *Report {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()
	return s.lastReport
}

func (s *Service) syncVoyages(ctx context.Context) (*SourceReport, error) {
	report := &SourceReport{Source: SourceVoyages, StartedAt: time.Now().UTC()}
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	cur, err := s.cfg.Cursors.Get(ctx, SourceVoyages)
	if err != nil {
		return report, err
	}

	page, err := retry.Do(ctx, s.cfg.RetryPolicy, func(ctx context.Context) (*VoyagePage, error) {
		return s.cfg.Fetcher.FetchVoyages(ctx, cur.Token, s.cfg.BatchSize)
	})
	if err != nil {
		return report, err
	}

	report.Processed = len(page.Records)
	report.HasMore = page.HasMore

	prefixIntact := true
	lastGood := cur.Token
	for _, rec := range page.Records {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.applyVoyage(ctx, rec); err != nil {
			cls := apperror.Classify(err)
			report.Failed++
			report.Failures = append(report.Failures, Failure{
				ExternalID: rec.ID,
				Kind:       cls.Kind,
				Message:    cls.Message,
			})
			prefixIntact = false
			logger.Warn(ctx, "voyage sync record failed",
				"radar_id", rec.ID, "kind", cls.Kind, "error", err)
			continue
		}
		report.Succeeded++
		if prefixIntact {
			lastGood = rec.Cursor
		}
	}

	// A fully clean page advances to the page cursor, which may sit past
	// the last record.
	if prefixIntact && page.NextCursor != "" {
		lastGood = page.NextCursor
	}

	if err := s.advanceCursor(ctx, report, SourceVoyages, cur.Token, lastGood); err != nil {
		return report, err
	}
	return report, nil
}

func (s *Service) syncClaims(ctx context.Context) (*SourceReport, error) {
	report := &SourceReport{Source: SourceClaims, StartedAt: time.Now().UTC()}
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	cur, err := s.cfg.Cursors.Get(ctx, SourceClaims)
	if err != nil {
		return report, err
	}

	page, err := retry.Do(ctx, s.cfg.RetryPolicy, func(ctx context.Context) (*ClaimPage, error) {
		return s.cfg.Fetcher.FetchClaims(ctx, cur.Token, s.cfg.BatchSize)
	})
	if err != nil {
		return report, err
	}

	report.Processed = len(page.Records)
	report.HasMore = page.HasMore

	prefixIntact := true
	lastGood := cur.Token
	for _, rec := range page.Records {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.applyClaim(ctx, rec); err != nil {
			cls := apperror.Classify(err)
			report.Failed++
			report.Failures = append(report.Failures, Failure{
				ExternalID: rec.ID,
				Kind:       cls.Kind,
				Message:    cls.Message,
			})
			prefixIntact = false
			logger.Warn(ctx, "claim sync record failed",
				"radar_id", rec.ID, "kind", cls.Kind, "error", err)
			continue
		}
		report.Succeeded++
		if prefixIntact {
			lastGood = rec.Cursor
		}
	}

	if prefixIntact && page.NextCursor != "" {
		lastGood = page.NextCursor
	}

	if err := s.advanceCursor(ctx, report, SourceClaims, cur.Token, lastGood); err != nil {
		return report, err
	}
	return report, nil
}

func (s *Service) advanceCursor(ctx context.Context, report *SourceReport, source, oldToken, newToken string) error {
	if newToken == oldToken {
		return nil
	}
	err := s.cfg.Cursors.Save(ctx, Cursor{
		Source:       source,
		Token:        newToken,
		LastSyncedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	report.CursorAdvanced = true
	report.NewCursor = newToken
	logger.Info(ctx, "sync cursor advanced", "source", source, "cursor", newToken)
	return nil
}

func (s *Service) applyVoyage(ctx context.Context, rec ExternalVoyage) error {
	if err := s.voyageRules.Validate(voyageRuleRecord(rec)); err != nil {
		return err
	}

	var shipOwnerID *id.ID
	if rec.ShipOwnerCode != nil && *rec.ShipOwnerCode != "" {
		owner, err := s.cfg.ShipOwners.GetByCode(ctx, *rec.ShipOwnerCode)
		switch {
		case err == nil:
			shipOwnerID = &owner.ID
		case apperror.IsNotFound(err):
			// Unknown owner codes are tolerated; the voyage still syncs.
			logger.Warn(ctx, "unknown ship owner code in voyage payload",
				"radar_id", rec.ID, "code", *rec.ShipOwnerCode)
		default:
			return err
		}
	}

	_, err := s.cfg.Voyages.UpsertFromRadar(ctx, rec.ID, rec.Raw, voyage.RadarFields{
		VoyageNumber:   rec.VoyageNumber,
		VesselName:     rec.VesselName,
		IMONumber:      rec.IMONumber,
		CharterType:    voyage.CharterType(rec.CharterType),
		CharterParty:   rec.CharterParty,
		LoadPort:       rec.LoadPort,
		DischargePort:  rec.DischargePort,
		LaycanStart:    rec.LaycanStart,
		LaycanEnd:      rec.LaycanEnd,
		DemurrageRate:  rec.DemurrageRate,
		LaytimeAllowed: rec.LaytimeAllowed,
		Currency:       rec.Currency,
	}, shipOwnerID)
	return err
}

func (s *Service) applyClaim(ctx context.Context, rec ExternalClaim) error {
	if err := s.claimRules.Validate(claimRuleRecord(rec)); err != nil {
		return err
	}

	// The referenced voyage must already be mirrored; voyages sync first
	// within a cycle, so this only fails for genuinely unknown references.
	v, err := s.cfg.Voyages.GetByRadarID(ctx, rec.VoyageID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("claim references unknown voyage").
				WithDetail("radarVoyageId", rec.VoyageID)
		}
		return err
	}

	_, err = s.cfg.Claims.UpsertFromRadar(ctx, rec.ID, rec.Raw, claim.RadarFields{
		Type:          claim.Type(rec.ClaimType),
		ClaimedAmount: rec.ClaimedAmount,
		Currency:      rec.Currency,
		LaytimeUsed:   rec.LaytimeUsed,
	}, v.ID)
	return err
}

// voyageRuleRecord shapes the typed record for the CEL rule set.
func voyageRuleRecord(rec ExternalVoyage) map[string]any {
	return map[string]any{
		"voyage_number":   rec.VoyageNumber,
		"vessel_name":     rec.VesselName,
		"charter_type":    rec.CharterType,
		"laytime_allowed": rec.LaytimeAllowed.InexactFloat64(),
		"demurrage_rate":  rec.DemurrageRate.InexactFloat64(),
	}
}

func claimRuleRecord(rec ExternalClaim) map[string]any {
	return map[string]any{
		"radar_voyage_id": rec.VoyageID,
		"claim_type":      rec.ClaimType,
		"claimed_amount":  rec.ClaimedAmount.InexactFloat64(),
	}
}
