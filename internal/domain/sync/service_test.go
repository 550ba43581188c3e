package sync

import (
	"context"
	gosync "sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
	"github.com/PatrykKozyra/claims-management-system/internal/core/retry"
	"github.com/PatrykKozyra/claims-management-system/internal/domain"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/activity"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/claim"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/shipowner"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/voyage"
	"github.com/PatrykKozyra/claims-management-system/pkg/numerator"
)

// --- in-memory fakes ---

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeActivityRepo struct {
	mu      gosync.Mutex
	entries []activity.Entry
}

func (f *fakeActivityRepo) Append(ctx context.Context, entry *activity.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeActivityRepo) ListFor(ctx context.Context, entityType string, entityID id.ID, limit int) ([]activity.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []activity.Entry
	for _, e := range f.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeVoyageRepo struct {
	mu   gosync.Mutex
	rows map[id.ID]voyage.Voyage
}

func newFakeVoyageRepo() *fakeVoyageRepo {
	return &fakeVoyageRepo{rows: make(map[id.ID]voyage.Voyage)}
}

func (f *fakeVoyageRepo) Create(ctx context.Context, v *voyage.Voyage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[v.ID] = *v
	return nil
}

func (f *fakeVoyageRepo) GetByID(ctx context.Context, entityID id.ID) (*voyage.Voyage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[entityID]
	if !ok {
		return nil, apperror.NewNotFound("voyage", entityID.String())
	}
	cp := row
	return &cp, nil
}

func (f *fakeVoyageRepo) GetForUpdate(ctx context.Context, entityID id.ID) (*voyage.Voyage, error) {
	return f.GetByID(ctx, entityID)
}

func (f *fakeVoyageRepo) Update(ctx context.Context, v *voyage.Voyage) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[v.ID]
	if !ok {
		return 0, apperror.NewNotFound("voyage", v.ID.String())
	}
	if row.Version != v.Version {
		return 0, apperror.NewConcurrentModification("voyage", v.ID.String(), row.Version)
	}
	cp := *v
	cp.Version = row.Version + 1
	f.rows[v.ID] = cp
	return cp.Version, nil
}

func (f *fakeVoyageRepo) ForceUpdate(ctx context.Context, v *voyage.Voyage) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[v.ID]
	if !ok {
		return 0, apperror.NewNotFound("voyage", v.ID.String())
	}
	cp := *v
	cp.Version = row.Version + 1
	f.rows[v.ID] = cp
	return cp.Version, nil
}

func (f *fakeVoyageRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*voyage.Voyage], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := domain.ListResult[*voyage.Voyage]{}
	for _, row := range f.rows {
		cp := row
		result.Items = append(result.Items, &cp)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

func (f *fakeVoyageRepo) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[entityID]
	return ok, nil
}

func (f *fakeVoyageRepo) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[entityID]
	if !ok {
		return apperror.NewNotFound("voyage", entityID.String())
	}
	row.DeletionMark = marked
	row.Version++
	f.rows[entityID] = row
	return nil
}

func (f *fakeVoyageRepo) GetByRadarID(ctx context.Context, radarID string) (*voyage.Voyage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.RadarID != nil && *row.RadarID == radarID {
			cp := row
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("voyage", radarID)
}

func (f *fakeVoyageRepo) GetForUpdateByRadarID(ctx context.Context, radarID string) (*voyage.Voyage, error) {
	return f.GetByRadarID(ctx, radarID)
}

func (f *fakeVoyageRepo) GetByVoyageNumber(ctx context.Context, voyageNumber string) (*voyage.Voyage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.VoyageNumber == voyageNumber {
			cp := row
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("voyage", voyageNumber)
}

type fakeClaimRepo struct {
	mu   gosync.Mutex
	rows map[id.ID]claim.Claim
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{rows: make(map[id.ID]claim.Claim)}
}

func (f *fakeClaimRepo) Create(ctx context.Context, c *claim.Claim) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[c.ID] = *c
	return nil
}

func (f *fakeClaimRepo) GetByID(ctx context.Context, entityID id.ID) (*claim.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[entityID]
	if !ok {
		return nil, apperror.NewNotFound("claim", entityID.String())
	}
	cp := row
	return &cp, nil
}

func (f *fakeClaimRepo) GetForUpdate(ctx context.Context, entityID id.ID) (*claim.Claim, error) {
	return f.GetByID(ctx, entityID)
}

func (f *fakeClaimRepo) Update(ctx context.Context, c *claim.Claim) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[c.ID]
	if !ok {
		return 0, apperror.NewNotFound("claim", c.ID.String())
	}
	if row.Version != c.Version {
		return 0, apperror.NewConcurrentModification("claim", c.ID.String(), row.Version)
	}
	cp := *c
	cp.Version = row.Version + 1
	f.rows[c.ID] = cp
	return cp.Version, nil
}

func (f *fakeClaimRepo) ForceUpdate(ctx context.Context, c *claim.Claim) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[c.ID]
	if !ok {
		return 0, apperror.NewNotFound("claim", c.ID.String())
	}
	cp := *c
	cp.Version = row.Version + 1
	f.rows[c.ID] = cp
	return cp.Version, nil
}

func (f *fakeClaimRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*claim.Claim], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := domain.ListResult[*claim.Claim]{}
	for _, row := range f.rows {
		cp := row
		result.Items = append(result.Items, &cp)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

func (f *fakeClaimRepo) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[entityID]
	return ok, nil
}

func (f *fakeClaimRepo) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[entityID]
	if !ok {
		return apperror.NewNotFound("claim", entityID.String())
	}
	row.DeletionMark = marked
	row.Version++
	f.rows[entityID] = row
	return nil
}

func (f *fakeClaimRepo) GetByRadarID(ctx context.Context, radarID string) (*claim.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.RadarID != nil && *row.RadarID == radarID {
			cp := row
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("claim", radarID)
}

func (f *fakeClaimRepo) GetForUpdateByRadarID(ctx context.Context, radarID string) (*claim.Claim, error) {
	return f.GetByRadarID(ctx, radarID)
}

func (f *fakeClaimRepo) GetByClaimNumber(ctx context.Context, claimNumber string) (*claim.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ClaimNumber == claimNumber {
			cp := row
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("claim", claimNumber)
}

func (f *fakeClaimRepo) ListForVoyage(ctx context.Context, voyageID id.ID) ([]*claim.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*claim.Claim
	for _, row := range f.rows {
		if row.VoyageID == voyageID {
			cp := row
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeShipOwnerRepo struct {
	owners map[string]*shipowner.ShipOwner
}

func (f *fakeShipOwnerRepo) Create(ctx context.Context, o *shipowner.ShipOwner) error {
	f.owners[o.Code] = o
	return nil
}

func (f *fakeShipOwnerRepo) GetByID(ctx context.Context, entityID id.ID) (*shipowner.ShipOwner, error) {
	for _, o := range f.owners {
		if o.ID == entityID {
			return o, nil
		}
	}
	return nil, apperror.NewNotFound("ship owner", entityID.String())
}

func (f *fakeShipOwnerRepo) GetForUpdate(ctx context.Context, entityID id.ID) (*shipowner.ShipOwner, error) {
	return f.GetByID(ctx, entityID)
}

func (f *fakeShipOwnerRepo) Update(ctx context.Context, o *shipowner.ShipOwner) (int, error) {
	f.owners[o.Code] = o
	return o.Version + 1, nil
}

func (f *fakeShipOwnerRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*shipowner.ShipOwner], error) {
	return domain.ListResult[*shipowner.ShipOwner]{}, nil
}

func (f *fakeShipOwnerRepo) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return false, nil
}

func (f *fakeShipOwnerRepo) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	return nil
}

func (f *fakeShipOwnerRepo) GetByCode(ctx context.Context, code string) (*shipowner.ShipOwner, error) {
	if o, ok := f.owners[code]; ok {
		return o, nil
	}
	return nil, apperror.NewNotFound("ship owner", code)
}

// fakeSeqRow feeds the numerator an incrementing counter.
type fakeSeqRow struct{ val int64 }

func (r *fakeSeqRow) Scan(dest ...any) error {
	if ptr, ok := dest[0].(*int64); ok {
		*ptr = r.val
	}
	return nil
}

type fakeSeqQuerier struct{ counter int64 }

func (q *fakeSeqQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.counter++
	return &fakeSeqRow{val: q.counter}
}

type fakeCursorStore struct {
	mu      gosync.Mutex
	cursors map[string]Cursor
	saves   int
}

func newFakeCursorStore() *fakeCursorStore {
	return &fakeCursorStore{cursors: make(map[string]Cursor)}
}

func (f *fakeCursorStore) Get(ctx context.Context, source string) (Cursor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.cursors[source]; ok {
		return c, nil
	}
	return Cursor{Source: source}, nil
}

func (f *fakeCursorStore) Save(ctx context.Context, cursor Cursor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursors[cursor.Source] = cursor
	f.saves++
	return nil
}

type fakeFetcher struct {
	mu          gosync.Mutex
	voyagePages []*VoyagePage
	claimPages  []*ClaimPage

	voyageFailures int
	claimFailures  int
	voyageCalls    int
	claimCalls     int
}

func (f *fakeFetcher) FetchVoyages(ctx context.Context, cursor string, limit int) (*VoyagePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voyageCalls++
	if f.voyageFailures > 0 {
		f.voyageFailures--
		return nil, apperror.NewConnectivity("feed unavailable", nil)
	}
	if len(f.voyagePages) == 0 {
		return &VoyagePage{NextCursor: cursor}, nil
	}
	page := f.voyagePages[0]
	f.voyagePages = f.voyagePages[1:]
	return page, nil
}

func (f *fakeFetcher) FetchClaims(ctx context.Context, cursor string, limit int) (*ClaimPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claimCalls++
	if f.claimFailures > 0 {
		f.claimFailures--
		return nil, apperror.NewConnectivity("feed unavailable", nil)
	}
	if len(f.claimPages) == 0 {
		return &ClaimPage{NextCursor: cursor}, nil
	}
	page := f.claimPages[0]
	f.claimPages = f.claimPages[1:]
	return page, nil
}

// --- test environment ---

type testEnv struct {
	fetcher    *fakeFetcher
	cursors    *fakeCursorStore
	voyageRepo *fakeVoyageRepo
	claimRepo  *fakeClaimRepo
	audit      *fakeActivityRepo
	voyages    *voyage.Service
	claims     *claim.Service
	sync       *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	txm := &fakeTxManager{}
	audit := &fakeActivityRepo{}
	activitySvc := activity.NewService(audit)

	voyageRepo := newFakeVoyageRepo()
	claimRepo := newFakeClaimRepo()
	owners := &fakeShipOwnerRepo{owners: make(map[string]*shipowner.ShipOwner)}
	owners.owners["MAERSK"] = shipowner.New("MAERSK", "A.P. Moller-Maersk")

	voyageSvc := voyage.NewService(voyageRepo, txm, activitySvc)
	claimSvc := claim.NewService(claimRepo, voyageRepo, txm, activitySvc, numerator.New(&fakeSeqQuerier{}))

	fetcher := &fakeFetcher{}
	cursors := newFakeCursorStore()

	syncSvc, err := NewService(Config{
		Fetcher:    fetcher,
		Cursors:    cursors,
		Voyages:    voyageSvc,
		Claims:     claimSvc,
		ShipOwners: owners,
		RetryPolicy: retry.Policy{
			MaxAttempts:        3,
			BaseDelay:          time.Millisecond,
			ExponentialBackoff: false,
		},
	})
	require.NoError(t, err)

	return &testEnv{
		fetcher:    fetcher,
		cursors:    cursors,
		voyageRepo: voyageRepo,
		claimRepo:  claimRepo,
		audit:      audit,
		voyages:    voyageSvc,
		claims:     claimSvc,
		sync:       syncSvc,
	}
}

func extVoyage(radarID, number, vessel, cursor string) ExternalVoyage {
	return ExternalVoyage{
		ID:             radarID,
		VoyageNumber:   number,
		VesselName:     vessel,
		CharterType:    "SPOT",
		LoadPort:       "Rotterdam",
		DischargePort:  "Singapore",
		DemurrageRate:  decimal.NewFromInt(25000),
		LaytimeAllowed: decimal.NewFromInt(3),
		Currency:       "USD",
		UpdatedAt:      time.Now().UTC(),
		Cursor:         cursor,
		Raw:            []byte(`{"id":"` + radarID + `"}`),
	}
}

func TestRun_CreatesVoyagesAndAdvancesCursor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.fetcher.voyagePages = []*VoyagePage{{
		Records: []ExternalVoyage{
			extVoyage("RV-1", "VOY-001", "Ever Given", "c1"),
			extVoyage("RV-2", "VOY-002", "Maersk Alabama", "c2"),
		},
		NextCursor: "c2",
	}}

	report, err := env.sync.Run(ctx)
	require.NoError(t, err)

	require.NotNil(t, report.Voyages)
	assert.Equal(t, 2, report.Voyages.Processed)
	assert.Equal(t, 2, report.Voyages.Succeeded)
	assert.Equal(t, 0, report.Voyages.Failed)
	assert.True(t, report.Voyages.CursorAdvanced)
	assert.Equal(t, "c2", report.Voyages.NewCursor)

	v, err := env.voyages.GetByRadarID(ctx, "RV-1")
	require.NoError(t, err)
	assert.Equal(t, "VOY-001", v.VoyageNumber)
	assert.Equal(t, 0, v.Version)
	assert.NotNil(t, v.LastRadarSync)

	trail, err := env.audit.ListFor(ctx, "voyage", v.ID, 10)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, activity.ActionSynced, trail[0].Action)
}

func TestRun_SyncWinsOverStaleLocalEdit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.fetcher.voyagePages = []*VoyagePage{{
		Records:    []ExternalVoyage{extVoyage("RV-1", "VOY-001", "Ever Given", "c1")},
		NextCursor: "c1",
	}}
	_, err := env.sync.Run(ctx)
	require.NoError(t, err)

	// A user reads the record at version 0 here.
	stale, err := env.voyages.GetByRadarID(ctx, "RV-1")
	require.NoError(t, err)
	require.Equal(t, 0, stale.Version)

	// The next sync cycle force-updates the row, bumping the version.
	updated := extVoyage("RV-1", "VOY-001", "Ever Given II", "c2")
	env.fetcher.voyagePages = []*VoyagePage{{
		Records:    []ExternalVoyage{updated},
		NextCursor: "c2",
	}}
	_, err = env.sync.Run(ctx)
	require.NoError(t, err)

	fresh, err := env.voyages.GetByRadarID(ctx, "RV-1")
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Version)
	assert.Equal(t, "Ever Given II", fresh.VesselName)

	// The user's stale edit now loses, and the error carries the version
	// stored right now.
	notes := "checked laytime statement"
	_, err = env.voyages.UpdateNotes(ctx, stale.ID, stale.Version, &notes)
	require.Error(t, err)
	assert.True(t, apperror.IsConcurrentModification(err))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 1, appErr.Details["current_version"])
}

func TestRun_LocalFieldsSurviveSync(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.fetcher.voyagePages = []*VoyagePage{{
		Records:    []ExternalVoyage{extVoyage("RV-1", "VOY-001", "Ever Given", "c1")},
		NextCursor: "c1",
	}}
	_, err := env.sync.Run(ctx)
	require.NoError(t, err)

	v, err := env.voyages.GetByRadarID(ctx, "RV-1")
	require.NoError(t, err)

	_, err = env.voyages.AssignTo(ctx, v.ID, v.Version, "m.kowalski")
	require.NoError(t, err)

	// RADAR re-sends the voyage with changed commercial terms.
	updated := extVoyage("RV-1", "VOY-001", "Ever Given", "c2")
	updated.DemurrageRate = decimal.NewFromInt(30000)
	env.fetcher.voyagePages = []*VoyagePage{{
		Records:    []ExternalVoyage{updated},
		NextCursor: "c2",
	}}
	_, err = env.sync.Run(ctx)
	require.NoError(t, err)

	fresh, err := env.voyages.GetByRadarID(ctx, "RV-1")
	require.NoError(t, err)
	assert.True(t, fresh.IsAssigned())
	assert.Equal(t, "m.kowalski", *fresh.AssignedAnalyst)
	assert.True(t, decimal.NewFromInt(30000).Equal(fresh.DemurrageRate))
}

func TestRun_CursorPinnedByFailedRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bad := extVoyage("RV-2", "VOY-002", "", "c2") // vessel name missing
	env.fetcher.voyagePages = []*VoyagePage{{
		Records: []ExternalVoyage{
			extVoyage("RV-1", "VOY-001", "Ever Given", "c1"),
			bad,
			extVoyage("RV-3", "VOY-003", "Maersk Alabama", "c3"),
		},
		NextCursor: "c3",
	}}

	report, err := env.sync.Run(ctx)
	require.NoError(t, err)

	require.NotNil(t, report.Voyages)
	assert.Equal(t, 3, report.Voyages.Processed)
	assert.Equal(t, 2, report.Voyages.Succeeded)
	assert.Equal(t, 1, report.Voyages.Failed)
	require.Len(t, report.Voyages.Failures, 1)
	assert.Equal(t, "RV-2", report.Voyages.Failures[0].ExternalID)
	assert.Equal(t, apperror.KindValidation, report.Voyages.Failures[0].Kind)

	// Records after the failure are still applied.
	_, err = env.voyages.GetByRadarID(ctx, "RV-3")
	require.NoError(t, err)

	// But the cursor stops at the last record before the failure.
	cur, err := env.cursors.Get(ctx, SourceVoyages)
	require.NoError(t, err)
	assert.Equal(t, "c1", cur.Token)
}

func TestRun_FirstRecordFailureLeavesCursorUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.fetcher.voyagePages = []*VoyagePage{{
		Records:    []ExternalVoyage{extVoyage("RV-1", "VOY-001", "", "c1")},
		NextCursor: "c1",
	}}

	report, err := env.sync.Run(ctx)
	require.NoError(t, err)
	assert.False(t, report.Voyages.CursorAdvanced)

	cur, err := env.cursors.Get(ctx, SourceVoyages)
	require.NoError(t, err)
	assert.Equal(t, "", cur.Token)
}

func TestRun_FetchIsRetried(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.fetcher.voyageFailures = 2
	env.fetcher.voyagePages = []*VoyagePage{{
		Records:    []ExternalVoyage{extVoyage("RV-1", "VOY-001", "Ever Given", "c1")},
		NextCursor: "c1",
	}}

	report, err := env.sync.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Voyages.Succeeded)
	assert.Equal(t, 3, env.fetcher.voyageCalls)
}

func TestRun_FetchExhaustionAbortsCycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.fetcher.voyageFailures = 5

	_, err := env.sync.Run(ctx)
	require.Error(t, err)
	assert.True(t, retry.IsExhausted(err))
	assert.Equal(t, 3, env.fetcher.voyageCalls)

	cur, err := env.cursors.Get(ctx, SourceVoyages)
	require.NoError(t, err)
	assert.Equal(t, "", cur.Token)
}

func TestRun_ClaimsSyncAfterVoyages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.fetcher.voyagePages = []*VoyagePage{{
		Records:    []ExternalVoyage{extVoyage("RV-1", "VOY-001", "Ever Given", "v1")},
		NextCursor: "v1",
	}}
	laytimeUsed := decimal.NewFromInt(5)
	env.fetcher.claimPages = []*ClaimPage{{
		Records: []ExternalClaim{{
			ID:            "RC-1",
			VoyageID:      "RV-1",
			ClaimType:     "DEMURRAGE",
			ClaimedAmount: decimal.NewFromInt(50000),
			Currency:      "USD",
			LaytimeUsed:   &laytimeUsed,
			UpdatedAt:     time.Now().UTC(),
			Cursor:        "k1",
			Raw:           []byte(`{"id":"RC-1"}`),
		}},
		NextCursor: "k1",
	}}

	report, err := env.sync.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, report.Claims)
	assert.Equal(t, 1, report.Claims.Succeeded)

	c, err := env.claims.GetByRadarID(ctx, "RC-1")
	require.NoError(t, err)
	assert.Contains(t, c.ClaimNumber, "CLM-")
	assert.Equal(t, claim.StatusDraft, c.Status)
	// laytime used 5 against allowance 3 -> 2 days on demurrage
	require.NotNil(t, c.DemurrageDays)
	assert.True(t, decimal.NewFromInt(2).Equal(*c.DemurrageDays))
}

func TestRun_ClaimWithUnknownVoyageFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.fetcher.claimPages = []*ClaimPage{{
		Records: []ExternalClaim{{
			ID:            "RC-1",
			VoyageID:      "RV-MISSING",
			ClaimType:     "DEMURRAGE",
			ClaimedAmount: decimal.NewFromInt(50000),
			Cursor:        "k1",
		}},
		NextCursor: "k1",
	}}

	report, err := env.sync.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, report.Claims)
	assert.Equal(t, 1, report.Claims.Failed)
	assert.Equal(t, apperror.KindValidation, report.Claims.Failures[0].Kind)
	assert.False(t, report.Claims.CursorAdvanced)
}

func TestRun_LocalClaimStatusSurvivesSync(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.fetcher.voyagePages = []*VoyagePage{{
		Records:    []ExternalVoyage{extVoyage("RV-1", "VOY-001", "Ever Given", "v1")},
		NextCursor: "v1",
	}}
	env.fetcher.claimPages = []*ClaimPage{{
		Records: []ExternalClaim{{
			ID:            "RC-1",
			VoyageID:      "RV-1",
			ClaimType:     "DEMURRAGE",
			ClaimedAmount: decimal.NewFromInt(50000),
			Cursor:        "k1",
		}},
		NextCursor: "k1",
	}}
	_, err := env.sync.Run(ctx)
	require.NoError(t, err)

	c, err := env.claims.GetByRadarID(ctx, "RC-1")
	require.NoError(t, err)
	_, err = env.claims.TransitionStatus(ctx, c.ID, c.Version, claim.StatusUnderReview)
	require.NoError(t, err)

	// RADAR re-sends the claim with a higher amount.
	env.fetcher.claimPages = []*ClaimPage{{
		Records: []ExternalClaim{{
			ID:            "RC-1",
			VoyageID:      "RV-1",
			ClaimType:     "DEMURRAGE",
			ClaimedAmount: decimal.NewFromInt(60000),
			Cursor:        "k2",
		}},
		NextCursor: "k2",
	}}
	_, err = env.sync.Run(ctx)
	require.NoError(t, err)

	fresh, err := env.claims.GetByRadarID(ctx, "RC-1")
	require.NoError(t, err)
	assert.Equal(t, claim.StatusUnderReview, fresh.Status)
	assert.True(t, decimal.NewFromInt(60000).Equal(fresh.ClaimedAmount))
	// The claim number assigned on first sight is stable.
	assert.Contains(t, fresh.ClaimNumber, "CLM-")
}
