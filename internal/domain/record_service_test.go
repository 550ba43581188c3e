package domain

import (
	"context"
	"encoding/json"
	"errors"
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	"github.com/PatrykKozyra/claims-management-system/internal/core/entity"
	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/activity"
)

type testRecord struct {
	entity.VersionedRecord
	Name string `json:"name"`

	// Unmarshalable value makes the audit snapshot fail.
	Poison any `json:"poison,omitempty"`
}

func (r *testRecord) Validate(ctx context.Context) error {
	if r.Name == "" {
		return apperror.NewValidation("name is required")
	}
	return nil
}

// memRepo keeps value copies behind a mutex so mutations only land via
// Update, the way a database round trip behaves, and concurrent writers
// serialize on the conditional check like they would on the row.
type memRepo struct {
	mu      gosync.Mutex
	records map[id.ID]testRecord
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[id.ID]testRecord)}
}

func (r *memRepo) Create(ctx context.Context, rec *testRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = *rec
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, recID id.ID) (*testRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[recID]
	if !ok {
		return nil, apperror.NewNotFound("record", recID.String())
	}
	cp := stored
	return &cp, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, recID id.ID) (*testRecord, error) {
	return r.GetByID(ctx, recID)
}

func (r *memRepo) Update(ctx context.Context, rec *testRecord) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[rec.ID]
	if !ok {
		return 0, apperror.NewNotFound("record", rec.ID.String())
	}
	if stored.Version != rec.Version {
		payload, _ := json.Marshal(stored)
		return 0, apperror.NewConcurrentModification("record", rec.ID.String(), stored.Version).
			WithDetail("payload", json.RawMessage(payload))
	}
	cp := *rec
	cp.Version = stored.Version + 1
	r.records[rec.ID] = cp
	return cp.Version, nil
}

func (r *memRepo) List(ctx context.Context, filter ListFilter) (ListResult[*testRecord], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := ListResult[*testRecord]{Limit: filter.Limit, Offset: filter.Offset}
	for _, stored := range r.records {
		cp := stored
		result.Items = append(result.Items, &cp)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

func (r *memRepo) Exists(ctx context.Context, recID id.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[recID]
	return ok, nil
}

func (r *memRepo) SetDeletionMark(ctx context.Context, recID id.ID, marked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[recID]
	if !ok {
		return apperror.NewNotFound("record", recID.String())
	}
	stored.DeletionMark = marked
	stored.Version++
	r.records[recID] = stored
	return nil
}

// memTxManager is a pass-through that records whether the last transaction
// function returned an error, i.e. whether a real manager would roll back.
type memTxManager struct {
	mu         gosync.Mutex
	rolledBack bool
}

func (m *memTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	m.mu.Lock()
	m.rolledBack = err != nil
	m.mu.Unlock()
	return err
}

type memActivityRepo struct {
	mu        gosync.Mutex
	entries   []activity.Entry
	appendErr error
}

func (r *memActivityRepo) Append(ctx context.Context, entry *activity.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memActivityRepo) ListFor(ctx context.Context, entityType string, entityID id.ID, limit int) ([]activity.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []activity.Entry
	for _, e := range r.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

type serviceEnv struct {
	repo    *memRepo
	tx      *memTxManager
	trail   *memActivityRepo
	service *RecordService[*testRecord]
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()
	env := &serviceEnv{
		repo:  newMemRepo(),
		tx:    &memTxManager{},
		trail: &memActivityRepo{},
	}
	env.service = NewRecordService(RecordServiceConfig[*testRecord]{
		Repo:       env.repo,
		TxManager:  env.tx,
		Activity:   activity.NewService(env.trail),
		EntityName: "record",
	})
	return env
}

func newTestRecord(name string) *testRecord {
	return &testRecord{
		VersionedRecord: entity.NewVersionedRecord(),
		Name:            name,
	}
}

func TestCreate_StartsAtVersionZero(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	rec := newTestRecord("alpha")
	require.NoError(t, env.service.Create(ctx, rec))

	stored, err := env.service.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Version)

	require.Len(t, env.trail.entries, 1)
	entry := env.trail.entries[0]
	assert.Equal(t, activity.ActionCreated, entry.Action)
	assert.Equal(t, 0, entry.EntityVersion)
	assert.Equal(t, "system", entry.Actor)
	assert.NotEmpty(t, entry.After)
}

func TestWrite_IncrementsVersionByExactlyOne(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	rec := newTestRecord("alpha")
	require.NoError(t, env.service.Create(ctx, rec))

	updated, err := env.service.Write(ctx, rec.ID, 0, activity.ActionUpdated, "rename",
		func(ctx context.Context, r *testRecord) error {
			r.Name = "bravo"
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Version)
	assert.Equal(t, "bravo", updated.Name)

	updated, err = env.service.Write(ctx, rec.ID, 1, activity.ActionUpdated, "rename",
		func(ctx context.Context, r *testRecord) error {
			r.Name = "charlie"
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	history, err := env.service.History(ctx, rec.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 1, history[1].EntityVersion)
	assert.Equal(t, 2, history[2].EntityVersion)
	assert.NotEmpty(t, history[1].Before)
	assert.NotEmpty(t, history[1].After)
}

func TestWrite_StaleVersionConflictCarriesCurrentVersion(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	rec := newTestRecord("alpha")
	require.NoError(t, env.service.Create(ctx, rec))

	_, err := env.service.Write(ctx, rec.ID, 0, activity.ActionUpdated, "first",
		func(ctx context.Context, r *testRecord) error {
			r.Name = "bravo"
			return nil
		})
	require.NoError(t, err)

	// A second writer still holding version 0 loses.
	_, err = env.service.Write(ctx, rec.ID, 0, activity.ActionUpdated, "second",
		func(ctx context.Context, r *testRecord) error {
			r.Name = "charlie"
			return nil
		})
	require.Error(t, err)
	assert.True(t, apperror.IsConcurrentModification(err))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 1, appErr.Details["current_version"])

	// The conflict body also carries the state stored now, so the loser can
	// re-apply without another fetch.
	payload, ok := appErr.Details["payload"].(json.RawMessage)
	require.True(t, ok)
	var current testRecord
	require.NoError(t, json.Unmarshal(payload, &current))
	assert.Equal(t, "bravo", current.Name)
	assert.Equal(t, 1, current.Version)

	// The losing write left no trace.
	stored, err := env.service.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "bravo", stored.Name)
	assert.Equal(t, 1, stored.Version)
}

func TestWrite_RacingWritersSameVersionOneWins(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	rec := newTestRecord("alpha")
	require.NoError(t, env.service.Create(ctx, rec))

	var wg gosync.WaitGroup
	results := make(chan error, 2)
	for _, name := range []string{"bravo", "charlie"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := env.service.Write(ctx, rec.ID, 0, activity.ActionUpdated, "rename",
				func(ctx context.Context, r *testRecord) error {
					r.Name = name
					return nil
				})
			results <- err
		}(name)
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, apperror.IsConcurrentModification(err))
		conflicts++
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)

	stored, err := env.service.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
	assert.Contains(t, []string{"bravo", "charlie"}, stored.Name)

	// Exactly the winning write is in the trail, after the CREATED entry.
	history, err := env.service.History(ctx, rec.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[1].EntityVersion)
}

func TestWrite_FailedMutationLeavesNoAuditEntry(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	rec := newTestRecord("alpha")
	require.NoError(t, env.service.Create(ctx, rec))

	boom := errors.New("boom")
	_, err := env.service.Write(ctx, rec.ID, 0, activity.ActionUpdated, "explode",
		func(ctx context.Context, r *testRecord) error {
			return boom
		})
	require.ErrorIs(t, err, boom)
	assert.Len(t, env.trail.entries, 1) // only CREATED
}

func TestWrite_AuditAppendFailureFailsTheTransaction(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	rec := newTestRecord("alpha")
	require.NoError(t, env.service.Create(ctx, rec))

	env.trail.appendErr = errors.New("disk full")
	_, err := env.service.Write(ctx, rec.ID, 0, activity.ActionUpdated, "rename",
		func(ctx context.Context, r *testRecord) error {
			r.Name = "bravo"
			return nil
		})
	require.Error(t, err)
	assert.True(t, apperror.IsAuditWriteFailed(err))
	assert.True(t, env.tx.rolledBack, "transaction must roll back when the audit append fails")
}

func TestWrite_UnmarshalableSnapshotFailsAsAuditWrite(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	rec := newTestRecord("alpha")
	rec.Poison = make(chan int)
	require.NoError(t, env.repo.Create(ctx, rec))

	_, err := env.service.Write(ctx, rec.ID, 0, activity.ActionUpdated, "rename",
		func(ctx context.Context, r *testRecord) error {
			r.Name = "bravo"
			return nil
		})
	require.Error(t, err)
	assert.True(t, apperror.IsAuditWriteFailed(err))
	assert.True(t, env.tx.rolledBack)
}

func TestWrite_ValidationFailureIsAValidationError(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	rec := newTestRecord("alpha")
	require.NoError(t, env.service.Create(ctx, rec))

	_, err := env.service.Write(ctx, rec.ID, 0, activity.ActionUpdated, "clear name",
		func(ctx context.Context, r *testRecord) error {
			r.Name = ""
			return nil
		})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestWrite_UnknownRecordIsNotFound(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	_, err := env.service.Write(ctx, id.New(), 0, activity.ActionUpdated, "noop",
		func(ctx context.Context, r *testRecord) error {
			return nil
		})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDelete_SoftDeletesAndLogs(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	rec := newTestRecord("alpha")
	require.NoError(t, env.service.Create(ctx, rec))
	require.NoError(t, env.service.Delete(ctx, rec.ID))

	stored, err := env.service.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, stored.DeletionMark)

	history, err := env.service.History(ctx, rec.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "deletion mark set", history[1].Message)
}

func TestHooks_BeforeCreateRejectionBlocksInsert(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	env.service.Hooks().OnBeforeCreate(func(ctx context.Context, r *testRecord) error {
		return apperror.NewDuplicate("record", "name", r.Name)
	})

	rec := newTestRecord("alpha")
	err := env.service.Create(ctx, rec)
	require.Error(t, err)

	exists, err := env.service.Exists(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, env.trail.entries)
}
