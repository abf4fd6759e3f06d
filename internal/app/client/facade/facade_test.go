package facade

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"agrosync/internal/app/client/guard"
	"agrosync/internal/app/client/store"
	"agrosync/internal/app/client/tenantctx"
	"agrosync/internal/domain/entity"
)

const (
	testTenant = "tenant-1"
	testFarmer = "farmer-1"
)

type fakeRemote struct {
	mu      sync.Mutex
	online  bool
	failAll bool
	records map[string]*entity.Record

	insertCalls int
	updateCalls int
}

func newFakeRemote(online bool) *fakeRemote {
	return &fakeRemote{online: online, records: make(map[string]*entity.Record)}
}

func (r *fakeRemote) Online(ctx context.Context) bool { return r.online }

func (r *fakeRemote) List(ctx context.Context, typ entity.Type) ([]*entity.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errors.New("connection reset")
	}
	var out []*entity.Record
	for _, rec := range r.records {
		if rec.Type == typ {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRemote) Get(ctx context.Context, typ entity.Type, id string) (*entity.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errors.New("connection reset")
	}
	rec, ok := r.records[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeRemote) Insert(ctx context.Context, rec *entity.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errors.New("connection reset")
	}
	r.insertCalls++
	cp := *rec
	r.records[rec.ID] = &cp
	return nil
}

func (r *fakeRemote) Update(ctx context.Context, rec *entity.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errors.New("connection reset")
	}
	r.updateCalls++
	cp := *rec
	r.records[rec.ID] = &cp
	return nil
}

func newTestFacade(t *testing.T, online bool) (*Facade, *store.Store, *fakeRemote) {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log := slog.Default()
	mgr := tenantctx.New(st, log)
	require.NoError(t, mgr.Establish(context.Background(), testTenant, "", testFarmer))

	remote := newFakeRemote(online)
	f := New(st, remote, guard.New(mgr, log), log)

	return f, st, remote
}

func serverRecord(t *testing.T, typ entity.Type) *entity.Record {
	t.Helper()
	rec, err := entity.NewRecord(typ, testTenant, testFarmer, map[string]string{"name": "south field"})
	require.NoError(t, err)
	rec.SyncStatus = entity.StatusSynced
	return rec
}

func TestFacade_Fetch_OnlinePrefersRemoteAndCaches(t *testing.T) {
	f, st, remote := newTestFacade(t, true)
	ctx := context.Background()

	rec := serverRecord(t, entity.TypeLandParcel)
	remote.records[rec.ID] = rec

	records, err := f.Fetch(ctx, entity.TypeLandParcel)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Серверный набор попутно закэширован локально как synced.
	cached, err := st.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSynced, cached.SyncStatus)
}

func TestFacade_Fetch_RemoteFailureFallsBackToLocal(t *testing.T) {
	f, st, remote := newTestFacade(t, true)
	ctx := context.Background()

	local := serverRecord(t, entity.TypeLandParcel)
	require.NoError(t, st.BulkSave(ctx, []*entity.Record{local}))

	remote.failAll = true

	records, err := f.Fetch(ctx, entity.TypeLandParcel)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, local.ID, records[0].ID)
}

func TestFacade_Fetch_OfflineReadsLocalScoped(t *testing.T) {
	f, st, _ := newTestFacade(t, false)
	ctx := context.Background()

	mine := serverRecord(t, entity.TypeCropSchedule)
	foreign := serverRecord(t, entity.TypeCropSchedule)
	foreign.TenantID = "tenant-other"
	require.NoError(t, st.BulkSave(ctx, []*entity.Record{mine, foreign}))

	records, err := f.Fetch(ctx, entity.TypeCropSchedule)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, mine.ID, records[0].ID)
}

func TestFacade_Fetch_ForeignServerRecordNotCached(t *testing.T) {
	f, st, remote := newTestFacade(t, true)
	ctx := context.Background()

	own := serverRecord(t, entity.TypeLandParcel)
	remote.records[own.ID] = own

	foreign := serverRecord(t, entity.TypeLandParcel)
	foreign.TenantID = "tenant-other"
	remote.records[foreign.ID] = foreign

	records, err := f.Fetch(ctx, entity.TypeLandParcel)
	require.NoError(t, err)

	// Чужая запись не попадает ни в представление вызывающего,
	// ни в локальный кэш.
	require.Len(t, records, 1)
	assert.Equal(t, own.ID, records[0].ID)
	assert.Equal(t, testTenant, records[0].TenantID)

	_, err = st.Get(ctx, foreign.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestFacade_Save_OfflineStaysPending(t *testing.T) {
	f, st, remote := newTestFacade(t, false)
	ctx := context.Background()

	rec, err := entity.NewRecord(entity.TypeLandParcel, "", "", map[string]string{"name": "north field"})
	require.NoError(t, err)

	require.NoError(t, f.Save(ctx, rec))

	// Идентификаторы проставлены из контекста, запись локальная и pending.
	stored, err := st.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, testTenant, stored.TenantID)
	assert.Equal(t, testFarmer, stored.FarmerID)
	assert.Equal(t, entity.StatusPending, stored.SyncStatus)
	assert.Zero(t, remote.insertCalls)
}

func TestFacade_Save_OnlinePushesBestEffort(t *testing.T) {
	f, _, remote := newTestFacade(t, true)
	ctx := context.Background()

	rec, err := entity.NewRecord(entity.TypeLandParcel, "", "", map[string]string{"name": "north field"})
	require.NoError(t, err)

	require.NoError(t, f.Save(ctx, rec))
	assert.Equal(t, 1, remote.insertCalls)

	// Повторное сохранение той же записи идет через Update.
	require.NoError(t, f.Save(ctx, rec))
	assert.Equal(t, 1, remote.updateCalls)
}

func TestFacade_Save_RemoteFailureIsSwallowed(t *testing.T) {
	f, st, remote := newTestFacade(t, true)
	ctx := context.Background()

	remote.failAll = true

	rec, err := entity.NewRecord(entity.TypeProfile, "", "", map[string]string{"name": "Maria"})
	require.NoError(t, err)

	require.NoError(t, f.Save(ctx, rec))

	stored, err := st.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, stored.SyncStatus)
}

func TestFacade_Remove_IsSoftDelete(t *testing.T) {
	f, st, _ := newTestFacade(t, false)
	ctx := context.Background()

	rec := serverRecord(t, entity.TypeChatSession)
	require.NoError(t, st.BulkSave(ctx, []*entity.Record{rec}))

	require.NoError(t, f.Remove(ctx, rec.ID))

	_, err := f.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	pending, err := st.GetPending(ctx, entity.TypeChatSession, testTenant, testFarmer)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Deleted)
}
