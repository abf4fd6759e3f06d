package syncengine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"agrosync/internal/app/client/guard"
	"agrosync/internal/app/client/store"
	"agrosync/internal/app/client/tenantctx"
	"agrosync/internal/domain/entity"
	"agrosync/internal/domain/tenant"
)

const (
	testTenant = "tenant-1"
	testFarmer = "farmer-1"
)

// fakeRemote — управляемый серверный коллаборатор.
type fakeRemote struct {
	mu      sync.Mutex
	records map[entity.Type]map[string]*entity.Record

	failList     bool
	failInsertID string        // Insert этой записи отвечает ошибкой
	listGate     chan struct{} // если не nil, List блокируется до закрытия

	listCalls   int
	insertCalls int
	updateCalls int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{records: make(map[entity.Type]map[string]*entity.Record)}
}

func (r *fakeRemote) put(rec *entity.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.records[rec.Type] == nil {
		r.records[rec.Type] = make(map[string]*entity.Record)
	}
	cp := *rec
	r.records[rec.Type][rec.ID] = &cp
}

func (r *fakeRemote) List(ctx context.Context, typ entity.Type) ([]*entity.Record, error) {
	if r.listGate != nil {
		<-r.listGate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++

	if r.failList {
		return nil, errors.New("connection reset")
	}

	var out []*entity.Record
	for _, rec := range r.records[typ] {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeRemote) Get(ctx context.Context, typ entity.Type, id string) (*entity.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[typ][id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeRemote) Insert(ctx context.Context, rec *entity.Record) error {
	r.mu.Lock()
	r.insertCalls++
	failed := r.failInsertID != "" && rec.ID == r.failInsertID
	r.mu.Unlock()

	if failed {
		return errors.New("connection reset")
	}

	r.put(rec)
	return nil
}

func (r *fakeRemote) Update(ctx context.Context, rec *entity.Record) error {
	r.mu.Lock()
	r.updateCalls++
	r.mu.Unlock()
	r.put(rec)
	return nil
}

func (r *fakeRemote) calls() (list, insert, update int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listCalls, r.insertCalls, r.updateCalls
}

type fakeConn struct {
	mu     sync.Mutex
	online bool
	probes int
}

func (c *fakeConn) Online(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes++
	return c.online
}

func (c *fakeConn) probeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.probes
}

type fakeAuth struct {
	tenantID string
	farmerID string
}

func (a *fakeAuth) CurrentTenantID() string { return a.tenantID }
func (a *fakeAuth) CurrentFarmerID() string { return a.farmerID }

type harness struct {
	engine *Engine
	store  *store.Store
	remote *fakeRemote
	conn   *fakeConn
	auth   *fakeAuth
	mgr    *tenantctx.Manager
}

func newHarness(t *testing.T, establish bool) *harness {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "agrosync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log := slog.Default()
	mgr := tenantctx.New(st, log)
	if establish {
		require.NoError(t, mgr.Establish(context.Background(), testTenant, "ferma.example", testFarmer))
	}

	remote := newFakeRemote()
	conn := &fakeConn{online: true}
	auth := &fakeAuth{tenantID: testTenant, farmerID: testFarmer}
	g := guard.New(mgr, log)

	engine := New(st, remote, conn, auth, mgr, g, log)

	return &harness{engine: engine, store: st, remote: remote, conn: conn, auth: auth, mgr: mgr}
}

func pendingRecord(t *testing.T, typ entity.Type, lastModified int64) *entity.Record {
	t.Helper()
	rec, err := entity.NewRecord(typ, testTenant, testFarmer, map[string]string{"name": "south field"})
	require.NoError(t, err)
	rec.LastModified = lastModified
	return rec
}

func TestPerformSync_UploadsPendingRecord(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	rec := pendingRecord(t, entity.TypeLandParcel, 1000)
	require.NoError(t, h.store.BulkSave(ctx, []*entity.Record{rec}))

	result := h.engine.PerformSync(ctx, false)

	assert.True(t, result.Success)
	assert.Equal(t, MsgCompleted, result.Message)
	assert.Equal(t, 1, result.Uploaded)
	assert.Empty(t, result.Conflicts)

	_, inserts, _ := h.remote.calls()
	assert.Equal(t, 1, inserts)

	stored, err := h.store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSynced, stored.SyncStatus)
}

func TestPerformSync_UploadFailureDoesNotStopBatch(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	// Десять отложенных записей, выгрузка идет от старых к новым.
	records := make([]*entity.Record, 10)
	for i := range records {
		records[i] = pendingRecord(t, entity.TypeLandParcel, int64(1000+i))
	}
	require.NoError(t, h.store.BulkSave(ctx, records))

	// Девятая по порядку выгрузки отвечает сетевой ошибкой.
	ninth := records[8]
	h.remote.failInsertID = ninth.ID

	result := h.engine.PerformSync(ctx, false)

	assert.False(t, result.Success)
	assert.Equal(t, MsgCompletedWithErrs, result.Message)
	assert.Equal(t, 9, result.Uploaded)

	// Ровно одна ошибка, и она называет отказавшую запись.
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], ninth.ID)

	// Десятая запись обработана несмотря на сбой девятой.
	tenth, err := h.store.Get(ctx, records[9].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSynced, tenth.SyncStatus)

	// Отказавшая остается pending до следующего цикла.
	stored, err := h.store.Get(ctx, ninth.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, stored.SyncStatus)
}

func TestPerformSync_DownloadsServerRecords(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	server := pendingRecord(t, entity.TypeCropSchedule, 5000)
	server.SyncStatus = entity.StatusSynced
	h.remote.put(server)

	result := h.engine.PerformSync(ctx, false)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Downloaded)

	stored, err := h.store.Get(ctx, server.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSynced, stored.SyncStatus)
	assert.Equal(t, server.LastModified, stored.LastModified)
}

func TestPerformSync_ServerWinConflictOnDownload(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	local := pendingRecord(t, entity.TypeLandParcel, 1000)
	require.NoError(t, h.store.BulkSave(ctx, []*entity.Record{local}))

	server := *local
	server.LastModified = 2000
	server.Payload = []byte(`{"name":"renamed on server"}`)
	server.SyncStatus = entity.StatusSynced
	h.remote.put(&server)

	result := h.engine.PerformSync(ctx, false)

	assert.True(t, result.Success)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, local.ID, result.Conflicts[0].ID)
	assert.Equal(t, ResolutionServerWin, result.Conflicts[0].Resolution)
	assert.Equal(t, 0, result.Uploaded)

	stored, err := h.store.Get(ctx, local.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), stored.LastModified)
	assert.JSONEq(t, `{"name":"renamed on server"}`, string(stored.Payload))
	assert.Equal(t, entity.StatusSynced, stored.SyncStatus)
}

func TestPerformSync_PendingSurvivesDownloadAndUploads(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	// Локальная правка новее серверной копии: она переживает загрузку
	// и уходит на сервер в фазе выгрузки.
	local := pendingRecord(t, entity.TypeLandParcel, 3000)
	require.NoError(t, h.store.BulkSave(ctx, []*entity.Record{local}))

	server := *local
	server.LastModified = 2000
	server.SyncStatus = entity.StatusSynced
	h.remote.put(&server)

	result := h.engine.PerformSync(ctx, false)

	assert.True(t, result.Success)
	assert.Empty(t, result.Conflicts)
	assert.Equal(t, 1, result.Uploaded)

	_, _, updates := h.remote.calls()
	assert.Equal(t, 1, updates)

	remoteRec, err := h.remote.Get(ctx, entity.TypeLandParcel, local.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), remoteRec.LastModified)
}

func TestPerformSync_SoftDeletePropagates(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	rec := pendingRecord(t, entity.TypeCropSchedule, 2000)
	rec.SyncStatus = entity.StatusSynced
	require.NoError(t, h.store.BulkSave(ctx, []*entity.Record{rec}))
	h.remote.put(rec)

	require.NoError(t, h.store.Delete(ctx, rec.ID))

	result := h.engine.PerformSync(ctx, false)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Uploaded)

	remoteRec, err := h.remote.Get(ctx, entity.TypeCropSchedule, rec.ID)
	require.NoError(t, err)
	assert.True(t, remoteRec.Deleted)
}

func TestPerformSync_Idempotent(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	rec := pendingRecord(t, entity.TypeProfile, 1000)
	require.NoError(t, h.store.BulkSave(ctx, []*entity.Record{rec}))

	first := h.engine.PerformSync(ctx, false)
	require.True(t, first.Success)
	assert.Equal(t, 1, first.Uploaded)

	second := h.engine.PerformSync(ctx, false)
	require.True(t, second.Success)
	assert.Equal(t, 0, second.Uploaded)
	assert.Empty(t, second.Conflicts)
}

func TestPerformSync_SingleFlight(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	h.remote.listGate = make(chan struct{})

	started := make(chan struct{})
	done := make(chan *Result, 1)
	go func() {
		close(started)
		done <- h.engine.PerformSync(ctx, false)
	}()

	<-started
	// Ждем, пока первый цикл займет single-flight и застрянет в List.
	for !h.engine.IsSyncing() {
		time.Sleep(time.Millisecond)
	}

	second := h.engine.PerformSync(ctx, false)
	assert.False(t, second.Success)
	assert.Equal(t, MsgAlreadyInProgress, second.Message)
	assert.Contains(t, second.Errors, ErrSyncInProgress.Error())

	close(h.remote.listGate)
	first := <-done
	assert.True(t, first.Success)
}

func TestPerformSync_DurableMarkerBlocks(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	require.NoError(t, h.store.SetState(ctx, store.StateKeySyncInFlight, "1"))

	result := h.engine.PerformSync(ctx, false)
	assert.False(t, result.Success)
	assert.Equal(t, MsgAlreadyInProgress, result.Message)

	list, _, _ := h.remote.calls()
	assert.Equal(t, 0, list)
}

func TestNew_ClearsStaleMarker(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	// Имитация падения посреди цикла: маркер остался в хранилище.
	require.NoError(t, h.store.SetState(ctx, store.StateKeySyncInFlight, "1"))

	rebuilt := New(h.store, h.remote, h.conn, h.auth, h.mgr,
		guard.New(h.mgr, slog.Default()), slog.Default())

	result := rebuilt.PerformSync(ctx, false)
	assert.True(t, result.Success)
}

func TestPerformSync_Offline(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	h.conn.online = false

	result := h.engine.PerformSync(ctx, false)
	assert.False(t, result.Success)
	assert.Equal(t, MsgOffline, result.Message)

	list, insert, update := h.remote.calls()
	assert.Zero(t, list+insert+update)
}

func TestPerformSync_NoContextMakesZeroNetworkCalls(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	result := h.engine.PerformSync(ctx, false)
	assert.False(t, result.Success)
	assert.Equal(t, MsgMissingContext, result.Message)

	// Ни пробы связности, ни единого сетевого вызова.
	assert.Equal(t, 0, h.conn.probeCount())
	list, insert, update := h.remote.calls()
	assert.Zero(t, list+insert+update)
}

func TestPerformSync_TenantMismatchIsSecurityViolation(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	h.auth.tenantID = "tenant-evil"

	result := h.engine.PerformSync(ctx, false)
	assert.False(t, result.Success)
	assert.Equal(t, MsgReauthenticate, result.Message)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, ErrTenantMismatch.Error(), result.Errors[0])

	assert.Equal(t, 0, h.conn.probeCount())
}

func TestPerformSync_FarmerMismatchIsSecurityViolation(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	h.auth.farmerID = "farmer-evil"

	result := h.engine.PerformSync(ctx, false)
	assert.False(t, result.Success)
	assert.Equal(t, MsgReauthenticate, result.Message)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, ErrFarmerMismatch.Error(), result.Errors[0])

	assert.Equal(t, 0, h.conn.probeCount())
}

// corruptedCtxMgr возвращает контекст с идентификаторами из пробелов —
// поврежденное состояние, недостижимое через обычный Establish.
type corruptedCtxMgr struct{}

func (corruptedCtxMgr) Validate(requireFarmer bool) tenant.Validation {
	return tenant.Validation{Err: tenant.ErrNoTenant}
}

func (corruptedCtxMgr) Current() tenant.Context {
	return tenant.Context{TenantID: "   ", FarmerID: "   "}
}

func TestPerformSync_WhitespaceIdentifiersRequireReauth(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	engine := New(h.store, h.remote, h.conn, h.auth, corruptedCtxMgr{},
		guard.New(h.mgr, slog.Default()), slog.Default())

	result := engine.PerformSync(ctx, false)
	assert.False(t, result.Success)
	assert.Equal(t, MsgReauthenticate, result.Message)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, ErrInvalidAuthData.Error(), result.Errors[0])
}

func TestPerformSync_NetworkFailureAbortsDownloadPhase(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	local := pendingRecord(t, entity.TypeProfile, 1000)
	require.NoError(t, h.store.BulkSave(ctx, []*entity.Record{local}))

	h.remote.failList = true

	result := h.engine.PerformSync(ctx, false)
	assert.False(t, result.Success)

	// Фаза выгрузки не запускалась: запись осталась pending.
	stored, err := h.store.Get(ctx, local.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, stored.SyncStatus)
}

func TestPerformSync_ForeignRecordAbortsDownload(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	foreign := pendingRecord(t, entity.TypeLandParcel, 1000)
	foreign.TenantID = "tenant-other"
	h.remote.put(foreign)

	result := h.engine.PerformSync(ctx, false)
	assert.False(t, result.Success)

	count, err := h.store.Count(ctx, entity.TypeLandParcel, "tenant-other", testFarmer)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPerformSync_SetsLastSyncTime(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	_, ok := h.engine.LastSyncTime(ctx)
	assert.False(t, ok)

	result := h.engine.PerformSync(ctx, false)
	require.True(t, result.Success)

	ts, ok := h.engine.LastSyncTime(ctx)
	assert.True(t, ok)
	assert.False(t, ts.IsZero())
}
