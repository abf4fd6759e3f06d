package syncengine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"agrosync/internal/app/client/store"
	"agrosync/internal/domain/entity"
	"agrosync/internal/domain/tenant"
)

// Remote — серверный коллаборатор. По одному контракту на тип сущности.
type Remote interface {
	List(ctx context.Context, typ entity.Type) ([]*entity.Record, error)
	Get(ctx context.Context, typ entity.Type, id string) (*entity.Record, error)
	Insert(ctx context.Context, rec *entity.Record) error
	Update(ctx context.Context, rec *entity.Record) error
}

// Connectivity — сообщает, доступна ли сеть.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// AuthProvider — независимый источник идентификаторов аутентифицированной
// сессии. Внедряется явно: перекрестная проверка с контекстом арендатора
// должна быть тестируемой в изоляции.
type AuthProvider interface {
	CurrentTenantID() string
	CurrentFarmerID() string
}

// ContextManager — менеджер контекста арендатора.
type ContextManager interface {
	Validate(requireFarmer bool) tenant.Validation
	Current() tenant.Context
}

// Verifier — строгая проверка принадлежности записи активному контексту.
type Verifier interface {
	VerifyRecord(rec *entity.Record) error
}

// LocalStore — операции локального хранилища, нужные движку.
type LocalStore interface {
	ReplaceAll(ctx context.Context, typ entity.Type, tenantID, farmerID string, records []*entity.Record) error
	Count(ctx context.Context, typ entity.Type, tenantID, farmerID string) (int, error)
	GetPending(ctx context.Context, typ entity.Type, tenantID, farmerID string) ([]*entity.Record, error)
	BulkSave(ctx context.Context, records []*entity.Record) error
	MarkSynced(ctx context.Context, typ entity.Type, id string) error
	GetState(ctx context.Context, key string) (string, bool, error)
	SetState(ctx context.Context, key, value string) error
	DeleteState(ctx context.Context, key string) error
}

// Engine выполняет полный цикл сверки: загрузка авторитетного состояния,
// выгрузка отложенных мутаций, разрешение конфликтов по времени
// модификации, обновление статусов. Одновременно работает не более
// одного цикла.
type Engine struct {
	store  LocalStore
	remote Remote
	conn   Connectivity
	auth   AuthProvider
	ctxmgr ContextManager
	verify Verifier
	log    *slog.Logger

	mu      sync.Mutex
	syncing bool
}

func New(st LocalStore, remote Remote, conn Connectivity, auth AuthProvider,
	ctxmgr ContextManager, verify Verifier, log *slog.Logger) *Engine {

	e := &Engine{
		store:  st,
		remote: remote,
		conn:   conn,
		auth:   auth,
		ctxmgr: ctxmgr,
		verify: verify,
		log:    log.With("component", "syncengine"),
	}

	// Сброс устойчивого маркера после возможного падения посреди
	// цикла: иначе движок остался бы заклиненным навсегда.
	if err := e.store.DeleteState(context.Background(), store.StateKeySyncInFlight); err != nil {
		e.log.Warn("Не удалось сбросить маркер незавершенной синхронизации", "error", err)
	}

	return e
}

// PerformSync запускает один цикл синхронизации. Повторный вызов во
// время работающего цикла немедленно возвращает неуспешный результат
// без единого сетевого вызова. showFeedback пробрасывается вызывающему
// через детализацию результата и логирование.
func (e *Engine) PerformSync(ctx context.Context, showFeedback bool) *Result {
	result := newResult()

	if !e.acquire(ctx) {
		result.Errors = append(result.Errors, ErrSyncInProgress.Error())
		return result.finish(false, MsgAlreadyInProgress)
	}
	defer e.release(ctx)

	v, err := e.checkPreconditions(ctx)
	if err != nil {
		return e.failedPreconditions(result, err)
	}

	e.log.Info("Начало цикла синхронизации",
		"tenant_id", v.TenantID, "farmer_id", v.FarmerID, "feedback", showFeedback)

	// Фаза загрузки: для каждого типа сущности полный авторитетный
	// набор замещает локальные копии. Любой сбой сети или сверки
	// прерывает весь цикл: частично загруженное состояние небезопасно.
	for _, typ := range entity.AllTypes() {
		if err := e.downloadType(ctx, typ, v, result); err != nil {
			e.log.Error("Фаза загрузки прервана", "type", typ, "error", err)
			return result.finish(false, fmt.Sprintf("download failed for %s: %v", typ, err))
		}
	}

	// Фаза выгрузки: отложенные мутации по одной. Ошибка одной записи
	// не останавливает остальные.
	for _, typ := range entity.AllTypes() {
		e.uploadType(ctx, typ, v, result)
	}

	if len(result.Errors) > 0 {
		return result.finish(false, MsgCompletedWithErrs)
	}

	if err := e.store.SetState(ctx, store.StateKeyLastSyncTime,
		time.Now().Format(time.RFC3339)); err != nil {
		e.log.Warn("Не удалось сохранить время последней синхронизации", "error", err)
	}

	e.log.Info("Цикл синхронизации завершен",
		"downloaded", result.Downloaded,
		"uploaded", result.Uploaded,
		"conflicts", len(result.Conflicts),
		"duration", time.Since(result.StartTime))

	return result.finish(true, MsgCompleted)
}

// acquire атомарно занимает цикл: флаг в памяти плюс устойчивый маркер.
func (e *Engine) acquire(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.syncing {
		return false
	}

	if marker, ok, err := e.store.GetState(ctx, store.StateKeySyncInFlight); err == nil && ok && marker == "1" {
		return false
	}

	e.syncing = true
	if err := e.store.SetState(ctx, store.StateKeySyncInFlight, "1"); err != nil {
		e.log.Warn("Не удалось записать маркер синхронизации", "error", err)
	}

	return true
}

func (e *Engine) release(ctx context.Context) {
	e.mu.Lock()
	e.syncing = false
	e.mu.Unlock()

	if err := e.store.DeleteState(ctx, store.StateKeySyncInFlight); err != nil {
		e.log.Warn("Не удалось снять маркер синхронизации", "error", err)
	}
}

// checkPreconditions — строгая проверка перед циклом. В отличие от
// мягкого пути чтения, здесь любое несоответствие закрывает цикл.
func (e *Engine) checkPreconditions(ctx context.Context) (tenant.Validation, error) {
	// Контекст проверяется до пробы связности: при пустых
	// идентификаторах цикл не делает ни одного сетевого вызова.
	v := e.ctxmgr.Validate(true)
	if !v.Valid {
		cur := e.ctxmgr.Current()
		// Непустые, но состоящие из пробелов идентификаторы —
		// поврежденное состояние, а не просто отсутствие контекста.
		if (cur.TenantID != "" && strings.TrimSpace(cur.TenantID) == "") ||
			(cur.FarmerID != "" && strings.TrimSpace(cur.FarmerID) == "") {
			return v, ErrInvalidAuthData
		}
		return v, fmt.Errorf("%w: %v", ErrMissingContext, v.Err)
	}

	// Перекрестная проверка с независимым источником: несовпадение
	// арендаторов — нарушение безопасности, без молчаливых повторов.
	sessionTenant := strings.TrimSpace(e.auth.CurrentTenantID())
	if sessionTenant == "" {
		return v, fmt.Errorf("%w: session has no tenant", ErrMissingContext)
	}
	if sessionTenant != v.TenantID {
		e.log.Error("НАРУШЕНИЕ БЕЗОПАСНОСТИ: несовпадение арендаторов",
			"context_tenant", v.TenantID, "session_tenant", sessionTenant)
		return v, ErrTenantMismatch
	}

	// Фермер сверяется так же: сессия чужого фермера поверх
	// локального контекста закрывает цикл до единого сетевого вызова.
	if sessionFarmer := strings.TrimSpace(e.auth.CurrentFarmerID()); sessionFarmer != "" && sessionFarmer != v.FarmerID {
		e.log.Error("НАРУШЕНИЕ БЕЗОПАСНОСТИ: несовпадение фермеров",
			"context_farmer", v.FarmerID, "session_farmer", sessionFarmer)
		return v, ErrFarmerMismatch
	}

	if !e.conn.Online(ctx) {
		return v, ErrNoConnectivity
	}

	return v, nil
}

func (e *Engine) failedPreconditions(result *Result, err error) *Result {
	switch {
	case errors.Is(err, ErrNoConnectivity):
		e.log.Debug("Синхронизация отложена: нет связи")
		return result.finish(false, MsgOffline)
	case errors.Is(err, ErrTenantMismatch) || errors.Is(err, ErrFarmerMismatch):
		// Пользователь не видит деталей нарушения, только общий
		// призыв заново войти.
		result.Errors = append(result.Errors, err.Error())
		return result.finish(false, MsgReauthenticate)
	case errors.Is(err, ErrInvalidAuthData):
		result.Errors = append(result.Errors, ErrInvalidAuthData.Error())
		return result.finish(false, MsgReauthenticate)
	default:
		e.log.Debug("Синхронизация отложена", "reason", err)
		return result.finish(false, MsgMissingContext)
	}
}

// downloadType загружает авторитетный набор одного типа и атомарно
// замещает им локальное состояние. Отложенные локальные записи
// переживают замену, если сервер не строго новее: их выгрузит фаза
// выгрузки. Строго более новая серверная копия побеждает сразу,
// конфликт фиксируется как server_win.
func (e *Engine) downloadType(ctx context.Context, typ entity.Type, v tenant.Validation, result *Result) error {
	serverRecords, err := e.remote.List(ctx, typ)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}

	// Ни одна запись с чужими идентификаторами не попадает в хранилище.
	for _, rec := range serverRecords {
		if err := e.verify.VerifyRecord(rec); err != nil {
			return err
		}
		rec.SyncStatus = entity.StatusSynced
	}

	pending, err := e.store.GetPending(ctx, typ, v.TenantID, v.FarmerID)
	if err != nil {
		return fmt.Errorf("чтение отложенных записей: %w", err)
	}

	pendingByID := make(map[string]*entity.Record, len(pending))
	for _, rec := range pending {
		pendingByID[rec.ID] = rec
	}

	finalSet := make([]*entity.Record, 0, len(serverRecords)+len(pending))
	for _, serverRec := range serverRecords {
		local, isPending := pendingByID[serverRec.ID]
		if isPending {
			if serverRec.LastModified > local.LastModified {
				// Сервер строго новее: локальная правка проигрывает
				// целиком (last-write-wins, без слияния полей).
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:       typ,
					ID:         serverRec.ID,
					Resolution: ResolutionServerWin,
				})
				delete(pendingByID, serverRec.ID)
				finalSet = append(finalSet, serverRec)
			}
			// Иначе локальная отложенная копия переживает загрузку
			// и уйдет на сервер в фазе выгрузки.
			continue
		}
		finalSet = append(finalSet, serverRec)
	}

	for _, rec := range pending {
		if _, survived := pendingByID[rec.ID]; survived {
			finalSet = append(finalSet, rec)
		}
	}

	if err := e.store.ReplaceAll(ctx, typ, v.TenantID, v.FarmerID, finalSet); err != nil {
		return fmt.Errorf("замена записей типа %s: %w", typ, err)
	}

	// Сверка: повторное чтение должно дать ровно столько записей,
	// сколько было сохранено.
	count, err := e.store.Count(ctx, typ, v.TenantID, v.FarmerID)
	if err != nil {
		return fmt.Errorf("сверка записей типа %s: %w", typ, err)
	}
	if count != len(finalSet) {
		return fmt.Errorf("%w: type=%s stored=%d counted=%d",
			ErrVerificationMismatch, typ, len(finalSet), count)
	}

	result.Downloaded += len(serverRecords)
	return nil
}

// uploadType выгружает отложенные мутации одного типа. Ошибки
// отдельных записей копятся в результате, пакет продолжается.
func (e *Engine) uploadType(ctx context.Context, typ entity.Type, v tenant.Validation, result *Result) {
	pending, err := e.store.GetPending(ctx, typ, v.TenantID, v.FarmerID)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("%s: pending read failed: %v", typ, err))
		return
	}

	for _, rec := range pending {
		if err := e.uploadRecord(ctx, typ, rec, result); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s %s: %v", typ, rec.ID, err))
			e.log.Warn("Запись не выгружена", "type", typ, "id", rec.ID, "error", err)
		}
	}
}

func (e *Engine) uploadRecord(ctx context.Context, typ entity.Type, rec *entity.Record, result *Result) error {
	// Запись вне активного контекста никогда не передается.
	if err := e.verify.VerifyRecord(rec); err != nil {
		return err
	}

	remoteRec, err := e.remote.Get(ctx, typ, rec.ID)
	switch {
	case errors.Is(err, entity.ErrNotFound):
		if err := e.remote.Insert(ctx, rec); err != nil {
			return fmt.Errorf("%w: insert: %v", ErrNetworkFailure, err)
		}
	case err != nil:
		return fmt.Errorf("%w: lookup: %v", ErrNetworkFailure, err)
	case remoteRec.LastModified > rec.LastModified:
		// Сервер строго новее: не выгружаем, серверная копия
		// замещает локальную.
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:       typ,
			ID:         rec.ID,
			Resolution: ResolutionServerWin,
		})
		remoteRec.SyncStatus = entity.StatusSynced
		if err := e.store.BulkSave(ctx, []*entity.Record{remoteRec}); err != nil {
			return fmt.Errorf("применение серверной копии: %w", err)
		}
		return nil
	default:
		if err := e.remote.Update(ctx, rec); err != nil {
			return fmt.Errorf("%w: update: %v", ErrNetworkFailure, err)
		}
	}

	if err := e.store.MarkSynced(ctx, typ, rec.ID); err != nil {
		return fmt.Errorf("отметка синхронизации: %w", err)
	}

	result.Uploaded++
	return nil
}

// IsSyncing сообщает, выполняется ли цикл сейчас.
func (e *Engine) IsSyncing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncing
}

// LastSyncTime возвращает сохраненное время последней успешной
// синхронизации.
func (e *Engine) LastSyncTime(ctx context.Context) (time.Time, bool) {
	raw, ok, err := e.store.GetState(ctx, store.StateKeyLastSyncTime)
	if err != nil || !ok {
		return time.Time{}, false
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}
