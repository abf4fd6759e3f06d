package facade

import (
	"context"

	"golang.org/x/exp/slog"

	"agrosync/internal/app/client/guard"
	"agrosync/internal/app/client/store"
	"agrosync/internal/domain/entity"
)

// Remote — подмножество серверного контракта, нужное фасаду.
type Remote interface {
	List(ctx context.Context, typ entity.Type) ([]*entity.Record, error)
	Insert(ctx context.Context, rec *entity.Record) error
	Update(ctx context.Context, rec *entity.Record) error
	Get(ctx context.Context, typ entity.Type, id string) (*entity.Record, error)
	Online(ctx context.Context) bool
}

// LocalStore — операции локального хранилища, нужные фасаду.
type LocalStore interface {
	Query(ctx context.Context, typ entity.Type, filter store.Filter) ([]*entity.Record, error)
	Get(ctx context.Context, id string) (*entity.Record, error)
	BulkSave(ctx context.Context, records []*entity.Record) error
	Delete(ctx context.Context, id string) error
}

// Facade — единая поверхность чтения и записи для функционального кода.
// Чтение предпочитает сеть и откатывается на локальное хранилище;
// запись всегда сначала локальная, сеть — по возможности. Ничто здесь
// не падает только из-за недоступной сети.
type Facade struct {
	store  LocalStore
	remote Remote
	guard  *guard.Guard
	log    *slog.Logger
}

func New(st LocalStore, remote Remote, g *guard.Guard, log *slog.Logger) *Facade {
	return &Facade{
		store:  st,
		remote: remote,
		guard:  g,
		log:    log.With("component", "facade"),
	}
}

// Fetch возвращает записи типа typ. При доступной сети берет
// авторитетный набор с сервера и попутно сохраняет его локально;
// любой сетевой сбой деградирует до локального чтения. Вызывающему
// отдаются только записи, прошедшие проверку принадлежности: ответу
// сервера здесь не доверяют.
func (f *Facade) Fetch(ctx context.Context, typ entity.Type) ([]*entity.Record, error) {
	if f.remote.Online(ctx) {
		records, err := f.remote.List(ctx, typ)
		if err == nil {
			return f.cacheLocally(ctx, records), nil
		}
		f.log.Debug("Удаленное чтение не удалось, переходим на локальное",
			"type", typ, "error", err)
	}

	filter := f.guard.ApplyFilter(store.Filter{}, guard.FilterOptions{})
	return f.store.Query(ctx, typ, filter)
}

// Get возвращает одну запись, предпочитая локальное хранилище:
// оно источник истины для интерфейса.
func (f *Facade) Get(ctx context.Context, id string) (*entity.Record, error) {
	return f.store.Get(ctx, id)
}

// Save записывает запись: сначала локально со статусом pending, чтобы
// интерфейс обновился сразу, затем по возможности на сервер. Сетевой
// сбой проглатывается — запись подберет следующий цикл синхронизации.
func (f *Facade) Save(ctx context.Context, rec *entity.Record) error {
	f.guard.EnrichForInsert(rec)
	rec.Touch()

	if err := f.store.BulkSave(ctx, []*entity.Record{rec}); err != nil {
		return err
	}

	f.tryRemoteUpsert(ctx, rec)
	return nil
}

// Remove выполняет мягкое удаление: отложенная мутация со своим
// циклом синхронизации, а не жесткое локальное удаление, которое
// могла бы молча воскресить следующая загрузка.
func (f *Facade) Remove(ctx context.Context, id string) error {
	return f.store.Delete(ctx, id)
}

// cacheLocally сохраняет серверные записи в локальное хранилище и
// возвращает прошедшие проверку: запись вне активного контекста не
// попадает ни в кэш, ни в представление вызывающего. Ошибка
// кэширования не мешает вернуть данные.
func (f *Facade) cacheLocally(ctx context.Context, records []*entity.Record) []*entity.Record {
	verified := make([]*entity.Record, 0, len(records))
	for _, rec := range records {
		if err := f.guard.VerifyRecord(rec); err != nil {
			f.log.Warn("Серверная запись вне контекста отброшена",
				"id", rec.ID, "error", err)
			continue
		}
		rec.SyncStatus = entity.StatusSynced
		verified = append(verified, rec)
	}

	if len(verified) > 0 {
		if err := f.store.BulkSave(ctx, verified); err != nil {
			f.log.Warn("Не удалось кэшировать серверные записи", "error", err)
		}
	}

	return verified
}

func (f *Facade) tryRemoteUpsert(ctx context.Context, rec *entity.Record) {
	if !f.remote.Online(ctx) {
		return
	}

	_, err := f.remote.Get(ctx, rec.Type, rec.ID)
	switch {
	case err == nil:
		err = f.remote.Update(ctx, rec)
	default:
		err = f.remote.Insert(ctx, rec)
	}

	if err != nil {
		// Запись остается pending, её выгрузит движок синхронизации.
		f.log.Debug("Фоновая запись на сервер не удалась", "id", rec.ID, "error", err)
	}
}
