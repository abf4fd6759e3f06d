package guard

import (
	"fmt"

	"golang.org/x/exp/slog"

	"agrosync/internal/app/client/store"
	"agrosync/internal/domain/entity"
	"agrosync/internal/domain/tenant"
)

// ContextSource — источник активного контекста арендатора.
type ContextSource interface {
	Validate(requireFarmer bool) tenant.Validation
}

// Guard накладывает изоляцию арендатора и фермера на все локальные
// чтения и записи. Путь чтения мягкий (предупреждение в лог, запрос
// не ломается — интерфейс должен оставаться отзывчивым), путь
// синхронизации использует строгий VerifyRecord.
type Guard struct {
	source ContextSource
	log    *slog.Logger
}

// FilterOptions — опции наложения фильтра.
type FilterOptions struct {
	// SkipFarmer оставляет запрос в рамках арендатора без фильтра
	// по фермеру. Допустимо только для служебных чтений.
	SkipFarmer bool
}

func New(source ContextSource, log *slog.Logger) *Guard {
	return &Guard{
		source: source,
		log:    log.With("component", "guard"),
	}
}

// ApplyFilter проставляет идентификаторы арендатора и фермера в фильтр
// запроса. Без установленного арендатора фильтр возвращается без
// изменений с предупреждением в лог.
func (g *Guard) ApplyFilter(f store.Filter, opts FilterOptions) store.Filter {
	v := g.source.Validate(!opts.SkipFarmer)
	if v.TenantID == "" {
		g.log.Warn("Фильтр изоляции не применен: контекст арендатора не установлен")
		return f
	}

	f.TenantID = v.TenantID
	if !opts.SkipFarmer {
		if v.FarmerID == "" {
			g.log.Warn("Фильтр изоляции без фермера: фермер не присоединен")
		}
		f.FarmerID = v.FarmerID
	}

	return f
}

// EnrichForInsert проставляет идентификаторы арендатора и фермера на
// исходящие записи. Неполный контекст не останавливает запись, но
// фиксируется как риск целостности данных. Путь синхронизации этим
// методом не пользуется.
func (g *Guard) EnrichForInsert(records ...*entity.Record) {
	v := g.source.Validate(true)
	if v.TenantID == "" || v.FarmerID == "" {
		g.log.Warn("Риск целостности данных: запись без полного контекста арендатора",
			"tenant_id", v.TenantID, "farmer_id", v.FarmerID)
	}

	for _, rec := range records {
		if v.TenantID != "" {
			rec.TenantID = v.TenantID
		}
		if v.FarmerID != "" {
			rec.FarmerID = v.FarmerID
		}
	}
}

// VerifyRecord — строгая проверка для пути синхронизации: запись,
// чьи идентификаторы не совпадают с активным контекстом, не должна
// быть ни сохранена локально, ни отправлена на сервер.
func (g *Guard) VerifyRecord(rec *entity.Record) error {
	v := g.source.Validate(true)
	if !v.Valid {
		return v.Err
	}

	if !rec.BelongsTo(v.TenantID, v.FarmerID) {
		return fmt.Errorf("%w: запись %s (tenant=%s farmer=%s)",
			entity.ErrScopeMismatch, rec.ID, rec.TenantID, rec.FarmerID)
	}

	return nil
}
