package syncengine

import (
	"context"
	"time"

	"golang.org/x/exp/slog"
)

// Trigger — источник запуска цикла синхронизации.
type Trigger string

const (
	TriggerConnectivity Trigger = "connectivity_restored"
	TriggerForeground   Trigger = "app_foregrounded"
	TriggerPeriodic     Trigger = "periodic"
	TriggerManual       Trigger = "manual"
)

// Scheduler — единственная горутина, владеющая запуском циклов.
// Разрозненные слушатели событий не зовут движок напрямую: они
// шлют триггер в канал, а планировщик прогоняет его через общий
// single-flight и проверку предусловий.
type Scheduler struct {
	engine   *Engine
	ctxmgr   ContextManager
	log      *slog.Logger
	interval time.Duration
	triggers chan Trigger

	// OnResult вызывается после каждого выполненного цикла.
	// Необязателен; используется CLI для обратной связи.
	OnResult func(trigger Trigger, result *Result)
}

func NewScheduler(engine *Engine, ctxmgr ContextManager, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		engine:   engine,
		ctxmgr:   ctxmgr,
		log:      log.With("component", "scheduler"),
		interval: interval,
		triggers: make(chan Trigger, 8),
	}
}

// Notify отправляет триггер планировщику. Никогда не блокирует:
// при переполненном канале триггер отбрасывается — цикл и так уже
// запланирован.
func (s *Scheduler) Notify(trigger Trigger) {
	select {
	case s.triggers <- trigger:
	default:
		s.log.Debug("Триггер отброшен: очередь полна", "trigger", trigger)
	}
}

// Run обрабатывает триггеры до отмены контекста. Периодический тик
// срабатывает только при установленном аутентифицированном контексте,
// иначе логируется отсрочка.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("Планировщик синхронизации запущен", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Планировщик синхронизации остановлен")
			return

		case <-ticker.C:
			if !s.ctxmgr.Validate(true).Valid {
				s.log.Debug("Периодическая синхронизация отложена: нет контекста")
				continue
			}
			s.dispatch(ctx, TriggerPeriodic)

		case trigger := <-s.triggers:
			s.dispatch(ctx, trigger)
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context, trigger Trigger) {
	s.log.Debug("Запуск синхронизации", "trigger", trigger)

	result := s.engine.PerformSync(ctx, trigger == TriggerManual)

	if s.OnResult != nil {
		s.OnResult(trigger, result)
	}
}
