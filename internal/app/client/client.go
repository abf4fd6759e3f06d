package client

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	gosync "sync"
	"syscall"
	"time"

	"golang.org/x/exp/slog"

	"agrosync/internal/app/client/config"
	"agrosync/internal/app/client/credcache"
	"agrosync/internal/app/client/facade"
	"agrosync/internal/app/client/guard"
	"agrosync/internal/app/client/remote"
	"agrosync/internal/app/client/store"
	"agrosync/internal/app/client/syncengine"
	"agrosync/internal/app/client/tenantctx"
	"agrosync/internal/domain/entity"
)

// App — агрегат клиента: локальное хранилище, контекст арендатора,
// изоляционный фильтр, фасад данных, движок и планировщик
// синхронизации, кэш учетных данных.
type App struct {
	config    *config.Config
	log       *slog.Logger
	store     *store.Store
	ctxmgr    *tenantctx.Manager
	guard     *guard.Guard
	remote    *remote.Client
	facade    *facade.Facade
	credcache *credcache.Cache
	engine    *syncengine.Engine
	scheduler *syncengine.Scheduler
	session   *sessionStore

	wg     gosync.WaitGroup
	cancel context.CancelFunc
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	st, err := store.New(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации локального хранилища: %w", err)
	}

	ctxmgr := tenantctx.New(st, log)
	g := guard.New(ctxmgr, log)
	session := newSessionStore(cfg.TokenPath, log)
	rc := remote.NewClient(cfg, ctxmgr, log)

	// Токен восстановленной сессии сразу уходит в HTTP-клиент.
	if s := session.current(); s.Token != "" {
		rc.SetToken(s.Token)
	}

	cc := credcache.New(st, rc, &onlineAuthenticator{remote: rc}, log)
	fc := facade.New(st, rc, g, log)
	engine := syncengine.New(st, rc, rc, session, ctxmgr, g, log)
	scheduler := syncengine.NewScheduler(engine, ctxmgr,
		time.Duration(cfg.SyncInterval)*time.Second, log)

	return &App{
		config:    cfg,
		log:       log,
		store:     st,
		ctxmgr:    ctxmgr,
		guard:     g,
		remote:    rc,
		facade:    fc,
		credcache: cc,
		engine:    engine,
		scheduler: scheduler,
		session:   session,
	}, nil
}

// Run запускает планировщик синхронизации и ждет сигнала остановки.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	go a.handleSignals()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.scheduler.Run(ctx)
	}()

	a.log.Info("Клиент запущен",
		"server", a.config.ServerAddress,
		"env", a.config.Env,
	)

	a.wg.Wait()
	return nil
}

func (a *App) handleSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	a.log.Info("Получен сигнал остановки")
	a.Shutdown()
}

// Shutdown останавливает планировщик и закрывает хранилище.
func (a *App) Shutdown() {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if err := a.store.Close(); err != nil {
		a.log.Warn("Ошибка закрытия хранилища", "error", err)
	}
}

// Facade возвращает фасад данных для функционального кода.
func (a *App) Facade() *facade.Facade {
	return a.facade
}

// Tenant возвращает менеджер контекста арендатора.
func (a *App) Tenant() *tenantctx.Manager {
	return a.ctxmgr
}

// Engine возвращает движок синхронизации.
func (a *App) Engine() *syncengine.Engine {
	return a.engine
}

// Scheduler возвращает планировщик синхронизации.
func (a *App) Scheduler() *syncengine.Scheduler {
	return a.scheduler
}

// PerformSync — явный запуск цикла (pull-to-refresh и CLI).
func (a *App) PerformSync(ctx context.Context, showFeedback bool) *syncengine.Result {
	return a.engine.PerformSync(ctx, showFeedback)
}

// IsAuthenticated сообщает, есть ли активная сессия или контекст.
func (a *App) IsAuthenticated() bool {
	return a.session.current().Token != "" || a.ctxmgr.Validate(true).Valid
}

// PendingCount возвращает число локальных изменений, ожидающих
// выгрузки, по всем типам сущностей в текущем контексте.
func (a *App) PendingCount(ctx context.Context) (int, error) {
	cur := a.ctxmgr.Current()
	if cur.TenantID == "" {
		return 0, nil
	}

	total := 0
	for _, typ := range entity.AllTypes() {
		pending, err := a.store.GetPending(ctx, typ, cur.TenantID, cur.FarmerID)
		if err != nil {
			return 0, err
		}
		total += len(pending)
	}
	return total, nil
}

// CheckConnection проверяет соединение с сервером.
func (a *App) CheckConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return a.remote.Health(ctx)
}

// Login аутентифицирует пользователя с офлайн-откатом, устанавливает
// контекст арендатора и сохраняет сессию.
func (a *App) Login(ctx context.Context, farmerID, secret string) (*credcache.AuthResult, error) {
	tenantHint := a.ctxmgr.Current().TenantID

	result, err := a.credcache.AuthenticateWithFallback(ctx, secret, farmerID, tenantHint)
	if err != nil {
		return nil, err
	}

	domain := result.TenantDomain
	if domain == "" {
		domain = a.ctxmgr.Current().Domain
	}
	if err := a.ctxmgr.Establish(ctx, result.TenantID, domain, result.FarmerID); err != nil {
		return nil, fmt.Errorf("ошибка установки контекста арендатора: %w", err)
	}

	if result.Online {
		a.remote.SetToken(result.Token)
		if err := a.session.save(sessionState{
			Token:    result.Token,
			TenantID: result.TenantID,
			FarmerID: result.FarmerID,
		}); err != nil {
			a.log.Warn("Не удалось сохранить сессию", "error", err)
		}
	}

	return result, nil
}

// Logout сбрасывает сессию, контекст арендатора и кэш учетных данных.
func (a *App) Logout(ctx context.Context) error {
	a.remote.SetToken("")

	if err := a.session.clear(); err != nil {
		a.log.Warn("Не удалось удалить сессию", "error", err)
	}
	if err := a.credcache.Clear(ctx); err != nil {
		a.log.Warn("Не удалось очистить кэш учетных данных", "error", err)
	}

	return a.ctxmgr.Clear(ctx)
}

// onlineAuthenticator адаптирует HTTP-клиент к интерфейсу кэша
// учетных данных.
type onlineAuthenticator struct {
	remote *remote.Client
}

func (o *onlineAuthenticator) Authenticate(ctx context.Context, farmerID, secret string) (*credcache.OnlineResult, error) {
	resp, err := o.remote.Login(ctx, remote.LoginRequest{Login: farmerID, Secret: secret})
	if err != nil {
		return nil, err
	}

	return &credcache.OnlineResult{
		Token:        resp.Token,
		TenantID:     resp.TenantID,
		TenantDomain: resp.TenantDomain,
		FarmerID:     resp.FarmerID,
		Profile:      resp.Profile,
	}, nil
}
