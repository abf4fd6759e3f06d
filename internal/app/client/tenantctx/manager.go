package tenantctx

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"agrosync/internal/app/client/store"
	"agrosync/internal/domain/tenant"
)

// StateStore — key/value-хранилище, переживающее перезапуск процесса.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool, error)
	SetState(ctx context.Context, key, value string) error
	DeleteState(ctx context.Context, key string) error
}

// Manager владеет контекстом арендатора. Контекст не глобальный:
// менеджер внедряется в движок синхронизации и изоляционный фильтр
// явно, что позволяет детерминированно тестировать их по отдельности.
type Manager struct {
	state StateStore
	log   *slog.Logger

	mu  sync.RWMutex
	ctx tenant.Context
}

// New создает менеджер и восстанавливает сохраненный контекст,
// если он есть.
func New(state StateStore, log *slog.Logger) *Manager {
	m := &Manager{
		state: state,
		log:   log.With("component", "tenantctx"),
	}

	if err := m.restore(context.Background()); err != nil {
		m.log.Warn("Не удалось восстановить контекст арендатора", "error", err)
	}

	return m
}

// Establish устанавливает контекст арендатора и сохраняет его.
// Установленный TenantID неизменяем до полного сброса.
func (m *Manager) Establish(ctx context.Context, tenantID, domain, farmerID string) error {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return tenant.ErrNoTenant
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx.IsEstablished() && m.ctx.TenantID != tenantID {
		return tenant.ErrTenantImmutable
	}

	m.ctx = tenant.Context{
		TenantID:      tenantID,
		Domain:        strings.TrimSpace(domain),
		FarmerID:      strings.TrimSpace(farmerID),
		EstablishedAt: time.Now(),
	}

	return m.persist(ctx)
}

// AttachFarmer присоединяет фермера к уже установленному контексту.
// Если контекста нет — предупреждение в лог и выход без ошибки:
// вызывающий обязан перепроверить контекст перед синхронизацией.
func (m *Manager) AttachFarmer(ctx context.Context, farmerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ctx.IsEstablished() {
		m.log.Warn("Попытка присоединить фермера без контекста арендатора",
			"farmer_id", farmerID)
		return nil
	}

	m.ctx.FarmerID = strings.TrimSpace(farmerID)
	return m.persist(ctx)
}

// Validate проверяет текущий контекст. Никогда не паникует.
func (m *Manager) Validate(requireFarmer bool) tenant.Validation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ctx.Validate(requireFarmer)
}

// Current возвращает копию текущего контекста.
func (m *Manager) Current() tenant.Context {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ctx
}

// Clear сбрасывает контекст в памяти и в хранилище (logout).
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ctx = tenant.Context{}

	for _, key := range []string{
		store.StateKeyTenantID,
		store.StateKeyTenantDomain,
		store.StateKeyFarmerID,
		store.StateKeyEstablishedAt,
	} {
		if err := m.state.DeleteState(ctx, key); err != nil {
			return err
		}
	}

	return nil
}

func (m *Manager) persist(ctx context.Context) error {
	pairs := map[string]string{
		store.StateKeyTenantID:      m.ctx.TenantID,
		store.StateKeyTenantDomain:  m.ctx.Domain,
		store.StateKeyFarmerID:      m.ctx.FarmerID,
		store.StateKeyEstablishedAt: m.ctx.EstablishedAt.Format(time.RFC3339),
	}

	for key, value := range pairs {
		if err := m.state.SetState(ctx, key, value); err != nil {
			return err
		}
	}

	return nil
}

func (m *Manager) restore(ctx context.Context) error {
	tenantID, ok, err := m.state.GetState(ctx, store.StateKeyTenantID)
	if err != nil {
		return fmt.Errorf("%w: %v", tenant.ErrContextNotRestored, err)
	}
	if !ok || strings.TrimSpace(tenantID) == "" {
		return nil
	}

	domain, _, err := m.state.GetState(ctx, store.StateKeyTenantDomain)
	if err != nil {
		return fmt.Errorf("%w: %v", tenant.ErrContextNotRestored, err)
	}
	farmerID, _, err := m.state.GetState(ctx, store.StateKeyFarmerID)
	if err != nil {
		return fmt.Errorf("%w: %v", tenant.ErrContextNotRestored, err)
	}

	establishedAt := time.Now()
	if raw, ok, err := m.state.GetState(ctx, store.StateKeyEstablishedAt); err == nil && ok {
		if parsed, perr := time.Parse(time.RFC3339, raw); perr == nil {
			establishedAt = parsed
		}
	}

	m.mu.Lock()
	m.ctx = tenant.Context{
		TenantID:      tenantID,
		Domain:        domain,
		FarmerID:      farmerID,
		EstablishedAt: establishedAt,
	}
	m.mu.Unlock()

	m.log.Debug("Контекст арендатора восстановлен",
		"tenant_id", tenantID, "farmer_id", farmerID)

	return nil
}
