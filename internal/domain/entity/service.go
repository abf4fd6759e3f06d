package entity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slog"
)

// Servicer — серверная бизнес-логика над записями. Сервер — авторитет:
// рамки арендатора и правило «последняя запись побеждает» проверяются
// здесь независимо от того, что прислал клиент.
type Servicer interface {
	List(ctx context.Context, scope Scope, typ Type) ([]*Record, error)
	Get(ctx context.Context, scope Scope, typ Type, id string) (*Record, error)
	Insert(ctx context.Context, scope Scope, rec *Record) error
	Update(ctx context.Context, scope Scope, rec *Record) error
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With("component", "entity_service"),
	}
}

func (s *Service) List(ctx context.Context, scope Scope, typ Type) ([]*Record, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}

	return s.repo.List(ctx, scope, typ)
}

func (s *Service) Get(ctx context.Context, scope Scope, typ Type, id string) (*Record, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, scope, typ, id)
}

// Insert сохраняет новую запись. Принадлежность записи обязана совпадать
// с рамками сессии, какие бы поля ни прислал клиент.
func (s *Service) Insert(ctx context.Context, scope Scope, rec *Record) error {
	if err := s.checkRecord(scope, rec); err != nil {
		return err
	}

	rec.SyncStatus = StatusSynced
	return s.repo.Insert(ctx, rec)
}

// Update применяет запись по правилу «последняя запись побеждает»:
// если в хранилище лежит строго более новая версия, обновление
// отклоняется и клиент должен забрать серверную копию.
func (s *Service) Update(ctx context.Context, scope Scope, rec *Record) error {
	if err := s.checkRecord(scope, rec); err != nil {
		return err
	}

	stored, err := s.repo.Get(ctx, scope, rec.Type, rec.ID)
	if err != nil {
		return err
	}

	if stored.LastModified > rec.LastModified {
		s.log.Info("stale update rejected",
			"type", rec.Type, "id", rec.ID,
			"stored", stored.LastModified, "incoming", rec.LastModified)
		return ErrStaleUpdate
	}

	rec.SyncStatus = StatusSynced
	return s.repo.Update(ctx, rec)
}

func (s *Service) checkRecord(scope Scope, rec *Record) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	if rec.ID == "" {
		return errors.New("record id is required")
	}
	if rec.TenantID != scope.TenantID || rec.FarmerID != scope.FarmerID {
		s.log.Warn("record outside session scope",
			"type", rec.Type, "id", rec.ID,
			"record_tenant", rec.TenantID, "session_tenant", scope.TenantID)
		return fmt.Errorf("%w: %s/%s", ErrScopeMismatch, rec.Type, rec.ID)
	}
	return nil
}

func checkScope(scope Scope) error {
	if strings.TrimSpace(scope.TenantID) == "" || strings.TrimSpace(scope.FarmerID) == "" {
		return errors.New("session scope is not resolved")
	}
	return nil
}
