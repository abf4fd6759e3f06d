package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Ключи таблицы app_state. Небольшое key/value-хранилище переживает
// перезапуск процесса: контекст арендатора и метаданные синхронизации
// восстанавливаются без повторного обращения к серверу.
const (
	StateKeyTenantID      = "tenant_id"
	StateKeyTenantDomain  = "tenant_domain"
	StateKeyFarmerID      = "farmer_id"
	StateKeyEstablishedAt = "established_at"
	StateKeyLastSyncTime  = "last_sync_time"
	StateKeySyncInFlight  = "sync_in_progress"
	StateKeyCredential    = "cached_credential"
)

// GetState возвращает значение ключа. Отсутствие ключа — не ошибка:
// возвращается пустая строка и ok=false.
func (s *Store) GetState(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM app_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("ошибка чтения состояния %s: %w", key, err)
	}

	return value, true, nil
}

// SetState записывает значение ключа.
func (s *Store) SetState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("ошибка записи состояния %s: %w", key, err)
	}

	return nil
}

// DeleteState удаляет ключ. Удаление отсутствующего ключа — не ошибка.
func (s *Store) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM app_state WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("ошибка удаления состояния %s: %w", key, err)
	}

	return nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
