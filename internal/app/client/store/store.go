package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"agrosync/internal/domain/entity"
)

// Store — локальное встраиваемое хранилище записей. Источник истины
// в офлайне: все чтения и записи функциональных модулей идут сюда.
type Store struct {
	db *sql.DB
}

// Filter — фильтр запроса к локальному хранилищу. Пустой FarmerID
// допустим только для служебных чтений при начальной загрузке,
// пользовательские данные всегда читаются с фильтром.
type Filter struct {
	TenantID       string
	FarmerID       string
	IncludeDeleted bool
	Limit          int
}

// New открывает базу данных и создает таблицы.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}

	s := &Store{db: db}
	if err := s.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка инициализации таблиц: %w", err)
	}

	return s, nil
}

func (s *Store) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			entity_type TEXT NOT NULL,
			tenant_id TEXT NOT NULL,
			farmer_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			last_modified INTEGER NOT NULL,
			sync_status TEXT NOT NULL DEFAULT 'pending',
			deleted INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_records_type ON records(entity_type);
		CREATE INDEX IF NOT EXISTS idx_records_scope ON records(tenant_id, farmer_id);
		CREATE INDEX IF NOT EXISTS idx_records_status ON records(sync_status);

		CREATE TABLE IF NOT EXISTS app_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)

	return err
}

// Get возвращает запись по идентификатору. Мягко удаленные записи
// не возвращаются.
func (s *Store) Get(ctx context.Context, id string) (*entity.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, entity_type, tenant_id, farmer_id, payload, last_modified, sync_status, deleted
		FROM records
		WHERE id = ? AND deleted = 0
	`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения записи: %w", err)
	}

	return rec, nil
}

// Query возвращает записи указанного типа с учетом фильтра.
func (s *Store) Query(ctx context.Context, typ entity.Type, filter Filter) ([]*entity.Record, error) {
	query := `
		SELECT id, entity_type, tenant_id, farmer_id, payload, last_modified, sync_status, deleted
		FROM records
		WHERE entity_type = ?`
	args := []any{string(typ)}

	if filter.TenantID != "" {
		query += " AND tenant_id = ?"
		args = append(args, filter.TenantID)
	}
	if filter.FarmerID != "" {
		query += " AND farmer_id = ?"
		args = append(args, filter.FarmerID)
	}
	if !filter.IncludeDeleted {
		query += " AND deleted = 0"
	}

	query += " ORDER BY last_modified DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// BulkSave сохраняет пакет записей в одной транзакции: либо весь пакет
// записан, либо ни одной записи. Частично записанный пакет был бы
// невидим при следующем чтении.
func (s *Store) BulkSave(ctx context.Context, records []*entity.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	if err := upsertAll(ctx, tx, records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	return nil
}

// ReplaceAll атомарно заменяет все записи типа typ в рамках арендатора
// и фермера на переданный набор. Очистка и вставка выполняются в одной
// транзакции: параллельное чтение никогда не видит пустую коллекцию.
func (s *Store) ReplaceAll(ctx context.Context, typ entity.Type, tenantID, farmerID string, records []*entity.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM records
		WHERE entity_type = ? AND tenant_id = ? AND farmer_id = ?
	`, string(typ), tenantID, farmerID)
	if err != nil {
		return fmt.Errorf("ошибка очистки записей типа %s: %w", typ, err)
	}

	if err := upsertAll(ctx, tx, records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	return nil
}

func upsertAll(ctx context.Context, tx *sql.Tx, records []*entity.Record) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (id, entity_type, tenant_id, farmer_id, payload, last_modified, sync_status, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			entity_type = excluded.entity_type,
			tenant_id = excluded.tenant_id,
			farmer_id = excluded.farmer_id,
			payload = excluded.payload,
			last_modified = excluded.last_modified,
			sync_status = excluded.sync_status,
			deleted = excluded.deleted
	`)
	if err != nil {
		return fmt.Errorf("ошибка подготовки запроса: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		deleted := 0
		if rec.Deleted {
			deleted = 1
		}
		_, err := stmt.ExecContext(ctx, rec.ID, string(rec.Type), rec.TenantID, rec.FarmerID,
			string(rec.Payload), rec.LastModified, string(rec.SyncStatus), deleted)
		if err != nil {
			return fmt.Errorf("ошибка сохранения записи %s: %w", rec.ID, err)
		}
	}

	return nil
}

// Delete выполняет мягкое удаление: запись помечается удаленной и
// переходит в статус pending, чтобы удаление прошло свой цикл
// синхронизации с сервером.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE records
		SET deleted = 1, sync_status = ?, last_modified = ?
		WHERE id = ?
	`, string(entity.StatusPending), nowMillis(), id)
	if err != nil {
		return fmt.Errorf("ошибка удаления записи: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка удаления записи: %w", err)
	}
	if n == 0 {
		return entity.ErrNotFound
	}

	return nil
}

// GetPending возвращает записи типа typ, ожидающие выгрузки на сервер.
// Мягко удаленные записи включаются: удаление — тоже отложенная мутация.
func (s *Store) GetPending(ctx context.Context, typ entity.Type, tenantID, farmerID string) ([]*entity.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, tenant_id, farmer_id, payload, last_modified, sync_status, deleted
		FROM records
		WHERE entity_type = ? AND tenant_id = ? AND farmer_id = ? AND sync_status = ?
		ORDER BY last_modified ASC
	`, string(typ), tenantID, farmerID, string(entity.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса ожидающих записей: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// MarkSynced помечает запись как синхронизированную.
func (s *Store) MarkSynced(ctx context.Context, typ entity.Type, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE records SET sync_status = ?
		WHERE id = ? AND entity_type = ?
	`, string(entity.StatusSynced), id, string(typ))
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса записи: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса записи: %w", err)
	}
	if n == 0 {
		return entity.ErrNotFound
	}

	return nil
}

// Count возвращает число записей типа typ в рамках арендатора и фермера,
// включая мягко удаленные. Используется для сверки после загрузки.
func (s *Store) Count(ctx context.Context, typ entity.Type, tenantID, farmerID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM records
		WHERE entity_type = ? AND tenant_id = ? AND farmer_id = ?
	`, string(typ), tenantID, farmerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета записей: %w", err)
	}

	return count, nil
}

// Close закрывает базу данных.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*entity.Record, error) {
	var rec entity.Record
	var typ, status, payload string
	var deleted int

	if err := row.Scan(&rec.ID, &typ, &rec.TenantID, &rec.FarmerID, &payload,
		&rec.LastModified, &status, &deleted); err != nil {
		return nil, err
	}

	rec.Type = entity.Type(typ)
	rec.SyncStatus = entity.SyncStatus(status)
	rec.Payload = []byte(payload)
	rec.Deleted = deleted != 0

	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]*entity.Record, error) {
	var records []*entity.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения записей: %w", err)
	}

	return records, nil
}
