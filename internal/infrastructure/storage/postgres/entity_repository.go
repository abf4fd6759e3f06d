package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"agrosync/internal/app/server/crypto"
	"agrosync/internal/domain/entity"
)

// EntityRepository — авторитетное хранилище записей. Полезная нагрузка
// шифруется перед записью в БД и расшифровывается при чтении.
type EntityRepository struct {
	pool      *pgxpool.Pool
	encryptor *crypto.PayloadEncryptor
	log       *slog.Logger
}

func NewEntityRepository(pool *pgxpool.Pool, encryptor *crypto.PayloadEncryptor, log *slog.Logger) *EntityRepository {
	return &EntityRepository{
		pool:      pool,
		encryptor: encryptor,
		log:       log.With("component", "entity_repository"),
	}
}

// List возвращает все записи типа в рамках, включая мягко удаленные:
// клиент должен узнавать об удалениях при полной загрузке.
func (r *EntityRepository) List(ctx context.Context, scope entity.Scope, typ entity.Type) ([]*entity.Record, error) {
	const query = `
		SELECT id, tenant_id, farmer_id, entity_type, payload, last_modified, deleted
		FROM entities
		WHERE tenant_id = $1 AND farmer_id = $2 AND entity_type = $3
		ORDER BY last_modified DESC`

	rows, err := r.pool.Query(ctx, query, scope.TenantID, scope.FarmerID, typ.String())
	if err != nil {
		r.log.Error("failed to list entities", "type", typ, "error", err)
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

func (r *EntityRepository) Get(ctx context.Context, scope entity.Scope, typ entity.Type, id string) (*entity.Record, error) {
	const query = `
		SELECT id, tenant_id, farmer_id, entity_type, payload, last_modified, deleted
		FROM entities
		WHERE id = $1 AND tenant_id = $2 AND farmer_id = $3 AND entity_type = $4`

	row := r.pool.QueryRow(ctx, query, id, scope.TenantID, scope.FarmerID, typ.String())

	rec, err := r.scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrNotFound
		}
		r.log.Error("failed to get entity", "id", id, "error", err)
		return nil, fmt.Errorf("get entity: %w", err)
	}

	return rec, nil
}

func (r *EntityRepository) Insert(ctx context.Context, rec *entity.Record) error {
	const query = `
		INSERT INTO entities (id, tenant_id, farmer_id, entity_type, payload, last_modified, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	payload, err := r.encryptor.Encrypt(rec.Payload)
	if err != nil {
		return fmt.Errorf("encrypt payload: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		rec.ID, rec.TenantID, rec.FarmerID, rec.Type.String(),
		payload, rec.LastModified, rec.Deleted)
	if err != nil {
		r.log.Error("failed to insert entity", "id", rec.ID, "type", rec.Type, "error", err)
		return fmt.Errorf("insert entity: %w", err)
	}

	return nil
}

func (r *EntityRepository) Update(ctx context.Context, rec *entity.Record) error {
	const query = `
		UPDATE entities
		SET payload = $1, last_modified = $2, deleted = $3, updated_at = NOW()
		WHERE id = $4 AND tenant_id = $5 AND farmer_id = $6`

	payload, err := r.encryptor.Encrypt(rec.Payload)
	if err != nil {
		return fmt.Errorf("encrypt payload: %w", err)
	}

	result, err := r.pool.Exec(ctx, query,
		payload, rec.LastModified, rec.Deleted,
		rec.ID, rec.TenantID, rec.FarmerID)
	if err != nil {
		r.log.Error("failed to update entity", "id", rec.ID, "error", err)
		return fmt.Errorf("update entity: %w", err)
	}

	if result.RowsAffected() == 0 {
		return entity.ErrNotFound
	}

	return nil
}

func (r *EntityRepository) scanRecords(rows pgx.Rows) ([]*entity.Record, error) {
	var records []*entity.Record

	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *EntityRepository) scanRecord(row pgx.Row) (*entity.Record, error) {
	var rec entity.Record
	var typ string
	var payload []byte

	err := row.Scan(&rec.ID, &rec.TenantID, &rec.FarmerID, &typ,
		&payload, &rec.LastModified, &rec.Deleted)
	if err != nil {
		return nil, err
	}

	rec.Type = entity.Type(typ)
	rec.SyncStatus = entity.StatusSynced

	rec.Payload, err = r.encryptor.Decrypt(payload)
	if err != nil {
		return nil, fmt.Errorf("decrypt payload: %w", err)
	}

	return &rec, nil
}
