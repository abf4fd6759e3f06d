package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"agrosync/internal/domain/farmer"
)

type FarmerRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewFarmerRepository(pool *pgxpool.Pool, log *slog.Logger) *FarmerRepository {
	return &FarmerRepository{
		pool: pool,
		log:  log.With("component", "farmer_repository"),
	}
}

func (r *FarmerRepository) Create(ctx context.Context, f *farmer.Farmer) error {
	const query = `
		INSERT INTO farmers (id, tenant_id, tenant_domain, login, secret_hash, salt, profile, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		f.ID, f.TenantID, f.TenantDomain, f.Login,
		f.SecretHash, f.Salt, f.Profile, f.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return farmer.ErrLoginTaken
		}
		r.log.Error("failed to create farmer", "login", f.Login, "error", err)
		return fmt.Errorf("create farmer: %w", err)
	}

	return nil
}

func (r *FarmerRepository) FindByLogin(ctx context.Context, login string) (farmer.Farmer, error) {
	const query = `
		SELECT id, tenant_id, tenant_domain, login, secret_hash, salt, profile, created_at
		FROM farmers
		WHERE login = $1`

	var f farmer.Farmer
	err := r.pool.QueryRow(ctx, query, login).Scan(
		&f.ID, &f.TenantID, &f.TenantDomain, &f.Login,
		&f.SecretHash, &f.Salt, &f.Profile, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return f, farmer.ErrNotFound
		}
		return f, fmt.Errorf("find farmer: %w", err)
	}

	return f, nil
}
