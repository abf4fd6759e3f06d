package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"agrosync/internal/domain/session"
)

type SessionRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewSessionRepository(pool *pgxpool.Pool, log *slog.Logger) *SessionRepository {
	return &SessionRepository{
		pool: pool,
		log:  log.With("component", "session_repository"),
	}
}

func (r *SessionRepository) Create(ctx context.Context, id session.Identity, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (tenant_id, farmer_id, token_hash, expires_at)
         VALUES ($1, $2, decode($3, 'hex'), $4)`,
		id.TenantID, id.FarmerID, tokenHash, expiresAt)
	return err
}

func (r *SessionRepository) Validate(ctx context.Context, tokenHash string) (session.Identity, error) {
	var id session.Identity
	err := r.pool.QueryRow(ctx,
		`SELECT tenant_id, farmer_id FROM sessions
         WHERE token_hash = decode($1, 'hex') AND expires_at > NOW()`,
		tokenHash).Scan(&id.TenantID, &id.FarmerID)
	if err != nil {
		return session.Identity{}, session.ErrInvalidSession
	}

	return id, nil
}
