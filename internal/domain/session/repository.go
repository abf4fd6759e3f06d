package session

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, id Identity, tokenHash string, expiresAt time.Time) error
	Validate(ctx context.Context, tokenHash string) (Identity, error)
}
