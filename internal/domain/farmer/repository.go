package farmer

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, f *Farmer) error
	FindByLogin(ctx context.Context, login string) (Farmer, error)
}
