package entity

import (
	"context"
)

// Scope — принадлежность запроса, разрешенная сервером из сессии.
// Все обращения к авторитетному хранилищу идут строго в этих рамках.
type Scope struct {
	TenantID string
	FarmerID string
}

// Repository — авторитетное серверное хранилище записей.
type Repository interface {
	List(ctx context.Context, scope Scope, typ Type) ([]*Record, error)
	Get(ctx context.Context, scope Scope, typ Type, id string) (*Record, error)
	Insert(ctx context.Context, rec *Record) error
	Update(ctx context.Context, rec *Record) error
}
