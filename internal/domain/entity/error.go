package entity

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrUnknownType   = errors.New("unknown entity type")
	ErrStaleUpdate   = errors.New("stored record is newer")
	ErrScopeMismatch = errors.New("record is outside tenant scope")
)
