package farmer

import "errors"

var (
	ErrNotFound     = errors.New("farmer not found")
	ErrInvalidAuth  = errors.New("invalid credentials")
	ErrInvalidInput = errors.New("invalid input")
	ErrLoginTaken   = errors.New("login already registered")
)
