package tenant

import (
	"errors"
)

var (
	ErrNoTenant           = errors.New("tenant context not established")
	ErrNoFarmer           = errors.New("farmer not attached to tenant context")
	ErrTenantImmutable    = errors.New("tenant id cannot change without reset")
	ErrContextNotRestored = errors.New("tenant context could not be restored")
)
