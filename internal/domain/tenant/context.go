package tenant

import (
	"strings"
	"time"
)

// Context — установленный контекст арендатора и фермера.
// TenantID после установки не меняется до полного сброса (logout);
// FarmerID может быть присоединен позже, после аутентификации.
type Context struct {
	TenantID      string    `json:"tenant_id"`
	Domain        string    `json:"domain"`
	FarmerID      string    `json:"farmer_id,omitempty"`
	EstablishedAt time.Time `json:"established_at"`
}

// Validation — результат проверки контекста. Проверка никогда не
// паникует и не возвращает ошибку наружу: вызывающий ветвится по полям.
type Validation struct {
	Valid    bool
	TenantID string
	FarmerID string
	Err      error
}

// Validate проверяет полноту контекста. Пустые после обрезки пробелов
// идентификаторы считаются отсутствующими.
func (c *Context) Validate(requireFarmer bool) Validation {
	tenantID := strings.TrimSpace(c.TenantID)
	if tenantID == "" {
		return Validation{Err: ErrNoTenant}
	}

	farmerID := strings.TrimSpace(c.FarmerID)
	if requireFarmer && farmerID == "" {
		return Validation{TenantID: tenantID, Err: ErrNoFarmer}
	}

	return Validation{
		Valid:    true,
		TenantID: tenantID,
		FarmerID: farmerID,
	}
}

// IsEstablished сообщает, установлен ли контекст арендатора.
func (c *Context) IsEstablished() bool {
	return strings.TrimSpace(c.TenantID) != ""
}
