package farmer

import (
	"encoding/json"
	"time"
)

// Farmer — учетная запись фермера. Фермер всегда принадлежит ровно
// одному арендатору (хозяйству), привязка не меняется после регистрации.
type Farmer struct {
	ID           string
	TenantID     string
	TenantDomain string
	Login        string
	SecretHash   string // hex
	Salt         string // hex
	Profile      json.RawMessage
	CreatedAt    time.Time
}
