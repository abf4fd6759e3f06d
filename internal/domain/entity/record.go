package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SyncStatus — статус синхронизации записи.
type SyncStatus string

const (
	StatusPending  SyncStatus = "pending"
	StatusSynced   SyncStatus = "synced"
	StatusConflict SyncStatus = "conflict"
)

// Record — универсальный конверт синхронизируемой записи.
// Каждая запись несет идентификаторы арендатора и фермера:
// запись с чужими идентификаторами не должна попадать ни в локальное
// хранилище, ни в сеть.
type Record struct {
	ID           string          `json:"id"`
	TenantID     string          `json:"tenant_id"`
	FarmerID     string          `json:"farmer_id"`
	Type         Type            `json:"type"`
	Payload      json.RawMessage `json:"payload"`
	LastModified int64           `json:"last_modified"` // epoch millis
	SyncStatus   SyncStatus      `json:"sync_status"`
	Deleted      bool            `json:"deleted"`
}

// NewRecord создает новую запись со статусом pending и текущим временем
// модификации. Идентификатор генерируется на клиенте, чтобы запись
// сохраняла его при синхронизации с сервером.
func NewRecord(typ Type, tenantID, farmerID string, payload any) (*Record, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Record{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		FarmerID:     farmerID,
		Type:         typ,
		Payload:      raw,
		LastModified: time.Now().UnixMilli(),
		SyncStatus:   StatusPending,
	}, nil
}

// Touch помечает запись как измененную: статус pending и новое время
// модификации.
func (r *Record) Touch() {
	r.LastModified = time.Now().UnixMilli()
	r.SyncStatus = StatusPending
}

// MarkDeleted выполняет мягкое удаление. Запись остается в хранилище
// со статусом pending, пока удаление не подтвердит сервер, иначе
// следующая загрузка могла бы молча воскресить её.
func (r *Record) MarkDeleted() {
	r.Deleted = true
	r.Touch()
}

// BelongsTo проверяет принадлежность записи арендатору и фермеру.
func (r *Record) BelongsTo(tenantID, farmerID string) bool {
	return r.TenantID == tenantID && r.FarmerID == farmerID
}

// DecodePayload десериализует полезную нагрузку записи в v.
func (r *Record) DecodePayload(v any) error {
	return json.Unmarshal(r.Payload, v)
}
