package entity

import "fmt"

// Type — тип синхронизируемой сущности.
type Type string

const (
	TypeProfile      Type = "profile"
	TypeLandParcel   Type = "land_parcel"
	TypeCropSchedule Type = "crop_schedule"
	TypeChatSession  Type = "chat_session"
)

// AllTypes возвращает все типы сущностей в фиксированном порядке.
// Этот порядок использует движок синхронизации при обходе типов.
func AllTypes() []Type {
	return []Type{TypeProfile, TypeLandParcel, TypeCropSchedule, TypeChatSession}
}

// ParseType проверяет строку и возвращает тип сущности.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeProfile, TypeLandParcel, TypeCropSchedule, TypeChatSession:
		return Type(s), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownType, s)
	}
}

func (t Type) String() string {
	return string(t)
}
