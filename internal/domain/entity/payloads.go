package entity

// Типизированные полезные нагрузки. Общий конверт Record хранит их
// в сериализованном виде, конкретный тип определяется полем Type.

// Profile — профиль фермера.
type Profile struct {
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Village  string `json:"village,omitempty"`
	Language string `json:"language,omitempty"`
}

// GeoPoint — точка границы участка.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LandParcel — земельный участок, нарисованный на карте.
type LandParcel struct {
	Name       string     `json:"name"`
	AreaHa     float64    `json:"area_ha"`
	Crop       string     `json:"crop,omitempty"`
	SoilType   string     `json:"soil_type,omitempty"`
	Boundary   []GeoPoint `json:"boundary,omitempty"`
	Irrigation string     `json:"irrigation,omitempty"`
}

// CropTask — одна задача в расписании работ.
type CropTask struct {
	Title   string `json:"title"`
	DueDate string `json:"due_date"` // YYYY-MM-DD
	Done    bool   `json:"done"`
	Notes   string `json:"notes,omitempty"`
}

// CropSchedule — сгенерированное расписание работ по культуре.
// Сама генерация — внешний коллаборатор, здесь только данные.
type CropSchedule struct {
	ParcelID string     `json:"parcel_id"`
	Crop     string     `json:"crop"`
	Season   string     `json:"season,omitempty"`
	Tasks    []CropTask `json:"tasks,omitempty"`
}

// ChatSession — сводка сессии чата (сам чат вне этого ядра).
type ChatSession struct {
	Title        string `json:"title"`
	StartedAt    int64  `json:"started_at"` // epoch millis
	MessageCount int    `json:"message_count"`
	Summary      string `json:"summary,omitempty"`
}
