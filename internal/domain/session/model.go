package session

// Identity — разрешенная принадлежность сессии. Именно с этой парой
// сверяются заголовки изоляции каждого запроса.
type Identity struct {
	TenantID string
	FarmerID string
}
