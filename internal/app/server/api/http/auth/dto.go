package auth

import "encoding/json"

type registerInput struct {
	Body RegisterRequest
}

type registerOutput struct {
	Body RegisterResponse
}

// RegisterRequest — заявка на регистрацию фермера в рамках арендатора.
type RegisterRequest struct {
	TenantID     string `json:"tenant_id" minLength:"1"`
	TenantDomain string `json:"tenant_domain,omitempty"`
	Login        string `json:"login" minLength:"3" maxLength:"64"`
	Secret       string `json:"secret" minLength:"8"`
}

type RegisterResponse struct {
	FarmerID string `json:"farmer_id"`
	Status   string `json:"status"`
}

type loginInput struct {
	Body LoginRequest
}

type loginOutput struct {
	Body LoginResponse
}

type LoginRequest struct {
	Login  string `json:"login"`
	Secret string `json:"secret"`
}

// LoginResponse — токен сессии плюс разрешенный контекст арендатора и
// снимок профиля. Клиент кэширует этот ответ для входа без связи.
type LoginResponse struct {
	Token        string          `json:"token"`
	TenantID     string          `json:"tenant_id"`
	TenantDomain string          `json:"tenant_domain"`
	FarmerID     string          `json:"farmer_id"`
	Profile      json.RawMessage `json:"profile,omitempty"`
}
