package farmer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

const (
	minLoginLen  = 3
	maxLoginLen  = 64
	minSecretLen = 8
)

type Servicer interface {
	Register(ctx context.Context, tenantID, tenantDomain, login, secret string) (Farmer, error)
	Authenticate(ctx context.Context, login, secret string) (Farmer, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With("component", "farmer_service"),
	}
}

// Register создает фермера в рамках арендатора. Идентификатор и снимок
// профиля формируются здесь, а не в хранилище.
func (s *Service) Register(ctx context.Context, tenantID, tenantDomain, login, secret string) (Farmer, error) {
	if err := validateRegister(tenantID, login, secret); err != nil {
		s.log.Debug("validation failed", "login", login, "error", err)
		return Farmer{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	salt, hash, err := hashSecret(secret)
	if err != nil {
		return Farmer{}, fmt.Errorf("хэш секрета: %w", err)
	}

	f := Farmer{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		TenantDomain: tenantDomain,
		Login:        login,
		SecretHash:   hash,
		Salt:         salt,
		Profile:      defaultProfile(login),
		CreatedAt:    time.Now(),
	}

	if err := s.repo.Create(ctx, &f); err != nil {
		return Farmer{}, err
	}

	return f, nil
}

func (s *Service) Authenticate(ctx context.Context, login, secret string) (Farmer, error) {
	if strings.TrimSpace(login) == "" {
		return Farmer{}, ErrInvalidAuth
	}

	f, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		return Farmer{}, ErrNotFound
	}

	if !verifySecret(secret, f.Salt, f.SecretHash) {
		return Farmer{}, ErrInvalidAuth
	}

	return f, nil
}

func validateRegister(tenantID, login, secret string) error {
	if strings.TrimSpace(tenantID) == "" {
		return fmt.Errorf("tenant id is required")
	}
	if len(login) < minLoginLen || len(login) > maxLoginLen {
		return fmt.Errorf("login must be %d-%d characters", minLoginLen, maxLoginLen)
	}
	if len(secret) < minSecretLen {
		return fmt.Errorf("secret must be at least %d characters", minSecretLen)
	}
	return nil
}

func defaultProfile(login string) json.RawMessage {
	p, _ := json.Marshal(map[string]string{"name": login})
	return p
}
