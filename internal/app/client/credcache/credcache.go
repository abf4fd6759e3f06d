package credcache

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/exp/slog"

	"agrosync/internal/app/client/store"
)

// Параметры argon2id для хэширования секрета. Сырой секрет никогда
// не сохраняется.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLength    = 16

	// onlineTimeout — сколько ждем онлайн-аутентификацию, прежде чем
	// откатиться на кэш.
	onlineTimeout = 10 * time.Second
)

// StateStore — устойчивое key/value-хранилище для кэша.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool, error)
	SetState(ctx context.Context, key, value string) error
	DeleteState(ctx context.Context, key string) error
}

// Connectivity — сообщает, доступна ли сеть.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// OnlineResult — результат онлайн-аутентификации.
type OnlineResult struct {
	Token        string
	TenantID     string
	TenantDomain string
	FarmerID     string
	Profile      json.RawMessage
}

// OnlineAuthenticator — онлайн-канал аутентификации.
type OnlineAuthenticator interface {
	Authenticate(ctx context.Context, farmerID, secret string) (*OnlineResult, error)
}

// AuthResult — итог аутентификации с откатом: откуда пришел успех
// и что известно о пользователе.
type AuthResult struct {
	FarmerID     string
	TenantID     string
	TenantDomain string
	Online       bool
	Token        string
	Profile      json.RawMessage
}

type cachedCredential struct {
	FarmerID     string          `json:"farmer_id"`
	TenantID     string          `json:"tenant_id"`
	TenantDomain string          `json:"tenant_domain,omitempty"`
	Salt         string          `json:"salt"`
	Hash         string          `json:"hash"`
	Profile      json.RawMessage `json:"profile,omitempty"`
	CachedAt     time.Time       `json:"cached_at"`
}

// Cache — кэш учетных данных для входа без связи. Хранит соленый хэш
// секрета и денормализованный снимок профиля.
type Cache struct {
	state  StateStore
	conn   Connectivity
	online OnlineAuthenticator
	log    *slog.Logger
}

func New(state StateStore, conn Connectivity, online OnlineAuthenticator, log *slog.Logger) *Cache {
	return &Cache{
		state:  state,
		conn:   conn,
		online: online,
		log:    log.With("component", "credcache"),
	}
}

// Store кэширует учетные данные: соленый argon2id-хэш секрета плюс
// снимок профиля.
func (c *Cache) Store(ctx context.Context, farmerID, tenantID, tenantDomain, secret string, profile json.RawMessage) error {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("ошибка генерации соли: %w", err)
	}

	cred := cachedCredential{
		FarmerID:     farmerID,
		TenantID:     tenantID,
		TenantDomain: tenantDomain,
		Salt:         base64.StdEncoding.EncodeToString(salt),
		Hash:         base64.StdEncoding.EncodeToString(hashSecret(secret, salt)),
		Profile:      profile,
		CachedAt:     time.Now(),
	}

	raw, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("ошибка сериализации кэша: %w", err)
	}

	return c.state.SetState(ctx, store.StateKeyCredential, string(raw))
}

// AuthenticateWithFallback аутентифицирует пользователя. Офлайн —
// сразу проверка по кэшу без сетевых попыток. Онлайн — гонка
// онлайн-вызова с таймаутом; проигрыш или сбой откатывается на кэш.
// Успешный онлайн-вход всегда обновляет кэш.
func (c *Cache) AuthenticateWithFallback(ctx context.Context, secret, farmerID, tenantID string) (*AuthResult, error) {
	if !c.conn.Online(ctx) {
		c.log.Debug("Офлайн-аутентификация по кэшу", "farmer_id", farmerID)
		return c.validateCached(ctx, secret, farmerID, tenantID)
	}

	result, err := c.raceOnline(ctx, secret, farmerID)
	if err == nil {
		if cerr := c.Store(ctx, result.FarmerID, result.TenantID, result.TenantDomain, secret, result.Profile); cerr != nil {
			c.log.Warn("Не удалось обновить кэш учетных данных", "error", cerr)
		}
		return &AuthResult{
			FarmerID:     result.FarmerID,
			TenantID:     result.TenantID,
			TenantDomain: result.TenantDomain,
			Online:       true,
			Token:        result.Token,
			Profile:      result.Profile,
		}, nil
	}

	c.log.Debug("Онлайн-аутентификация не удалась, откат на кэш", "error", err)
	return c.validateCached(ctx, secret, farmerID, tenantID)
}

// raceOnline запускает онлайн-аутентификацию против фиксированного
// таймаута: побеждает то, что завершится первым.
func (c *Cache) raceOnline(ctx context.Context, secret, farmerID string) (*OnlineResult, error) {
	raceCtx, cancel := context.WithTimeout(ctx, onlineTimeout)
	defer cancel()

	type outcome struct {
		result *OnlineResult
		err    error
	}

	ch := make(chan outcome, 1)
	go func() {
		result, err := c.online.Authenticate(raceCtx, farmerID, secret)
		ch <- outcome{result, err}
	}()

	select {
	case out := <-ch:
		return out.result, out.err
	case <-raceCtx.Done():
		return nil, fmt.Errorf("онлайн-аутентификация не уложилась в таймаут: %w", raceCtx.Err())
	}
}

func (c *Cache) validateCached(ctx context.Context, secret, farmerID, tenantID string) (*AuthResult, error) {
	cred, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	if cred == nil || cred.FarmerID != farmerID {
		return nil, ErrNotCached
	}
	// Пустой арендатор означает "еще не известен" (первый вход после
	// перезапуска): сверяем только при наличии.
	if tenantID != "" && cred.TenantID != tenantID {
		return nil, ErrNotCached
	}

	salt, err := base64.StdEncoding.DecodeString(cred.Salt)
	if err != nil {
		return nil, fmt.Errorf("поврежденный кэш учетных данных: %w", err)
	}
	want, err := base64.StdEncoding.DecodeString(cred.Hash)
	if err != nil {
		return nil, fmt.Errorf("поврежденный кэш учетных данных: %w", err)
	}

	got := hashSecret(secret, salt)
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return nil, ErrBadCredential
	}

	return &AuthResult{
		FarmerID:     cred.FarmerID,
		TenantID:     cred.TenantID,
		TenantDomain: cred.TenantDomain,
		Profile:      cred.Profile,
	}, nil
}

// Clear удаляет кэшированные учетные данные (logout).
func (c *Cache) Clear(ctx context.Context) error {
	return c.state.DeleteState(ctx, store.StateKeyCredential)
}

func (c *Cache) load(ctx context.Context) (*cachedCredential, error) {
	raw, ok, err := c.state.GetState(ctx, store.StateKeyCredential)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения кэша учетных данных: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var cred cachedCredential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		return nil, fmt.Errorf("поврежденный кэш учетных данных: %w", err)
	}

	return &cred, nil
}

func hashSecret(secret string, salt []byte) []byte {
	return argon2.IDKey([]byte(secret), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
}
