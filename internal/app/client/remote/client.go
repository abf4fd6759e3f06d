package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"agrosync/internal/app/client/config"
	"agrosync/internal/domain/entity"
	"agrosync/internal/domain/tenant"
)

// Заголовки изоляции, сопровождающие каждый запрос к серверу.
// Значения всегда берутся из текущего контекста в момент вызова.
const (
	HeaderTenantID     = "x-tenant-id"
	HeaderFarmerID     = "x-farmer-id"
	HeaderSessionToken = "x-session-token"
)

// ContextSource — источник контекста арендатора для заголовков.
type ContextSource interface {
	Current() tenant.Context
}

// Client — HTTP-клиент серверного коллаборатора.
type Client struct {
	client    *http.Client
	config    *config.Config
	log       *slog.Logger
	source    ContextSource
	baseURL   string
	token     string
	userAgent string
}

func NewClient(cfg *config.Config, source ContextSource, log *slog.Logger) *Client {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}

	return &Client{
		client:    client,
		config:    cfg,
		log:       log.With("component", "remote"),
		source:    source,
		baseURL:   scheme + cfg.ServerAddress,
		userAgent: "AgroSync-Client/1.0",
	}
}

// SetToken устанавливает токен сессии.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Health проверяет доступность сервера.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("сервер недоступен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("сервер вернул статус: %d", resp.StatusCode)
	}

	return nil
}

// Online сообщает, доступен ли сервер. Короткий таймаут: проверка
// связности не должна задерживать вызывающего.
func (c *Client) Online(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return c.Health(probeCtx) == nil
}

// LoginRequest — запрос аутентификации.
type LoginRequest struct {
	Login  string `json:"login"`
	Secret string `json:"secret"`
}

// LoginResponse — ответ аутентификации: токен сессии плюс разрешенный
// контекст арендатора и снимок профиля.
type LoginResponse struct {
	Token        string          `json:"token"`
	TenantID     string          `json:"tenant_id"`
	TenantDomain string          `json:"tenant_domain"`
	FarmerID     string          `json:"farmer_id"`
	Profile      json.RawMessage `json:"profile,omitempty"`
}

// Login выполняет аутентификацию на сервере.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/login", req)
	if err != nil {
		return nil, err
	}

	var loginResp LoginResponse
	if err := c.parseResponse(resp, &loginResp); err != nil {
		return nil, err
	}

	return &loginResp, nil
}

// List возвращает полный авторитетный набор записей типа typ в рамках
// арендатора и фермера. Сервер дополнительно проверяет рамки на своей
// стороне — клиентская фильтрация не единственная линия защиты.
func (c *Client) List(ctx context.Context, typ entity.Type) ([]*entity.Record, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/entities/"+typ.String(), nil)
	if err != nil {
		return nil, err
	}

	var listResp struct {
		Records []*entity.Record `json:"records"`
	}
	if err := c.parseResponse(resp, &listResp); err != nil {
		return nil, err
	}

	return listResp.Records, nil
}

// Get возвращает запись по идентификатору. Для отсутствующей записи
// возвращается entity.ErrNotFound.
func (c *Client) Get(ctx context.Context, typ entity.Type, id string) (*entity.Record, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/entities/"+typ.String()+"/"+id, nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, entity.ErrNotFound
	}

	var rec entity.Record
	if err := c.parseResponse(resp, &rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

// Insert создает запись на сервере.
func (c *Client) Insert(ctx context.Context, rec *entity.Record) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/entities/"+rec.Type.String(), rec)
	if err != nil {
		return err
	}

	return c.parseResponse(resp, nil)
}

// Update обновляет запись на сервере.
func (c *Client) Update(ctx context.Context, rec *entity.Record) error {
	resp, err := c.doRequest(ctx, http.MethodPut, "/api/entities/"+rec.Type.String()+"/"+rec.ID, rec)
	if err != nil {
		return err
	}

	return c.parseResponse(resp, nil)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	// Заголовки изоляции берутся из контекста в момент вызова,
	// никогда из устаревшей копии.
	tc := c.source.Current()
	req.Header.Set(HeaderTenantID, tc.TenantID)
	req.Header.Set(HeaderFarmerID, tc.FarmerID)
	if c.token != "" {
		req.Header.Set(HeaderSessionToken, c.token)
	}

	c.log.Debug("Отправка запроса", "method", method, "url", req.URL.String())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	return resp, nil
}

func (c *Client) parseResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	c.log.Debug("Получен ответ", "status", resp.StatusCode)

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("ошибка сервера: %s", errResp.Error)
		}
		return fmt.Errorf("ошибка сервера: статус %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}

	return nil
}
