package client

import (
	"encoding/json"
	"os"
	gosync "sync"

	"golang.org/x/exp/slog"
)

// sessionState — аутентифицированная сессия, сохраненная на диске.
// Хранится отдельно от контекста арендатора: движок синхронизации
// сверяет два независимых источника идентификатора арендатора.
type sessionState struct {
	Token    string `json:"token"`
	TenantID string `json:"tenant_id"`
	FarmerID string `json:"farmer_id"`
}

type sessionStore struct {
	path string
	log  *slog.Logger

	mu    gosync.RWMutex
	state sessionState
}

func newSessionStore(path string, log *slog.Logger) *sessionStore {
	s := &sessionStore{
		path: path,
		log:  log.With("component", "session"),
	}
	s.load()
	return s
}

func (s *sessionStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	var state sessionState
	if err := json.Unmarshal(data, &state); err != nil {
		s.log.Warn("Поврежденный файл сессии", "error", err)
		return
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *sessionStore) save(state sessionState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	return os.WriteFile(s.path, data, 0600)
}

func (s *sessionStore) clear() error {
	s.mu.Lock()
	s.state = sessionState{}
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *sessionStore) current() sessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// CurrentTenantID — независимый от контекста арендатора источник
// идентификатора для перекрестной проверки движка.
func (s *sessionStore) CurrentTenantID() string {
	return s.current().TenantID
}

func (s *sessionStore) CurrentFarmerID() string {
	return s.current().FarmerID
}
