// Серверный коллаборатор движка синхронизации:
// регистрация и аутентификация фермеров в рамках арендатора;
// авторитетное хранение записей с изоляцией по арендатору;
// применение обновлений по правилу «последняя запись побеждает».
//
// POST /api/auth/register            # Регистрация (публичный)
// POST /api/auth/login               # Логин (публичный)
// GET  /api/health                   # Проверка доступности (публичный)
// GET  /api/entities/{type}          # Полный набор записей типа (auth)
// GET  /api/entities/{type}/{id}     # Получить запись (auth)
// POST /api/entities/{type}          # Создать запись (auth)
// PUT  /api/entities/{type}/{id}     # Обновить запись (auth)

package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	authAPI "agrosync/internal/app/server/api/http/auth"
	entitiesAPI "agrosync/internal/app/server/api/http/entities"
	healthAPI "agrosync/internal/app/server/api/http/health"
	"agrosync/internal/app/server/api/http/middleware"
	authMW "agrosync/internal/app/server/api/http/middleware/auth"
	loggerMW "agrosync/internal/app/server/api/http/middleware/logger"
	"agrosync/internal/app/server/config"
	"agrosync/internal/app/server/crypto"
	"agrosync/internal/domain/entity"
	"agrosync/internal/domain/farmer"
	"agrosync/internal/domain/session"
	"agrosync/internal/infrastructure/storage/postgres"
)

type Handlers struct {
	Health   *healthAPI.Handler
	Auth     *authAPI.Handler
	Entities *entitiesAPI.Handler
}

// New создает *chi.Mux со всеми операциями через huma.Register
func New(cfg *config.Config, storage *postgres.Storage, log *slog.Logger) (*chi.Mux, error) {
	mux := chi.NewMux()

	humaConfig := huma.DefaultConfig("AgroSync API", "1.0.0")
	API := humachi.New(mux, humaConfig)

	h, err := handlers(cfg, storage, log)
	if err != nil {
		return nil, err
	}
	h.Health.SetupRoutes(API)
	h.Auth.SetupRoutes(API)
	h.Entities.SetupRoutes(API)

	return mux, nil
}

func handlers(cfg *config.Config, storage *postgres.Storage, log *slog.Logger) (*Handlers, error) {
	sessionRepo := postgres.NewSessionRepository(storage.Pool(), log)
	sessionService := session.NewService(sessionRepo, log)
	authMiddleware := authMW.New(sessionService, log)
	logMiddleware := loggerMW.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(logMiddleware.Middleware())
	healthHandler := healthAPI.NewHandler(log, middlewares.GetAllAndClear())

	farmerRepo := postgres.NewFarmerRepository(storage.Pool(), log)
	farmerService := farmer.NewService(farmerRepo, log)
	middlewares.Add(logMiddleware.Middleware())
	authHandler := authAPI.NewHandler(farmerService, sessionService, log, middlewares.GetAllAndClear())

	encryptor, err := crypto.NewPayloadEncryptor(cfg.Crypto.PayloadKey, cfg.Crypto.PayloadSecret)
	if err != nil {
		return nil, err
	}

	entityRepo := postgres.NewEntityRepository(storage.Pool(), encryptor, log)
	entityService := entity.NewService(entityRepo, log)
	middlewares.Add(authMiddleware.Middleware())
	middlewares.Add(logMiddleware.Middleware())
	entitiesHandler := entitiesAPI.NewHandler(entityService, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health:   healthHandler,
		Auth:     authHandler,
		Entities: entitiesHandler,
	}, nil
}
