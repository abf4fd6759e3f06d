package auth

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"agrosync/internal/domain/farmer"
	"agrosync/internal/domain/session"
)

type Handler struct {
	service    farmer.Servicer
	session    session.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service farmer.Servicer, sess session.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		session:    sess,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.registerOp(), h.register)
	huma.Register(api, h.loginOp(), h.login)
}

func (h *Handler) register(ctx context.Context, input *registerInput) (*registerOutput, error) {
	f, err := h.service.Register(ctx,
		input.Body.TenantID, input.Body.TenantDomain,
		input.Body.Login, input.Body.Secret)
	if err != nil {
		if errors.Is(err, farmer.ErrLoginTaken) {
			return nil, huma.Error409Conflict("login already registered")
		}
		if errors.Is(err, farmer.ErrInvalidInput) {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		h.log.Error("register failed", "login", input.Body.Login, "error", err)
		return nil, huma.Error500InternalServerError("registration failed")
	}

	return &registerOutput{
		Body: RegisterResponse{FarmerID: f.ID, Status: "Ok"},
	}, nil
}

func (h *Handler) login(ctx context.Context, input *loginInput) (*loginOutput, error) {
	f, err := h.service.Authenticate(ctx, input.Body.Login, input.Body.Secret)
	if err != nil {
		// Не различаем «нет такого» и «неверный секрет» в ответе.
		return nil, huma.Error401Unauthorized("Invalid credentials")
	}

	token, err := h.session.Create(ctx, session.Identity{
		TenantID: f.TenantID,
		FarmerID: f.ID,
	})
	if err != nil {
		h.log.Error("create session failed", "farmer_id", f.ID, "error", err)
		return nil, huma.Error500InternalServerError("session creation failed")
	}

	return &loginOutput{
		Body: LoginResponse{
			Token:        token,
			TenantID:     f.TenantID,
			TenantDomain: f.TenantDomain,
			FarmerID:     f.ID,
			Profile:      f.Profile,
		},
	}, nil
}
