package entities

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"agrosync/internal/app/server/api/http/middleware/auth"
	"agrosync/internal/domain/entity"
)

type Handler struct {
	service    entity.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service entity.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.getOp(), h.get)
	huma.Register(api, h.insertOp(), h.insert)
	huma.Register(api, h.updateOp(), h.update)
}

func (h *Handler) list(ctx context.Context, input *listInput) (*listOutput, error) {
	scope, typ, err := resolve(ctx, input.Type)
	if err != nil {
		return nil, err
	}

	records, err := h.service.List(ctx, scope, typ)
	if err != nil {
		return nil, h.mapError(err, "list")
	}

	if records == nil {
		records = []*entity.Record{}
	}

	return &listOutput{Body: ListResponse{Records: records}}, nil
}

func (h *Handler) get(ctx context.Context, input *getInput) (*getOutput, error) {
	scope, typ, err := resolve(ctx, input.Type)
	if err != nil {
		return nil, err
	}

	rec, err := h.service.Get(ctx, scope, typ, input.ID)
	if err != nil {
		return nil, h.mapError(err, "get")
	}

	return &getOutput{Body: *rec}, nil
}

func (h *Handler) insert(ctx context.Context, input *upsertInput) (*statusOutput, error) {
	scope, typ, err := resolve(ctx, input.Type)
	if err != nil {
		return nil, err
	}

	rec := input.Body
	rec.Type = typ
	if err := h.service.Insert(ctx, scope, &rec); err != nil {
		return nil, h.mapError(err, "insert")
	}

	return &statusOutput{Body: StatusResponse{Status: "Ok"}}, nil
}

func (h *Handler) update(ctx context.Context, input *updateInput) (*statusOutput, error) {
	scope, typ, err := resolve(ctx, input.Type)
	if err != nil {
		return nil, err
	}

	rec := input.Body
	rec.Type = typ
	rec.ID = input.ID
	if err := h.service.Update(ctx, scope, &rec); err != nil {
		return nil, h.mapError(err, "update")
	}

	return &statusOutput{Body: StatusResponse{Status: "Ok"}}, nil
}

// resolve достает рамки сессии из контекста и проверяет тип из пути.
func resolve(ctx context.Context, rawType string) (entity.Scope, entity.Type, error) {
	scope, ok := auth.GetScope(ctx)
	if !ok {
		return entity.Scope{}, "", huma.Error401Unauthorized("Unauthorized")
	}

	typ, err := entity.ParseType(rawType)
	if err != nil {
		return entity.Scope{}, "", huma.Error422UnprocessableEntity(err.Error())
	}

	return scope, typ, nil
}

func (h *Handler) mapError(err error, op string) error {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return huma.Error404NotFound("record not found")
	case errors.Is(err, entity.ErrStaleUpdate):
		return huma.Error409Conflict("stored record is newer")
	case errors.Is(err, entity.ErrScopeMismatch):
		return huma.Error403Forbidden("tenant scope violation")
	default:
		h.log.Error("entity operation failed", "op", op, "error", err)
		return huma.Error500InternalServerError("internal error")
	}
}
