package entities

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "entities-list",
		Method:      http.MethodGet,
		Path:        "/api/entities/{type}",
		Summary:     "Список записей типа в рамках арендатора",
		Tags:        []string{"entities"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) getOp() huma.Operation {
	return huma.Operation{
		OperationID: "entities-get",
		Method:      http.MethodGet,
		Path:        "/api/entities/{type}/{id}",
		Summary:     "Получить запись",
		Tags:        []string{"entities"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) insertOp() huma.Operation {
	return huma.Operation{
		OperationID: "entities-insert",
		Method:      http.MethodPost,
		Path:        "/api/entities/{type}",
		Summary:     "Создать запись",
		Tags:        []string{"entities"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) updateOp() huma.Operation {
	return huma.Operation{
		OperationID: "entities-update",
		Method:      http.MethodPut,
		Path:        "/api/entities/{type}/{id}",
		Summary:     "Обновить запись (последняя запись побеждает)",
		Tags:        []string{"entities"},
		Middlewares: h.middleware,
	}
}
