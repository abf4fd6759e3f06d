package health

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) healthCheckOp() huma.Operation {
	return huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Проверка живости сервиса",
		Description: "Returns the health status of the service. Sync clients call this as a connectivity probe.",
		Tags:        []string{"health"},
		Middlewares: h.middleware,
	}
}
