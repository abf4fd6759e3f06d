package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"agrosync/internal/domain/entity"
	"agrosync/internal/domain/session"
)

// Заголовки изоляции. Токен удостоверяет сессию, а пара
// арендатор/фермер из заголовков обязана совпасть с той, что
// разрешилась из сессии на сервере.
const (
	HeaderTenantID     = "x-tenant-id"
	HeaderFarmerID     = "x-farmer-id"
	HeaderSessionToken = "x-session-token"
)

type Auth struct {
	session session.Servicer
	log     *slog.Logger
}

func New(session session.Servicer, log *slog.Logger) *Auth {
	return &Auth{
		session: session,
		log:     log.With("component", "auth_middleware"),
	}
}

type contextKey string

const scopeKey contextKey = "scope"

// Middleware возвращает middleware для Huma с сигнатурой func(ctx Context, next func(Context))
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token := ctx.Header(HeaderSessionToken)
		if token == "" {
			a.log.Debug("missing session token")
			writeError(ctx, http.StatusUnauthorized, "Unauthorized")
			return
		}

		id, err := a.session.Validate(ctx.Context(), token)
		if err != nil {
			a.log.Debug("session validation failed", "error", err)
			writeError(ctx, http.StatusUnauthorized, "Unauthorized")
			return
		}

		// Клиентские заголовки — заявка, сессия — истина. Расхождение
		// означает запрос вне рамок арендатора и отклоняется целиком.
		claimedTenant := ctx.Header(HeaderTenantID)
		claimedFarmer := ctx.Header(HeaderFarmerID)
		if claimedTenant != id.TenantID || claimedFarmer != id.FarmerID {
			a.log.Warn("isolation header mismatch",
				"claimed_tenant", claimedTenant, "session_tenant", id.TenantID,
				"claimed_farmer", claimedFarmer, "session_farmer", id.FarmerID)
			writeError(ctx, http.StatusForbidden, "tenant scope violation")
			return
		}

		scope := entity.Scope{TenantID: id.TenantID, FarmerID: id.FarmerID}
		next(huma.WithContext(ctx, WithScope(ctx.Context(), scope)))
	}
}

// WithScope кладет рамки арендатора в контекст запроса.
func WithScope(ctx context.Context, scope entity.Scope) context.Context {
	return context.WithValue(ctx, scopeKey, scope)
}

// GetScope возвращает рамки арендатора, разрешенные из сессии.
func GetScope(ctx context.Context) (entity.Scope, bool) {
	scope, ok := ctx.Value(scopeKey).(entity.Scope)
	return scope, ok
}

func writeError(ctx huma.Context, status int, msg string) {
	ctx.SetStatus(status)
	ctx.SetHeader("Content-Type", "application/json")
	_ = json.NewEncoder(ctx.BodyWriter()).Encode(map[string]string{
		"error": msg,
	})
}
