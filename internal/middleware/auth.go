package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskforge/backend/api/transport"
	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/pkg/httpcontext"
	appLogger "github.com/taskforge/backend/pkg/logger"
	authUC "github.com/taskforge/backend/usecase/auth"
)

const userValueKey = "auth_user"

// Authenticate wraps protected handlers: it extracts the bearer token,
// resolves the calling user and stashes it in the request values. Every
// failure answers the same uniform 401 body.
func Authenticate(auth *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			rawToken := extractBearer(ctx)
			if rawToken == "" {
				unauthorized(ctx)
				return
			}

			stdCtx, cancel := adapter.Attach(ctx)
			defer cancel()

			user, err := auth.CurrentUser(stdCtx, rawToken)
			if err != nil {
				if !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
					appLogger.WithRequestID(stdCtx, logger).Warn("current-user resolution failed", zap.Error(err))
				}
				unauthorized(ctx)
				return
			}

			ctx.SetUserValue(userValueKey, user)
			next(ctx)
		}
	}
}

// UserFromRequest returns the user resolved by Authenticate, or nil when the
// request never passed through it.
func UserFromRequest(ctx *fasthttp.RequestCtx) *domain.User {
	user, _ := ctx.UserValue(userValueKey).(*domain.User)
	return user
}

func extractBearer(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func unauthorized(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.Header.Set("WWW-Authenticate", "Bearer")
	ctx.SetStatusCode(http.StatusUnauthorized)
	body, _ := json.Marshal(transport.NewError(
		string(domain.ErrCodeUnauthorized),
		domain.ErrInvalidCredentials.Message,
		nil,
	))
	ctx.SetBody(body)
}
