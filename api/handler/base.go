package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskforge/backend/api/transport"
	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code, meta := mapError(err)
	if status == http.StatusUnauthorized {
		ctx.Response.Header.Set("WWW-Authenticate", "Bearer")
	}
	h.respondJSON(ctx, status, transport.NewError(code, err.Error(), meta))
}

func (h baseHandler) respondInvalidPayload(ctx *fasthttp.RequestCtx) {
	h.respondJSON(ctx, http.StatusUnprocessableEntity,
		transport.NewError(string(domain.ErrCodeValidation), "invalid payload", nil))
}

// mapError translates domain classifications to HTTP statuses. Validation
// carries field-level detail in meta; duplicate conflicts answer 400 to
// match the registration contract; store timeouts surface as 503 rather
// than leaking as a 500.
func mapError(err error) (int, string, interface{}) {
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		var meta interface{}
		if len(dErr.Fields) > 0 {
			meta = map[string]interface{}{"fields": dErr.Fields}
		}
		switch dErr.Code {
		case domain.ErrCodeValidation:
			return http.StatusUnprocessableEntity, string(dErr.Code), meta
		case domain.ErrCodeConflict:
			return http.StatusBadRequest, string(dErr.Code), meta
		case domain.ErrCodeUnauthorized:
			return http.StatusUnauthorized, string(dErr.Code), meta
		case domain.ErrCodeForbidden:
			return http.StatusForbidden, string(dErr.Code), meta
		case domain.ErrCodeNotFound:
			return http.StatusNotFound, string(dErr.Code), meta
		case domain.ErrCodeUnavailable:
			return http.StatusServiceUnavailable, string(dErr.Code), meta
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, string(domain.ErrCodeUnavailable), nil
	}
	return http.StatusInternalServerError, string(domain.ErrCodeInternal), nil
}
