package handler

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskforge/backend/api/transport"
	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/internal/middleware"
	"github.com/taskforge/backend/pkg/httpcontext"
	userUC "github.com/taskforge/backend/usecase/user"
)

// TestModeSettings gates the cleanup endpoint; see NewUserHandler.
type TestModeSettings struct {
	Enabled bool
	APIKey  string
}

type UserHandler struct {
	baseHandler
	uc       *userUC.UseCase
	testMode TestModeSettings
}

func NewUserHandler(uc *userUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger, testMode TestModeSettings) *UserHandler {
	return &UserHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		testMode:    testMode,
	}
}

// @Summary Register a new account
// @Tags users
// @Router /api/users [post]
func (h *UserHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalidPayload(ctx)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Register(stdCtx, req.Email, req.Username, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Current user's profile
// @Tags users
// @Router /api/users/me [get]
func (h *UserHandler) Me(ctx *fasthttp.RequestCtx) {
	user := middleware.UserFromRequest(ctx)
	if user == nil {
		h.respondError(ctx, domain.ErrInvalidCredentials)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary Delete the caller's account
// @Tags users
// @Router /api/users/me [delete]
func (h *UserHandler) DeleteMe(ctx *fasthttp.RequestCtx) {
	user := middleware.UserFromRequest(ctx)
	if user == nil {
		h.respondError(ctx, domain.ErrInvalidCredentials)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, user.ID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"message": "User successfully deleted"})
}

// @Summary Delete test accounts by id or username pattern
// @Tags users
// @Router /api/users/test-cleanup [post]
//
// Test infrastructure only. Pretends not to exist unless test mode is
// enabled, and requires the shared API key header on top of that.
func (h *UserHandler) TestCleanup(ctx *fasthttp.RequestCtx) {
	if !h.testMode.Enabled || h.testMode.APIKey == "" {
		h.respondJSON(ctx, http.StatusNotFound,
			transport.NewError(string(domain.ErrCodeNotFound), "endpoint not available", nil))
		return
	}

	presented := ctx.Request.Header.Peek("X-Test-API-Key")
	if subtle.ConstantTimeCompare(presented, []byte(h.testMode.APIKey)) != 1 {
		h.respondJSON(ctx, http.StatusForbidden,
			transport.NewError(string(domain.ErrCodeForbidden), "invalid or missing test API key", nil))
		return
	}

	var req transport.CleanupRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalidPayload(ctx)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.CleanupTestUsers(stdCtx, req.UserIDs, req.UsernamePatterns)
	if err != nil {
		var dErr *domain.Error
		if !errors.As(err, &dErr) {
			h.logger.Error("test cleanup failed", zap.Error(err))
		}
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}
