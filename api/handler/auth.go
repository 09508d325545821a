package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskforge/backend/api/transport"
	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/pkg/httpcontext"
	authUC "github.com/taskforge/backend/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc *authUC.UseCase
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Authenticate and obtain a bearer token
// @Tags auth
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	// OAuth2 password flow: form-encoded username/password.
	username := string(ctx.PostArgs().Peek("username"))
	plaintext := string(ctx.PostArgs().Peek("password"))
	if username == "" || plaintext == "" {
		h.respondJSON(ctx, http.StatusUnprocessableEntity,
			transport.NewError(string(domain.ErrCodeValidation), "username and password are required", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	signed, err := h.uc.Login(stdCtx, username, plaintext)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.respondSuccess(ctx, http.StatusOK, transport.TokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
	})
}
