package middleware

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/pkg/httpcontext"
	"github.com/taskforge/backend/pkg/token"
	authUC "github.com/taskforge/backend/usecase/auth"
)

type staticUserRepo struct {
	user *domain.User
}

func (r *staticUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if r.user != nil && r.user.ID == id {
		return r.user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *staticUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.user != nil && r.user.Email == email {
		return r.user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *staticUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.user != nil && r.user.Username == username {
		return r.user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *staticUserRepo) Create(context.Context, *domain.User) error { return nil }

func (r *staticUserRepo) Delete(context.Context, int64) error { return nil }

func (r *staticUserRepo) FindByUsernameLike(context.Context, string) ([]domain.User, error) {
	return nil, nil
}

func newTestStack(t *testing.T) (*token.Service, func(fasthttp.RequestHandler) fasthttp.RequestHandler) {
	t.Helper()
	tokens := token.New("test-secret", "HS256", "taskforge")
	repo := &staticUserRepo{user: &domain.User{
		ID:       1,
		Email:    "alice@example.com",
		Username: "alice",
		IsActive: true,
	}}
	auth := authUC.New(repo, nil, nil, tokens, time.Minute, nil, nil)
	adapter := httpcontext.NewAdapter(time.Second)
	return tokens, Authenticate(auth, adapter, nil)
}

func TestAuthenticateMissingHeader(t *testing.T) {
	_, authenticate := newTestStack(t)

	called := false
	handler := authenticate(func(*fasthttp.RequestCtx) { called = true })

	ctx := &fasthttp.RequestCtx{}
	handler(ctx)

	if called {
		t.Error("handler ran without credentials")
	}
	if ctx.Response.StatusCode() != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", ctx.Response.StatusCode())
	}
	if got := string(ctx.Response.Header.Peek("WWW-Authenticate")); got != "Bearer" {
		t.Errorf("WWW-Authenticate = %q, want Bearer", got)
	}
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	tokens, authenticate := newTestStack(t)

	expired, err := tokens.Issue("alice", -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	otherSecret := token.New("other-secret", "HS256", "taskforge")
	forged, err := otherSecret.Issue("alice", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	unknownUser, err := tokens.Issue("ghost", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-token"},
		{"expired token", "Bearer " + expired},
		{"wrong secret", "Bearer " + forged},
		{"deleted user", "Bearer " + unknownUser},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			handler := authenticate(func(*fasthttp.RequestCtx) { called = true })

			ctx := &fasthttp.RequestCtx{}
			ctx.Request.Header.Set("Authorization", tc.header)
			handler(ctx)

			if called {
				t.Error("handler ran with invalid credentials")
			}
			if ctx.Response.StatusCode() != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", ctx.Response.StatusCode())
			}
		})
	}
}

func TestAuthenticatePassesUserThrough(t *testing.T) {
	tokens, authenticate := newTestStack(t)

	signed, err := tokens.Issue("alice", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var resolved *domain.User
	handler := authenticate(func(ctx *fasthttp.RequestCtx) {
		resolved = UserFromRequest(ctx)
		ctx.SetStatusCode(http.StatusOK)
	})

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("Authorization", "Bearer "+signed)
	handler(ctx)

	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("status = %d, want 200", ctx.Response.StatusCode())
	}
	if resolved == nil || resolved.Username != "alice" {
		t.Errorf("resolved user = %+v, want alice", resolved)
	}
}

func TestUserFromRequestWithoutMiddleware(t *testing.T) {
	if user := UserFromRequest(&fasthttp.RequestCtx{}); user != nil {
		t.Errorf("got %+v, want nil", user)
	}
}
