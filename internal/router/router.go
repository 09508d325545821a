package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/taskforge/backend/api/handler"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	User   *apiHandler.UserHandler
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Public routes
	r.POST("/api/users", handlers.User.Register)
	r.POST("/api/auth/login", handlers.Auth.Login)
	// Self-guarding: answers 404 unless test mode is on.
	r.POST("/api/users/test-cleanup", handlers.User.TestCleanup)

	// Protected routes
	r.GET("/api/users/me", authMiddleware(handlers.User.Me))
	r.DELETE("/api/users/me", authMiddleware(handlers.User.DeleteMe))

	r.GET("/api/tasks", authMiddleware(handlers.Task.List))
	r.POST("/api/tasks", authMiddleware(handlers.Task.Create))
	r.GET("/api/tasks/{id}", authMiddleware(handlers.Task.Get))
	r.PUT("/api/tasks/{id}", authMiddleware(handlers.Task.Update))
	r.DELETE("/api/tasks/{id}", authMiddleware(handlers.Task.Delete))

	return r
}
