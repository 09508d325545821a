package repository

import (
	"context"
	"errors"

	"github.com/taskforge/backend/domain"
)

// ErrCacheMiss is returned by UserCache.Get when no entry exists.
var ErrCacheMiss = errors.New("cache miss")

// UserCache is a short-lived username keyed lookaside for the per-request
// current-user resolution. It is a soft dependency: callers fall back to the
// primary store on any error.
type UserCache interface {
	Get(ctx context.Context, username string) (*domain.User, error)
	Set(ctx context.Context, user *domain.User) error
	Invalidate(ctx context.Context, username string) error
}
