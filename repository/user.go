package repository

import (
	"context"

	"github.com/taskforge/backend/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// Create persists the user, filling ID and CreatedAt. Unique-constraint
	// violations are mapped to domain.ErrEmailTaken / domain.ErrUsernameTaken,
	// which makes the insert the authoritative duplicate check.
	Create(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
	// FindByUsernameLike matches usernames against a SQL LIKE pattern.
	FindByUsernameLike(ctx context.Context, pattern string) ([]domain.User, error)
}
