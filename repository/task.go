package repository

import (
	"context"

	"github.com/taskforge/backend/domain"
)

type TaskFilter struct {
	OwnerID int64
	Limit   int
	Offset  int
}

// TaskRepository scopes every single-row operation by both task id and owner
// id in one statement, so an unowned task is indistinguishable from an
// absent one.
type TaskRepository interface {
	GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*domain.Task, error)
	ListByOwner(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	DeleteByIDAndOwner(ctx context.Context, id, ownerID int64) error
}
