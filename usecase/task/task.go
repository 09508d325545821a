package task

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/repository"
)

const (
	titleMaxLen       = 100
	descriptionMaxLen = 500
	categoryMaxLen    = 50
)

// CreateInput carries the client-controlled fields of a new task. Ownership
// is not part of it: the owner is always the authenticated caller.
type CreateInput struct {
	Title       string
	Description string
	Priority    string
	Category    string
}

// UpdatePatch is a partial update. Nil means the field was absent from the
// request and must stay unchanged.
type UpdatePatch struct {
	Title       *string
	Description *string
	IsCompleted *bool
	Priority    *string
	Category    *string
}

func (p UpdatePatch) isEmpty() bool {
	return p.Title == nil && p.Description == nil && p.IsCompleted == nil &&
		p.Priority == nil && p.Category == nil
}

type UseCase struct {
	tasks  repository.TaskRepository
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		logger: logger,
	}
}

func (uc *UseCase) List(ctx context.Context, ownerID int64, limit, offset int) ([]domain.Task, error) {
	return uc.tasks.ListByOwner(ctx, repository.TaskFilter{
		OwnerID: ownerID,
		Limit:   limit,
		Offset:  offset,
	})
}

func (uc *UseCase) Get(ctx context.Context, taskID, ownerID int64) (*domain.Task, error) {
	return uc.tasks.GetByIDAndOwner(ctx, taskID, ownerID)
}

func (uc *UseCase) Create(ctx context.Context, ownerID int64, input CreateInput) (*domain.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Priority == "" {
		input.Priority = domain.PriorityMedium
	}

	if err := validateFields(input.Title, input.Description, input.Priority, input.Category); err != nil {
		return nil, err
	}

	created := &domain.Task{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Category:    input.Category,
		OwnerID:     ownerID,
	}
	if err := uc.tasks.Create(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies a partial patch to an owned task. Absent fields stay
// untouched; an empty patch returns the task as-is.
func (uc *UseCase) Update(ctx context.Context, taskID, ownerID int64, patch UpdatePatch) (*domain.Task, error) {
	current, err := uc.tasks.GetByIDAndOwner(ctx, taskID, ownerID)
	if err != nil {
		return nil, err
	}
	if patch.isEmpty() {
		return current, nil
	}

	if patch.Title != nil {
		current.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		current.Description = *patch.Description
	}
	if patch.IsCompleted != nil {
		current.IsCompleted = *patch.IsCompleted
	}
	if patch.Priority != nil {
		current.Priority = *patch.Priority
	}
	if patch.Category != nil {
		current.Category = *patch.Category
	}

	if err := validateFields(current.Title, current.Description, current.Priority, current.Category); err != nil {
		return nil, err
	}

	if err := uc.tasks.Update(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (uc *UseCase) Delete(ctx context.Context, taskID, ownerID int64) error {
	return uc.tasks.DeleteByIDAndOwner(ctx, taskID, ownerID)
}

func validateFields(title, description, priority, category string) error {
	var fields []string

	// Limits are in characters, not bytes, so multibyte text gets the full
	// budget.
	if title == "" {
		fields = append(fields, "title: must not be empty")
	} else if utf8.RuneCountInString(title) > titleMaxLen {
		fields = append(fields, fmt.Sprintf("title: must be at most %d characters", titleMaxLen))
	}
	if utf8.RuneCountInString(description) > descriptionMaxLen {
		fields = append(fields, fmt.Sprintf("description: must be at most %d characters", descriptionMaxLen))
	}
	if !domain.ValidPriority(priority) {
		fields = append(fields, "priority: must be one of low, medium, high")
	}
	if utf8.RuneCountInString(category) > categoryMaxLen {
		fields = append(fields, fmt.Sprintf("category: must be at most %d characters", categoryMaxLen))
	}

	if len(fields) > 0 {
		return domain.NewValidationError("invalid task data", fields...)
	}
	return nil
}
