package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `id, title, description, is_completed, priority, category, created_at, updated_at, owner_id`

func (r *taskRepository) GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*domain.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE id = $1 AND owner_id = $2
	`
	return scanTask(r.pool.QueryRow(ctx, query, id, ownerID))
}

func (r *taskRepository) ListByOwner(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE owner_id = $1
	ORDER BY id
	LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, filter.OwnerID, clampLimit(filter.Limit), maxInt(filter.Offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.NewError(domain.ErrCodeInternal, "nil task")
	}

	const query = `
	INSERT INTO tasks (title, description, priority, category, owner_id)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, is_completed, created_at
	`

	return r.pool.QueryRow(ctx, query,
		task.Title,
		nullString(task.Description),
		task.Priority,
		nullString(task.Category),
		task.OwnerID,
	).Scan(&task.ID, &task.IsCompleted, &task.CreatedAt)
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.NewError(domain.ErrCodeInternal, "nil task")
	}

	const query = `
	UPDATE tasks
	SET title = $3,
		description = $4,
		is_completed = $5,
		priority = $6,
		category = $7,
		updated_at = NOW()
	WHERE id = $1 AND owner_id = $2
	RETURNING updated_at
	`

	var updatedAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		nullString(task.Description),
		task.IsCompleted,
		task.Priority,
		nullString(task.Category),
	).Scan(&updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return err
	}

	task.UpdatedAt = &updatedAt
	return nil
}

func (r *taskRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID int64) error {
	// Single round-trip instead of fetch-then-delete.
	const query = `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	var (
		description *string
		category    *string
		updatedAt   *time.Time
	)

	if err := row.Scan(
		&task.ID,
		&task.Title,
		&description,
		&task.IsCompleted,
		&task.Priority,
		&category,
		&task.CreatedAt,
		&updatedAt,
		&task.OwnerID,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	if description != nil {
		task.Description = *description
	}
	if category != nil {
		task.Category = *category
	}
	task.UpdatedAt = updatedAt
	return &task, nil
}
