package task

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/repository"
)

type fakeTaskRepo struct {
	mu      sync.Mutex
	tasks   map[int64]*domain.Task
	nextID  int64
	updates int
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[int64]*domain.Task)}
}

func (r *fakeTaskRepo) GetByIDAndOwner(_ context.Context, id, ownerID int64) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, domain.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (r *fakeTaskRepo) ListByOwner(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Task
	for _, task := range r.tasks {
		if task.OwnerID == filter.OwnerID {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	task.ID = r.nextID
	task.CreatedAt = time.Now()
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.tasks[task.ID]
	if !ok || current.OwnerID != task.OwnerID {
		return domain.ErrTaskNotFound
	}
	r.updates++
	now := time.Now()
	task.UpdatedAt = &now
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) DeleteByIDAndOwner(_ context.Context, id, ownerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestCreateStampsOwnerAndDefaults(t *testing.T) {
	repo := newFakeTaskRepo()
	uc := New(repo, nil)

	created, err := uc.Create(context.Background(), 7, CreateInput{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if created.OwnerID != 7 {
		t.Errorf("owner id = %d, want 7", created.OwnerID)
	}
	if created.Priority != domain.PriorityMedium {
		t.Errorf("priority = %q, want medium default", created.Priority)
	}
	if created.IsCompleted {
		t.Error("new task must not be completed")
	}
}

func TestCreateValidation(t *testing.T) {
	repo := newFakeTaskRepo()
	uc := New(repo, nil)

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"empty title", CreateInput{Title: "  "}},
		{"long title", CreateInput{Title: strings.Repeat("x", 101)}},
		{"long description", CreateInput{Title: "ok", Description: strings.Repeat("x", 501)}},
		{"bad priority", CreateInput{Title: "ok", Priority: "urgent"}},
		{"long category", CreateInput{Title: "ok", Category: strings.Repeat("x", 51)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := uc.Create(context.Background(), 1, tc.input); !domain.IsDomainError(err, domain.ErrCodeValidation) {
				t.Errorf("got %v, want a validation error", err)
			}
		})
	}
}

func TestCreateLimitsCountCharactersNotBytes(t *testing.T) {
	repo := newFakeTaskRepo()
	uc := New(repo, nil)

	// 100 three-byte characters stay within the 100-character title budget.
	wide := strings.Repeat("日", 100)
	if _, err := uc.Create(context.Background(), 1, CreateInput{Title: wide}); err != nil {
		t.Errorf("100-character multibyte title rejected: %v", err)
	}

	if _, err := uc.Create(context.Background(), 1, CreateInput{Title: strings.Repeat("日", 101)}); !domain.IsDomainError(err, domain.ErrCodeValidation) {
		t.Errorf("101-character title: got %v, want a validation error", err)
	}
	if _, err := uc.Create(context.Background(), 1, CreateInput{Title: "ok", Description: strings.Repeat("й", 500)}); err != nil {
		t.Errorf("500-character multibyte description rejected: %v", err)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	repo := newFakeTaskRepo()
	uc := New(repo, nil)

	aliceTask, err := uc.Create(context.Background(), 1, CreateInput{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const bob = int64(2)

	if _, err := uc.Get(context.Background(), aliceTask.ID, bob); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("get as other user: got %v, want ErrTaskNotFound", err)
	}
	if _, err := uc.Update(context.Background(), aliceTask.ID, bob, UpdatePatch{Title: strPtr("stolen")}); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("update as other user: got %v, want ErrTaskNotFound", err)
	}
	if err := uc.Delete(context.Background(), aliceTask.ID, bob); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("delete as other user: got %v, want ErrTaskNotFound", err)
	}

	// The task is untouched for its owner.
	got, err := uc.Get(context.Background(), aliceTask.ID, 1)
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if got.Title != "Buy milk" {
		t.Errorf("title = %q, want unchanged", got.Title)
	}
}

func TestUpdatePartialSemantics(t *testing.T) {
	repo := newFakeTaskRepo()
	uc := New(repo, nil)

	created, err := uc.Create(context.Background(), 1, CreateInput{
		Title:       "Buy milk",
		Description: "2 liters",
		Priority:    domain.PriorityHigh,
		Category:    "errands",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := uc.Update(context.Background(), created.ID, 1, UpdatePatch{
		IsCompleted: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if !updated.IsCompleted {
		t.Error("is_completed not applied")
	}
	if updated.Title != "Buy milk" || updated.Description != "2 liters" ||
		updated.Priority != domain.PriorityHigh || updated.Category != "errands" {
		t.Errorf("omitted fields changed: %+v", updated)
	}
	if updated.UpdatedAt == nil {
		t.Error("updated_at not set")
	}
}

func TestUpdateEmptyPatchIsNoOp(t *testing.T) {
	repo := newFakeTaskRepo()
	uc := New(repo, nil)

	created, err := uc.Create(context.Background(), 1, CreateInput{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := uc.Update(context.Background(), created.ID, 1, UpdatePatch{})
	if err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if got.Title != created.Title || got.IsCompleted != created.IsCompleted || got.Priority != created.Priority {
		t.Errorf("empty patch changed the task: %+v", got)
	}
	if repo.updates != 0 {
		t.Errorf("repository updates = %d, want 0 for an empty patch", repo.updates)
	}
}

func TestUpdateRevalidatesResult(t *testing.T) {
	repo := newFakeTaskRepo()
	uc := New(repo, nil)

	created, err := uc.Create(context.Background(), 1, CreateInput{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := uc.Update(context.Background(), created.ID, 1, UpdatePatch{Title: strPtr("")}); !domain.IsDomainError(err, domain.ErrCodeValidation) {
		t.Errorf("empty title: got %v, want a validation error", err)
	}
	if _, err := uc.Update(context.Background(), created.ID, 1, UpdatePatch{Priority: strPtr("urgent")}); !domain.IsDomainError(err, domain.ErrCodeValidation) {
		t.Errorf("bad priority: got %v, want a validation error", err)
	}
}

func TestListScopedToOwner(t *testing.T) {
	repo := newFakeTaskRepo()
	uc := New(repo, nil)

	if _, err := uc.Create(context.Background(), 1, CreateInput{Title: "a"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := uc.Create(context.Background(), 2, CreateInput{Title: "b"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := uc.List(context.Background(), 1, 100, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 || mine[0].Title != "a" {
		t.Errorf("list = %+v, want only owner 1's task", mine)
	}
}
