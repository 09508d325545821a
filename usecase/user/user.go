package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/internal/infrastructure/audit"
	"github.com/taskforge/backend/pkg/password"
	"github.com/taskforge/backend/repository"
	"github.com/taskforge/backend/usecase"
)

type UseCase struct {
	users  repository.UserRepository
	cache  repository.UserCache
	hasher *password.Hasher
	audit  usecase.AuditRecorder
	logger *zap.Logger
}

func New(
	users repository.UserRepository,
	cache repository.UserCache,
	hasher *password.Hasher,
	recorder usecase.AuditRecorder,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		cache:  cache,
		hasher: hasher,
		audit:  recorder,
		logger: logger,
	}
}

// Register validates, hashes and persists a new account. The pre-checks give
// deterministic conflict ordering (email before username); the insert's
// unique constraints remain the authoritative duplicate signal, so a racing
// registration still surfaces as the right conflict rather than a 500.
func (uc *UseCase) Register(ctx context.Context, email, username, plaintext string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if err := validateRegistration(email, username, plaintext); err != nil {
		return nil, err
	}

	if err := uc.checkAvailable(ctx, email, username); err != nil {
		return nil, err
	}

	hash, err := uc.hasher.Hash(ctx, plaintext)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "hashing capacity exhausted", err)
	}

	created := &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	}
	if err := uc.users.Create(ctx, created); err != nil {
		return nil, err
	}

	if uc.audit != nil {
		uc.audit.RecordEvent(ctx, audit.EventUserRegistered, created.Username, "")
	}
	return created, nil
}

// Delete removes the account; owned tasks cascade at the storage layer.
func (uc *UseCase) Delete(ctx context.Context, userID int64) error {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := uc.users.Delete(ctx, user.ID); err != nil {
		return err
	}

	uc.invalidate(ctx, user.Username)
	if uc.audit != nil {
		uc.audit.RecordEvent(ctx, audit.EventUserDeleted, user.Username, "")
	}
	return nil
}

// DeletedUser identifies an account removed by CleanupTestUsers.
type DeletedUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// CleanupResult summarizes a test-cleanup run.
type CleanupResult struct {
	Message      string        `json:"message"`
	DeletedCount int           `json:"deleted_count"`
	DeletedUsers []DeletedUser `json:"deleted_users"`
}

// CleanupTestUsers deletes accounts by explicit id and by glob-style
// username pattern (`*` and `?` wildcards). Strictly test hygiene; the
// handler keeps it off outside test mode.
func (uc *UseCase) CleanupTestUsers(ctx context.Context, userIDs []int64, patterns []string) (*CleanupResult, error) {
	result := &CleanupResult{DeletedUsers: []DeletedUser{}}
	seen := make(map[int64]bool)

	remove := func(u *domain.User) error {
		if seen[u.ID] {
			return nil
		}
		if err := uc.users.Delete(ctx, u.ID); err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil
			}
			return err
		}
		seen[u.ID] = true
		result.DeletedUsers = append(result.DeletedUsers, DeletedUser{ID: u.ID, Username: u.Username})
		result.DeletedCount++
		uc.invalidate(ctx, u.Username)
		return nil
	}

	for _, id := range userIDs {
		user, err := uc.users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				continue
			}
			return nil, err
		}
		if err := remove(user); err != nil {
			return nil, err
		}
	}

	for _, pattern := range patterns {
		matches, err := uc.users.FindByUsernameLike(ctx, globToLike(pattern))
		if err != nil {
			return nil, err
		}
		for i := range matches {
			if err := remove(&matches[i]); err != nil {
				return nil, err
			}
		}
	}

	if uc.audit != nil {
		uc.audit.RecordEvent(ctx, audit.EventTestCleanup, "", fmt.Sprintf("deleted %d user(s)", result.DeletedCount))
	}
	result.Message = fmt.Sprintf("Successfully deleted %d test user(s)", result.DeletedCount)
	return result, nil
}

// checkAvailable is the fast-path duplicate probe: email first so a request
// colliding on both reports the email conflict.
func (uc *UseCase) checkAvailable(ctx context.Context, email, username string) error {
	if _, err := uc.users.GetByEmail(ctx, email); err == nil {
		return domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	if _, err := uc.users.GetByUsername(ctx, username); err == nil {
		return domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	return nil
}

func (uc *UseCase) invalidate(ctx context.Context, username string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, username); err != nil {
		uc.logger.Warn("user cache invalidation failed",
			zap.String("username", username),
			zap.Error(err),
		)
	}
}

// globToLike translates glob wildcards to their SQL LIKE equivalents.
// Literal `%`, `_` and `\` in the pattern are escaped first so only the glob
// wildcards match broadly.
func globToLike(pattern string) string {
	return strings.NewReplacer(
		`\`, `\\`,
		"%", `\%`,
		"_", `\_`,
		"*", "%",
		"?", "_",
	).Replace(pattern)
}
