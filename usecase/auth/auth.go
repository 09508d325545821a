package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/internal/infrastructure/audit"
	"github.com/taskforge/backend/pkg/password"
	"github.com/taskforge/backend/pkg/token"
	"github.com/taskforge/backend/repository"
	"github.com/taskforge/backend/usecase"
)

// enumerationDummyHash is a valid bcrypt hash of a random throwaway value.
// Login verifies against it when the username is unknown so the two failure
// modes take comparable time and are indistinguishable to the caller.
const enumerationDummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

type UseCase struct {
	users    repository.UserRepository
	cache    repository.UserCache
	hasher   *password.Hasher
	tokens   *token.Service
	tokenTTL time.Duration
	audit    usecase.AuditRecorder
	logger   *zap.Logger
}

func New(
	users repository.UserRepository,
	cache repository.UserCache,
	hasher *password.Hasher,
	tokens *token.Service,
	tokenTTL time.Duration,
	recorder usecase.AuditRecorder,
	logger *zap.Logger,
) *UseCase {
	if tokenTTL <= 0 {
		tokenTTL = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		cache:    cache,
		hasher:   hasher,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		audit:    recorder,
		logger:   logger,
	}
}

// Login verifies the credentials and issues a bearer token. An unknown
// username and a wrong password both come back as ErrInvalidCredentials.
func (uc *UseCase) Login(ctx context.Context, username, plaintext string) (string, error) {
	user, err := uc.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			uc.hasher.Verify(ctx, plaintext, enumerationDummyHash)
			uc.recordFailure(ctx, username)
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if !uc.hasher.Verify(ctx, plaintext, user.PasswordHash) {
		uc.recordFailure(ctx, username)
		return "", domain.ErrInvalidCredentials
	}

	signed, err := uc.tokens.Issue(user.Username, uc.tokenTTL)
	if err != nil {
		return "", err
	}

	if uc.audit != nil {
		uc.audit.RecordEvent(ctx, audit.EventLoginSucceeded, user.Username, "")
	}
	return signed, nil
}

// CurrentUser resolves a bearer token to the user it names. Every failure
// mode, including a token for a since-deleted user, is the same
// ErrInvalidCredentials.
func (uc *UseCase) CurrentUser(ctx context.Context, rawToken string) (*domain.User, error) {
	username, err := uc.tokens.Decode(rawToken)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if user := uc.fromCache(ctx, username); user != nil {
		return user, nil
	}

	user, err := uc.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	uc.toCache(ctx, user)
	return user, nil
}

// TokenTTL reports the configured token lifetime.
func (uc *UseCase) TokenTTL() time.Duration {
	return uc.tokenTTL
}

func (uc *UseCase) fromCache(ctx context.Context, username string) *domain.User {
	if uc.cache == nil {
		return nil
	}
	user, err := uc.cache.Get(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrCacheMiss) {
			uc.logger.Warn("user cache read failed", zap.Error(err))
		}
		return nil
	}
	return user
}

func (uc *UseCase) toCache(ctx context.Context, user *domain.User) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, user); err != nil {
		uc.logger.Warn("user cache write failed", zap.Error(err))
	}
}

func (uc *UseCase) recordFailure(ctx context.Context, username string) {
	if uc.audit != nil {
		uc.audit.RecordEvent(ctx, audit.EventLoginFailed, username, "")
	}
}
