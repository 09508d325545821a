package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/repository"
)

type userCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewUserCache creates a Redis-backed current-user cache. Entries are keyed
// by username and expire after ttl; account deletion invalidates eagerly so
// a stale token can never resolve through the cache.
func NewUserCache(client *redislib.Client, ttl time.Duration) repository.UserCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &userCache{
		client: client,
		prefix: "user:",
		ttl:    ttl,
	}
}

func (c *userCache) Get(ctx context.Context, username string) (*domain.User, error) {
	result, err := c.client.Get(ctx, c.key(username)).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, repository.ErrCacheMiss
		}
		return nil, err
	}

	var cached cachedUser
	if err := json.Unmarshal([]byte(result), &cached); err != nil {
		return nil, err
	}
	return cached.toDomain(), nil
}

func (c *userCache) Set(ctx context.Context, user *domain.User) error {
	if user == nil || user.Username == "" {
		return nil
	}
	payload, err := json.Marshal(fromDomain(user))
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(user.Username), payload, c.ttl).Err()
}

func (c *userCache) Invalidate(ctx context.Context, username string) error {
	return c.client.Del(ctx, c.key(username)).Err()
}

func (c *userCache) key(username string) string {
	return fmt.Sprintf("%s%s", c.prefix, username)
}

// cachedUser carries the hash through the cache so a hit can serve the full
// credential record; domain.User deliberately drops it from JSON.
type cachedUser struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	IsActive     bool      `json:"is_active"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

func fromDomain(u *domain.User) cachedUser {
	return cachedUser{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    u.CreatedAt,
	}
}

func (c cachedUser) toDomain() *domain.User {
	return &domain.User{
		ID:           c.ID,
		Email:        c.Email,
		Username:     c.Username,
		PasswordHash: c.PasswordHash,
		IsActive:     c.IsActive,
		IsAdmin:      c.IsAdmin,
		CreatedAt:    c.CreatedAt,
	}
}
