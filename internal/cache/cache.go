// Package cache — Redis-кэш профилей пользователей для разрешения сессии.
//go:generate mockgen -source=./cache.go -destination=../../mocks/cache.go -package=mocks
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/pribylovaa/wishlist-service/internal/models"
	"github.com/redis/go-redis/v9"
)

// UserCache — минимальный контракт кэша профилей.
type UserCache interface {
	// Get возвращает профиль и признак его наличия в кэше.
	Get(ctx context.Context, userID string) (*models.User, bool, error)
	// Set сохраняет профиль с TTL.
	Set(ctx context.Context, u *models.User, ttl time.Duration) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "wl:user:".
func NewRedisCache(ctx context.Context, redisURL, prefix string) (UserCache, error) {
	if prefix == "" {
		prefix = "wl:user:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(userID string) string { return c.prefix + userID }

// Храним как Redis Hash с полями: name, email.
func (c *redisCache) Get(ctx context.Context, userID string) (*models.User, bool, error) {
	m, err := c.rdb.HGetAll(ctx, c.key(userID)).Result()
	if err != nil {
		return nil, false, err
	}

	if len(m) == 0 {
		return nil, false, nil
	}

	return &models.User{
		ID:    userID,
		Name:  m["name"],
		Email: m["email"],
	}, true, nil
}

func (c *redisCache) Set(ctx context.Context, u *models.User, ttl time.Duration) error {
	if u == nil || u.ID == "" {
		return errors.New("cache: empty user")
	}

	kv := map[string]string{
		"name":  u.Name,
		"email": u.Email,
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, c.key(u.ID), kv)
	pipe.Expire(ctx, c.key(u.ID), ttl)

	_, err := pipe.Exec(ctx)
	return err
}

func (c *redisCache) Close() error { return c.rdb.Close() }
