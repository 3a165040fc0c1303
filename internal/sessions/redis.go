package sessions

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/bmvault/internal/db"
	"github.com/user/bmvault/internal/models"
)

const keyPrefix = "bmvault:session:"

func sessionKey(token string) string { return keyPrefix + token }

// RedisBackend stores each session as a hash that expires with the session.
type RedisBackend struct {
	rdb *redis.Client
}

func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

func (b *RedisBackend) SaveSession(ctx context.Context, s models.Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	key := sessionKey(s.Token)
	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"user_id", s.UserID,
			"expires_at", s.ExpiresAt.UTC().Unix(),
		)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

func (b *RedisBackend) LoadSession(ctx context.Context, token string) (models.Session, error) {
	vals, err := b.rdb.HGetAll(ctx, sessionKey(token)).Result()
	if err != nil {
		return models.Session{}, err
	}
	if len(vals) == 0 {
		return models.Session{}, db.ErrNotFound
	}

	userID, err := strconv.ParseInt(vals["user_id"], 10, 64)
	if err != nil {
		return models.Session{}, errors.New("corrupt session record")
	}
	exp, err := strconv.ParseInt(vals["expires_at"], 10, 64)
	if err != nil {
		return models.Session{}, errors.New("corrupt session record")
	}
	return models.Session{Token: token, UserID: userID, ExpiresAt: time.Unix(exp, 0).UTC()}, nil
}

func (b *RedisBackend) DeleteSession(ctx context.Context, token string) error {
	return b.rdb.Del(ctx, sessionKey(token)).Err()
}

// Ping lets the health endpoint report on redis.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}
