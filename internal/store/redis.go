package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"sudooom.im.mafia/internal/model"
	sharedRedis "sudooom.im.mafia/shared/redis"
)

// RedisStore 基于 Redis 的会话存储
// 会话以 JSON 文档保存，Save 通过 WATCH + MULTI 实现比较并交换
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisStore 创建 Redis 会话存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    sharedRedis.SessionTTL,
		logger: slog.Default(),
	}
}

func (r *RedisStore) Create(ctx context.Context, s *model.Session) error {
	codeKey := sharedRedis.BuildSessionCodeKey(s.Code)
	ok, err := r.client.SetNX(ctx, codeKey, s.ID, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve session code: %w", err)
	}
	if !ok {
		return ErrCodeTaken
	}

	now := time.Now()
	s.Version = 1
	s.CreatedAt = now
	s.UpdatedAt = now

	data, err := json.Marshal(s)
	if err != nil {
		r.client.Del(ctx, codeKey)
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	created, err := r.client.SetNX(ctx, sharedRedis.BuildSessionKey(s.ID), data, r.ttl).Result()
	if err != nil || !created {
		// 回收房间码
		if delErr := r.client.Del(ctx, codeKey).Err(); delErr != nil {
			r.logger.Warn("Failed to release session code", "code", s.Code, "error", delErr)
		}
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		return ErrVersionConflict
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	data, err := r.client.Get(ctx, sharedRedis.BuildSessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return decodeSession(data)
}

func (r *RedisStore) GetByCode(ctx context.Context, code string) (*model.Session, error) {
	sessionID, err := r.client.Get(ctx, sharedRedis.BuildSessionCodeKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve session code: %w", err)
	}
	return r.Get(ctx, sessionID)
}

func (r *RedisStore) Save(ctx context.Context, s *model.Session, expectedVersion int64) error {
	key := sharedRedis.BuildSessionKey(s.ID)
	version := expectedVersion + 1
	updatedAt := time.Now()

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get session: %w", err)
		}
		current, err := decodeSession(data)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return ErrVersionConflict
		}

		next := *s
		next.Version = version
		next.UpdatedAt = updatedAt
		payload, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			pipe.Expire(ctx, sharedRedis.BuildSessionCodeKey(s.Code), r.ttl)
			return nil
		})
		return err
	}, key)

	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return ErrVersionConflict
		}
		return err
	}

	s.Version = version
	s.UpdatedAt = updatedAt
	return nil
}

func decodeSession(data []byte) (*model.Session, error) {
	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}
