// Package cache хранит снимки состава команд в Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"team-roster-service/internal/model"
)

// DefaultTTL: время жизни снимка, если не задано иное.
const DefaultTTL = 5 * time.Minute

const (
	keyPrefix = "roster:"
	genSuffix = ":gen"
)

var errGenerationMoved = errors.New("roster generation moved")

// RosterCache реализует кеш снимков состава поверх Redis.
type RosterCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRosterCache подключается к Redis по URL и проверяет соединение.
func NewRosterCache(ctx context.Context, redisURL string, ttl time.Duration) (*RosterCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return New(client, ttl), nil
}

// New оборачивает готовый клиент Redis.
func New(client *redis.Client, ttl time.Duration) *RosterCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RosterCache{client: client, ttl: ttl}
}

func key(collectiveID string) string {
	return keyPrefix + collectiveID
}

func genKey(collectiveID string) string {
	return keyPrefix + collectiveID + genSuffix
}

// Get возвращает снимок из кеша; ok=false, если записи нет.
func (c *RosterCache) Get(ctx context.Context, collectiveID string) (model.RosterSnapshot, bool, error) {
	data, err := c.client.Get(ctx, key(collectiveID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.RosterSnapshot{}, false, nil
		}
		return model.RosterSnapshot{}, false, err
	}

	var snap model.RosterSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.RosterSnapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

// Generation возвращает текущее поколение коллектива; 0, если инвалидаций ещё не было.
func (c *RosterCache) Generation(ctx context.Context, collectiveID string) (int64, error) {
	gen, err := c.client.Get(ctx, genKey(collectiveID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	return gen, nil
}

// Set сохраняет снимок с TTL кеша, если поколение коллектива всё ещё равно generation.
// Иначе снимок молча отбрасывается.
func (c *RosterCache) Set(ctx context.Context, snap model.RosterSnapshot, generation int64) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	gk := genKey(snap.CollectiveID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gk).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != generation {
			return errGenerationMoved
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(snap.CollectiveID), data, c.ttl)
			return nil
		})
		return err
	}, gk)
	if errors.Is(err, errGenerationMoved) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate удаляет снимок коллектива и сдвигает его поколение.
func (c *RosterCache) Invalidate(ctx context.Context, collectiveID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey(collectiveID))
		pipe.Del(ctx, key(collectiveID))
		return nil
	})
	return err
}

// Close закрывает соединение с Redis.
func (c *RosterCache) Close() error {
	return c.client.Close()
}
