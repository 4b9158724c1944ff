package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vodeneev/parlaybot/internal/pkg/config"
	"github.com/Vodeneev/parlaybot/internal/pkg/models"
)

const redisKeyPrefix = "parlay:"

var _ Cache = (*RedisCache)(nil)

// RedisCache stores API responses in Redis; expiry is left to Redis TTLs.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg *config.CacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Check connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

func fixturesKey(day string) string {
	return redisKeyPrefix + "fixtures:" + day
}

func predictionKey(fixtureID int) string {
	return redisKeyPrefix + "prediction:" + strconv.Itoa(fixtureID)
}

func (r *RedisCache) GetFixtures(ctx context.Context, day string) ([]models.Fixture, error) {
	var fixtures []models.Fixture
	if err := r.getJSON(ctx, fixturesKey(day), &fixtures); err != nil {
		return nil, err
	}
	return fixtures, nil
}

func (r *RedisCache) PutFixtures(ctx context.Context, day string, fixtures []models.Fixture, ttl time.Duration) error {
	return r.setJSON(ctx, fixturesKey(day), fixtures, ttl)
}

func (r *RedisCache) GetPrediction(ctx context.Context, fixtureID int) (*models.PredictionPayload, error) {
	var p models.PredictionPayload
	if err := r.getJSON(ctx, predictionKey(fixtureID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RedisCache) PutPrediction(ctx context.Context, fixtureID int, p *models.PredictionPayload, expiresAt time.Time) error {
	return r.setJSON(ctx, predictionKey(fixtureID), p, time.Until(expiresAt))
}

func (r *RedisCache) getJSON(ctx context.Context, key string, out any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

// Close closes the Redis connection.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
