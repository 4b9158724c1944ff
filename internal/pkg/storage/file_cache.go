package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/Vodeneev/parlaybot/internal/pkg/models"
)

var _ Cache = (*FileCache)(nil)

// FileCache stores API responses as JSON files in one directory.
// Expired files are removed lazily when read.
type FileCache struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// cacheEntry is the on-disk layout of every cache file.
type cacheEntry struct {
	ExpiresAt time.Time       `json:"expires_at"`
	Data      json.RawMessage `json:"data"`
}

func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

func (c *FileCache) fixturesPath(day string) string {
	return filepath.Join(c.dir, "fixtures_"+day+".json")
}

func (c *FileCache) predictionPath(fixtureID int) string {
	return filepath.Join(c.dir, "prediction_"+strconv.Itoa(fixtureID)+".json")
}

func (c *FileCache) GetFixtures(_ context.Context, day string) ([]models.Fixture, error) {
	var fixtures []models.Fixture
	if err := c.read(c.fixturesPath(day), &fixtures); err != nil {
		return nil, err
	}
	return fixtures, nil
}

func (c *FileCache) PutFixtures(_ context.Context, day string, fixtures []models.Fixture, ttl time.Duration) error {
	return c.write(c.fixturesPath(day), fixtures, c.now().Add(ttl))
}

func (c *FileCache) GetPrediction(_ context.Context, fixtureID int) (*models.PredictionPayload, error) {
	var p models.PredictionPayload
	if err := c.read(c.predictionPath(fixtureID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *FileCache) PutPrediction(_ context.Context, fixtureID int, p *models.PredictionPayload, expiresAt time.Time) error {
	return c.write(c.predictionPath(fixtureID), p, expiresAt)
}

func (c *FileCache) read(path string, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("failed to read cache file: %w", err)
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(path)
		return ErrCacheMiss
	}
	if !c.now().Before(entry.ExpiresAt) {
		_ = os.Remove(path)
		return ErrCacheMiss
	}
	if err := json.Unmarshal(entry.Data, out); err != nil {
		return fmt.Errorf("failed to decode cache file %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (c *FileCache) write(path string, v any, expiresAt time.Time) error {
	if !c.now().Before(expiresAt) {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	blob, err := json.Marshal(cacheEntry{ExpiresAt: expiresAt, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

func (c *FileCache) Close() error { return nil }
