package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Vodeneev/parlaybot/internal/pkg/engine"
	"github.com/Vodeneev/parlaybot/internal/pkg/models"
)

// ErrCacheMiss is returned by caches for absent or expired entries.
var ErrCacheMiss = errors.New("cache miss")

// Cache keeps API responses between requests.
type Cache interface {
	// GetFixtures returns the cached fixture list of a day (YYYY-MM-DD).
	GetFixtures(ctx context.Context, day string) ([]models.Fixture, error)
	// PutFixtures caches a day's fixture list for ttl.
	PutFixtures(ctx context.Context, day string, fixtures []models.Fixture, ttl time.Duration) error

	// GetPrediction returns the cached prediction payload of a fixture.
	GetPrediction(ctx context.Context, fixtureID int) (*models.PredictionPayload, error)
	// PutPrediction caches a payload until expiresAt. Entries already expired are not stored.
	PutPrediction(ctx context.Context, fixtureID int, p *models.PredictionPayload, expiresAt time.Time) error

	Close() error
}

// BotUser is a chat that started the bot.
type BotUser struct {
	ChatID    int64     `json:"chat_id"`
	Username  string    `json:"username"`
	FirstSeen time.Time `json:"first_seen"`
}

// ReportStorage keeps evaluation history, alert bookkeeping and bot users.
type ReportStorage interface {
	// StoreEvaluation saves one evaluation of a fixture.
	StoreEvaluation(ctx context.Context, fixture models.Fixture, ev engine.Evaluation, evaluatedAt time.Time) error

	// GetLastAlert returns when an alert was last sent for a fixture, or the zero time.
	GetLastAlert(ctx context.Context, fixtureID int) (time.Time, error)
	// MarkAlerted records an alert for a fixture.
	MarkAlerted(ctx context.Context, fixtureID int, sentAt time.Time) error

	// RegisterUser stores a bot user. Returns true if the user was newly inserted.
	RegisterUser(ctx context.Context, user BotUser) (bool, error)

	Close() error
}
