package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/Vodeneev/parlaybot/internal/pkg/config"
	"github.com/Vodeneev/parlaybot/internal/pkg/engine"
	"github.com/Vodeneev/parlaybot/internal/pkg/models"
)

// Ensure PostgresReportStorage implements ReportStorage
var _ ReportStorage = (*PostgresReportStorage)(nil)

// PostgresReportStorage stores evaluations, sent alerts and bot users in PostgreSQL.
type PostgresReportStorage struct {
	db *sql.DB
}

// NewPostgresReportStorage opens the database and creates the schema.
func NewPostgresReportStorage(cfg *config.PostgresConfig) (*PostgresReportStorage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresReportStorage{db: db}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL report storage initialized successfully")
	return s, nil
}

func (s *PostgresReportStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS evaluations (
		id SERIAL PRIMARY KEY,
		fixture_id INTEGER NOT NULL,
		match_name VARCHAR(500) NOT NULL,
		league_id INTEGER NOT NULL,
		kickoff TIMESTAMPTZ NOT NULL,
		pick VARCHAR(200) NOT NULL,
		confidence_percent INTEGER NOT NULL,
		model VARCHAR(20) NOT NULL,
		hdp_home VARCHAR(20) NOT NULL,
		hdp_away VARCHAR(20) NOT NULL,
		hdp_score INTEGER NOT NULL,
		sync_tag VARCHAR(50) NOT NULL,
		payload JSONB NOT NULL,
		evaluated_at TIMESTAMPTZ NOT NULL,
		UNIQUE(fixture_id, evaluated_at)
	);

	CREATE INDEX IF NOT EXISTS idx_evaluations_fixture_id ON evaluations(fixture_id);
	CREATE INDEX IF NOT EXISTS idx_evaluations_evaluated_at ON evaluations(evaluated_at DESC);

	CREATE TABLE IF NOT EXISTS alerts (
		fixture_id INTEGER PRIMARY KEY,
		sent_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bot_users (
		chat_id BIGINT PRIMARY KEY,
		username VARCHAR(200) NOT NULL DEFAULT '',
		first_seen TIMESTAMPTZ NOT NULL
	);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// StoreEvaluation saves an evaluation; a duplicate (fixture, evaluated_at) is ignored.
func (s *PostgresReportStorage) StoreEvaluation(ctx context.Context, fixture models.Fixture, ev engine.Evaluation, evaluatedAt time.Time) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation: %w", err)
	}

	query := `
	INSERT INTO evaluations (
		fixture_id, match_name, league_id, kickoff,
		pick, confidence_percent, model, hdp_home, hdp_away,
		hdp_score, sync_tag, payload, evaluated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (fixture_id, evaluated_at) DO NOTHING
	`

	_, err = s.db.ExecContext(ctx, query,
		fixture.ID,
		fixture.Name(),
		fixture.LeagueID,
		fixture.Kickoff,
		ev.Decision.Pick,
		ev.Decision.ConfidencePercent,
		string(ev.Hdp.Model),
		ev.Hdp.HdpHome,
		ev.Hdp.HdpAway,
		ev.HdpConfidence.Score,
		ev.Sync.Tag,
		payload,
		evaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store evaluation: %w", err)
	}
	return nil
}

func (s *PostgresReportStorage) GetLastAlert(ctx context.Context, fixtureID int) (time.Time, error) {
	var sentAt time.Time
	err := s.db.QueryRowContext(ctx, `SELECT sent_at FROM alerts WHERE fixture_id = $1`, fixtureID).Scan(&sentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last alert: %w", err)
	}
	return sentAt, nil
}

func (s *PostgresReportStorage) MarkAlerted(ctx context.Context, fixtureID int, sentAt time.Time) error {
	query := `
	INSERT INTO alerts (fixture_id, sent_at) VALUES ($1, $2)
	ON CONFLICT (fixture_id) DO UPDATE SET sent_at = EXCLUDED.sent_at
	`
	if _, err := s.db.ExecContext(ctx, query, fixtureID, sentAt); err != nil {
		return fmt.Errorf("failed to mark alert: %w", err)
	}
	return nil
}

func (s *PostgresReportStorage) RegisterUser(ctx context.Context, user BotUser) (bool, error) {
	if user.FirstSeen.IsZero() {
		user.FirstSeen = time.Now()
	}
	query := `
	INSERT INTO bot_users (chat_id, username, first_seen) VALUES ($1, $2, $3)
	ON CONFLICT (chat_id) DO NOTHING
	RETURNING chat_id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query, user.ChatID, user.Username, user.FirstSeen).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// Already registered (conflict)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to register user: %w", err)
	}
	return true, nil
}

// Close closes the database connection
func (s *PostgresReportStorage) Close() error {
	return s.db.Close()
}
