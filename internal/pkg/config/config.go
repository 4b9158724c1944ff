package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/Vodeneev/parlaybot/internal/pkg/engine"
)

type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	API      APIConfig      `yaml:"api"`
	Cache    CacheConfig    `yaml:"cache"`
	Postgres PostgresConfig `yaml:"postgres"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Telegram TelegramConfig `yaml:"telegram"`
	Rowdie   RowdieConfig   `yaml:"rowdie"`
	Engine   engine.Config  `yaml:"engine"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // optional JSON log file, appended
}

// APIConfig configures the football prediction API client.
type APIConfig struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	Timezone          string        `yaml:"timezone"`
	AllowedLeagues    []int         `yaml:"allowed_leagues"`
	Timeout           time.Duration `yaml:"timeout"`
	Retries           int           `yaml:"retries"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
}

// Location resolves the configured timezone; fixture days are computed in it.
func (c APIConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type CacheConfig struct {
	Driver string `yaml:"driver"` // "redis" or "file"
	Dir    string `yaml:"dir"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	FixtureTTL time.Duration `yaml:"fixture_ttl"`
	// Predictions stay cached until kickoff minus PredictionLead.
	PredictionLead time.Duration `yaml:"prediction_lead"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type AnalyzerConfig struct {
	Listen      string `yaml:"listen"`
	ReportLimit int    `yaml:"report_limit"`

	// Async processing settings
	AsyncEnabled         bool          `yaml:"async_enabled"`
	AsyncInterval        time.Duration `yaml:"async_interval"`
	AlertCooldownMinutes int           `yaml:"alert_cooldown_minutes"`
}

type TelegramConfig struct {
	BotToken    string  `yaml:"bot_token"`
	ChatID      int64   `yaml:"chat_id"`     // alert channel of the analyzer
	AdminIDs    []int64 `yaml:"admin_ids"`   // notified about new bot users
	AnalyzerURL string  `yaml:"analyzer_url"`
}

type RowdieConfig struct {
	URL         string        `yaml:"url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxLoadMore int           `yaml:"max_load_more"`
	// Timezone the page prints kickoffs in; empty means api.timezone.
	Timezone string `yaml:"timezone"`
}

// Location resolves the page timezone, falling back to fallback when none is set.
func (c RowdieConfig) Location(fallback *time.Location) (*time.Location, error) {
	if c.Timezone == "" {
		return fallback, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid rowdie timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DefaultAllowedLeagues are the competitions evaluated when the config lists none.
var DefaultAllowedLeagues = []int{1, 2, 3, 39, 61, 78, 88, 98, 113, 119, 140, 144, 253, 292, 307}

// Default returns the configuration used for keys missing from the YAML file.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		API: APIConfig{
			BaseURL:           "https://v3.football.api-sports.io",
			Timezone:          "Asia/Makassar",
			AllowedLeagues:    append([]int(nil), DefaultAllowedLeagues...),
			Timeout:           15 * time.Second,
			Retries:           2,
			RequestsPerMinute: 10,
		},
		Cache: CacheConfig{
			Driver:         "file",
			Dir:            "cache",
			FixtureTTL:     24 * time.Hour,
			PredictionLead: 30 * time.Minute,
		},
		Analyzer: AnalyzerConfig{
			Listen:               ":8080",
			ReportLimit:          20,
			AsyncInterval:        30 * time.Minute,
			AlertCooldownMinutes: 180,
		},
		Telegram: TelegramConfig{
			AnalyzerURL: "http://localhost:8080",
		},
		Rowdie: RowdieConfig{
			URL:         "https://www.rowdie.co.uk/predictions/",
			Timeout:     90 * time.Second,
			MaxLoadMore: 20,
		},
		Engine: engine.DefaultConfig(),
	}
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Engine.Validate(); err != nil {
		return nil, err
	}
	if _, err := config.API.Location(); err != nil {
		return nil, err
	}
	if _, err := config.Rowdie.Location(time.UTC); err != nil {
		return nil, err
	}

	return &config, nil
}

// ApplyEnv overrides secrets and endpoints from the environment and returns the names
// of the variables that were applied.
func (c *Config) ApplyEnv(getenv func(string) string) []string {
	var applied []string
	set := func(name string, apply func(v string) bool) {
		if v := strings.TrimSpace(getenv(name)); v != "" && apply(v) {
			applied = append(applied, name)
		}
	}

	set("API_KEY", func(v string) bool { c.API.APIKey = v; return true })
	set("TELEGRAM_BOT_TOKEN", func(v string) bool { c.Telegram.BotToken = v; return true })
	set("TELEGRAM_CHAT_ID", func(v string) bool {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return false
		}
		c.Telegram.ChatID = id
		return true
	})
	set("POSTGRES_DSN", func(v string) bool { c.Postgres.DSN = v; return true })
	set("REDIS_ADDR", func(v string) bool {
		c.Cache.RedisAddr = v
		c.Cache.Driver = "redis"
		return true
	})
	set("ANALYZER_URL", func(v string) bool { c.Telegram.AnalyzerURL = v; return true })

	return applied
}
