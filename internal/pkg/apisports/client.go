// Package apisports is a client for the football prediction API (v3.football.api-sports.io).
package apisports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Vodeneev/parlaybot/internal/pkg/config"
	"github.com/Vodeneev/parlaybot/internal/pkg/models"
)

var (
	// ErrNoPrediction is returned when the API has no prediction for a fixture.
	ErrNoPrediction = errors.New("no prediction for fixture")
	// ErrAPI wraps errors reported in the response envelope.
	ErrAPI = errors.New("api error")
)

const (
	apiKeyHeader  = "x-apisports-key"
	statusNotLive = "NS"
)

// Client fetches fixtures and predictions. Requests are paced by a token bucket.
type Client struct {
	baseURL    string
	apiKey     string
	timezone   string
	retries    int
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client from the api config section.
func NewClient(cfg config.APIConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api base_url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required (set api.api_key or API_KEY env var)")
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retries := cfg.Retries
	if retries < 1 {
		retries = 1
	}

	return &Client{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		timezone: cfg.Timezone,
		retries:  retries,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// envelope is the common response wrapper. errors is [] when empty and an object otherwise.
type envelope struct {
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Response json.RawMessage `json:"response"`
}

func (e envelope) err() error {
	raw := bytes.TrimSpace(e.Errors)
	if len(raw) == 0 || bytes.Equal(raw, []byte("[]")) || bytes.Equal(raw, []byte("{}")) || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var byField map[string]string
	if err := json.Unmarshal(raw, &byField); err == nil {
		parts := make([]string, 0, len(byField))
		for k, v := range byField {
			parts = append(parts, k+": "+v)
		}
		return fmt.Errorf("%w: %s", ErrAPI, strings.Join(parts, "; "))
	}
	return fmt.Errorf("%w: %s", ErrAPI, string(raw))
}

type fixtureItem struct {
	Fixture struct {
		ID   int       `json:"id"`
		Date time.Time `json:"date"`
	} `json:"fixture"`
	League struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"league"`
	Teams struct {
		Home struct {
			Name string `json:"name"`
		} `json:"home"`
		Away struct {
			Name string `json:"name"`
		} `json:"away"`
	} `json:"teams"`
}

// Fixtures returns the not started fixtures of day (YYYY-MM-DD in the configured timezone).
func (c *Client) Fixtures(ctx context.Context, day string) ([]models.Fixture, error) {
	q := url.Values{}
	q.Set("date", day)
	q.Set("status", statusNotLive)
	if c.timezone != "" {
		q.Set("timezone", c.timezone)
	}

	var items []fixtureItem
	if err := c.get(ctx, "/fixtures", q, &items); err != nil {
		return nil, err
	}

	fixtures := make([]models.Fixture, 0, len(items))
	for _, it := range items {
		fixtures = append(fixtures, models.Fixture{
			ID:         it.Fixture.ID,
			Kickoff:    it.Fixture.Date,
			LeagueID:   it.League.ID,
			LeagueName: it.League.Name,
			Home:       it.Teams.Home.Name,
			Away:       it.Teams.Away.Name,
		})
	}
	return fixtures, nil
}

// Prediction returns the prediction payload of a fixture.
func (c *Client) Prediction(ctx context.Context, fixtureID int) (*models.PredictionPayload, error) {
	q := url.Values{}
	q.Set("fixture", strconv.Itoa(fixtureID))

	var items []models.PredictionPayload
	if err := c.get(ctx, "/predictions", q, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("fixture %d: %w", fixtureID, ErrNoPrediction)
	}
	return &items[0], nil
}

// get performs a paced GET with up to c.retries attempts and decodes the response field into out.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path + "?" + q.Encode()

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		body, retry, err := c.do(ctx, u)
		if err == nil {
			var env envelope
			if err := json.Unmarshal(body, &env); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			if err := env.err(); err != nil {
				return err
			}
			if len(env.Response) == 0 || bytes.Equal(env.Response, []byte("null")) {
				return nil
			}
			if err := json.Unmarshal(env.Response, out); err != nil {
				return fmt.Errorf("failed to decode %s response: %w", path, err)
			}
			return nil
		}

		lastErr = err
		if !retry {
			break
		}
		slog.Warn("apisports: request failed, retrying", "path", path, "attempt", attempt, "error", err)
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, u string) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("failed to fetch %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		retry = resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, false, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
