package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Vodeneev/parlaybot/internal/pkg/models"
	"github.com/Vodeneev/parlaybot/internal/pkg/storage"
)

// HTTPClient calls the analyzer HTTP API; the bot uses it.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client for the analyzer at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &HTTPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Reports fetches evaluations of up to limit upcoming fixtures.
func (c *HTTPClient) Reports(ctx context.Context, limit int) ([]Report, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var reports []Report
	if err := c.do(ctx, http.MethodGet, "/reports", q, nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// Tips fetches the scraped tips of "today" or "tomorrow".
func (c *HTTPClient) Tips(ctx context.Context, day string) (string, []models.Tip, error) {
	q := url.Values{}
	q.Set("day", day)
	var resp tipsResponse
	if err := c.do(ctx, http.MethodGet, "/tips", q, nil, &resp); err != nil {
		return "", nil, err
	}
	return resp.Label, resp.Tips, nil
}

// RegisterUser records a bot user and reports whether it is new.
func (c *HTTPClient) RegisterUser(ctx context.Context, user storage.BotUser) (bool, error) {
	var resp struct {
		Created bool `json:"created"`
	}
	if err := c.do(ctx, http.MethodPost, "/users", nil, user, &resp); err != nil {
		return false, err
	}
	return resp.Created, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	if c == nil {
		return fmt.Errorf("HTTP client is not configured")
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to analyzer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]string
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &errResp) == nil && errResp["error"] != "" {
			return fmt.Errorf("analyzer: %s", errResp["error"])
		}
		return fmt.Errorf("analyzer returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
