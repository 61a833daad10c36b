// Package oddsapi fetches per-league odds from The Odds API (v4).
//
// One call returns every upcoming game of a sport with all bookmakers' quotes for the
// configured markets, in decimal format. Fetches are not retried: a failure is returned
// to the caller immediately so it can be shown to the user.
package oddsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rewired-gh/oddsbot/internal/logger"
	"github.com/rewired-gh/oddsbot/internal/models"
)

// maxErrorBody caps how much of an error response is kept for the message.
const maxErrorBody = 512

// Client provides access to The Odds API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cfg        ClientConfig
}

// ClientConfig holds request and transport settings for the client.
type ClientConfig struct {
	Regions             string
	Markets             []string
	OddsFormat          string
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// StatusError is returned when the feed answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Quota reports the request allowance headers sent with every response.
type Quota struct {
	Remaining int
	Used      int
}

// NewClient creates a new Odds API client
func NewClient(baseURL, apiKey string, timeout time.Duration, cfg ClientConfig) *Client {
	if cfg.Regions == "" {
		cfg.Regions = "us"
	}
	if len(cfg.Markets) == 0 {
		cfg.Markets = append([]string(nil), models.MarketKeys...)
	}
	if cfg.OddsFormat == "" {
		cfg.OddsFormat = "decimal"
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 10
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 5
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		cfg: cfg,
	}
}

// FetchOdds retrieves every game with odds for one sport key.
// Games without an ID are dropped since they cannot be selected.
func (c *Client) FetchOdds(ctx context.Context, sportKey string) ([]models.Game, error) {
	if sportKey == "" {
		return nil, errors.New("sport key is required")
	}

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", c.cfg.Regions)
	params.Set("markets", strings.Join(c.cfg.Markets, ","))
	params.Set("oddsFormat", c.cfg.OddsFormat)
	reqURL := fmt.Sprintf("%s/sports/%s/odds/?%s", c.baseURL, url.PathEscape(sportKey), params.Encode())

	resp, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: errorMessage(body)}
	}

	if q, ok := parseQuota(resp.Header); ok {
		logger.Debug("Odds API quota for %s: %d used, %d remaining", sportKey, q.Used, q.Remaining)
	}

	var payload []models.Game
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode odds: %w", err)
	}

	games := payload[:0]
	for i := range payload {
		if err := payload[i].Validate(); err != nil {
			logger.Warn("Dropping game %d from %s: %v", i, sportKey, err)
			continue
		}
		games = append(games, payload[i])
	}

	return games, nil
}

// doRequest performs a single GET. Transport errors are unwrapped from *url.Error so the
// request URL, which carries the API key, never reaches an error message.
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// errorMessage prefers the feed's JSON "message" field over the raw body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(body))
}

func parseQuota(h http.Header) (Quota, bool) {
	remaining, err1 := strconv.Atoi(h.Get("x-requests-remaining"))
	used, err2 := strconv.Atoi(h.Get("x-requests-used"))
	if err1 != nil || err2 != nil {
		return Quota{}, false
	}
	return Quota{Remaining: remaining, Used: used}, true
}
