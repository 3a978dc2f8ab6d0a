// Package clients holds the read-only HTTP clients for the room and user
// services. Lookups can be served from an optional redis cache; a cache
// miss, a stale entry, or no redis at all falls through to the origin.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const requestTimeout = 10 * time.Second

// Client is the shared HTTP transport for reference-data lookups.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// New constructs a client for the service at baseURL.
func New(baseURL string, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// UseRedisCache enables caching of GET lookups with the given TTL.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// getEnvelope fetches path and decodes the {success, data, message} envelope
// into data. It reports found=false on 404 or an unsuccessful envelope, and
// a non-nil error only for transport-level failures.
func (c *Client) getEnvelope(ctx context.Context, path string, data any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode >= 300 {
		return false, fmt.Errorf("get %s: http %d", path, resp.StatusCode)
	}

	var wrap struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrap); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	if !wrap.Success || len(wrap.Data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(wrap.Data, data); err != nil {
		return false, fmt.Errorf("decode %s data: %w", path, err)
	}
	return true, nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}
