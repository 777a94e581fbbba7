// Package geocode resolves coordinates to place names through a Nominatim
// reverse-geocoding service.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// Unknown is the sentinel place name used whenever a coordinate cannot be
// resolved. Geocoding failures never propagate: the dashboard renders the
// sentinel instead.
const Unknown = "Unknown Location"

const (
	userAgent = "carspot/1.0"
	cacheTTL  = 30 * 24 * time.Hour
)

// Client handles communication with a Nominatim-compatible reverse
// geocoding endpoint, with an optional Redis read-through cache in front
// of it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	rdb        *redis.Client
	logger     *slog.Logger
	stubMode   bool
}

// NewClient creates a geocoding client. rdb may be nil to disable caching;
// stubMode short-circuits all lookups with a fixed place name for dev.
func NewClient(baseURL string, rdb *redis.Client, stubMode bool, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		rdb:        rdb,
		logger:     logger,
		stubMode:   stubMode,
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		County       string `json:"county"`
		Country      string `json:"country"`
	} `json:"address"`
}

// ReverseGeocode maps a coordinate pair to a human-readable place name. It
// never fails the caller: any error degrades to the Unknown sentinel.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	if c.stubMode {
		return "Stubville"
	}

	key := cacheKey(lat, lon)
	if place, ok := c.cacheGet(ctx, key); ok {
		return place
	}

	place := c.lookup(ctx, lat, lon)
	if place != Unknown {
		c.cacheSet(ctx, key, place)
	}
	return place
}

func (c *Client) lookup(ctx context.Context, lat, lon float64) string {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lon))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		c.logger.Warn("Failed to build geocode request", "error", err.Error())
		return Unknown
	}
	// Nominatim's usage policy requires an identifying user agent.
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Reverse geocode request failed", "error", err.Error())
		return Unknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Reverse geocode returned non-OK status", "status", resp.StatusCode)
		return Unknown
	}

	var payload reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Warn("Failed to decode geocode response", "error", err.Error())
		return Unknown
	}

	for _, candidate := range []string{
		payload.Address.City,
		payload.Address.Town,
		payload.Address.Village,
		payload.Address.Municipality,
		payload.Address.County,
	} {
		if candidate != "" {
			return candidate
		}
	}
	if payload.DisplayName != "" {
		return payload.DisplayName
	}
	return Unknown
}

func (c *Client) cacheGet(ctx context.Context, key string) (string, bool) {
	if c.rdb == nil {
		return "", false
	}
	place, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("Geocode cache read failed", "error", err.Error())
		}
		return "", false
	}
	return place, true
}

func (c *Client) cacheSet(ctx context.Context, key, place string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, key, place, cacheTTL).Err(); err != nil {
		c.logger.Debug("Geocode cache write failed", "error", err.Error())
	}
}

// cacheKey rounds to ~10m so nearby fixes share a cache entry.
func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("geocode:%.4f,%.4f", lat, lon)
}
