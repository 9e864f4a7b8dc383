// Package geocode resolves coordinates to a city name through a Nominatim
// compatible reverse geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheTTL = 24 * time.Hour

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	cache      *redis.Client
}

// NewClient builds a client. cache may be nil.
func NewClient(baseURL, userAgent string, cache *redis.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache,
	}
}

type reverseResponse struct {
	Address struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
	} `json:"address"`
	Error string `json:"error"`
}

// CityName returns the most specific settlement name for the coordinates.
func (c *Client) CityName(ctx context.Context, lat, lon float64) (string, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return "", fmt.Errorf("invalid coordinates: lat=%f, lon=%f", lat, lon)
	}
	key := fmt.Sprintf("geocode:%.3f:%.3f", lat, lon)
	if c.cache != nil {
		if name, err := c.cache.Get(ctx, key).Result(); err == nil {
			return name, nil
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("Redis Get error for %s: %v", key, err)
		}
	}

	name, err := c.reverse(ctx, lat, lon)
	if err != nil {
		return "", err
	}
	if c.cache != nil {
		if err := c.cache.Set(ctx, key, name, cacheTTL).Err(); err != nil {
			log.Printf("Failed to cache city name %s: %v", key, err)
		}
	}
	return name, nil
}

func (c *Client) reverse(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("zoom", "10")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocoding returned %s", resp.Status)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode reverse geocoding response: %w", err)
	}
	if body.Error != "" {
		return "", errors.New(body.Error)
	}
	for _, name := range []string{body.Address.City, body.Address.Town, body.Address.Village, body.Address.Municipality} {
		if name != "" {
			return name, nil
		}
	}
	return "", nil
}
