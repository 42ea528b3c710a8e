package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"grabbi/internal/delivery"
	"grabbi/internal/metrics"
	"grabbi/internal/model"
)

const cacheKeyPrefix = "catalog:"

// Client reads franchises from the grabbi backend API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client for baseURL, e.g. "https://api.grabbi.co.uk/api".
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UseRedisCache configures optional Redis caching for GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// UseRateLimit caps outbound requests. A non-positive rps disables limiting.
func (c *Client) UseRateLimit(rps float64, burst int) {
	if rps <= 0 {
		c.limiter = nil
		return
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// GetFranchise fetches a franchise with its hours and backend store status.
// The cache keeps the franchise without its store status: the open flag is
// only valid at the moment it was served, so cached reads fall back to the
// weekly hours.
func (c *Client) GetFranchise(ctx context.Context, id string) (*model.Franchise, error) {
	endpoint := fmt.Sprintf("%s/franchises/%s", c.baseURL, url.PathEscape(id))
	cacheKey := cacheKeyPrefix + "franchise:" + id
	var f model.Franchise

	if c.readCache(ctx, cacheKey, &f) {
		f.StoreStatus = nil
		return &f, nil
	}

	if err := c.doGet(ctx, endpoint, &f); err != nil {
		return nil, err
	}
	cached := f
	cached.StoreStatus = nil
	c.writeCache(ctx, cacheKey, cached)
	return &f, nil
}

// Nearest returns the closest franchise delivering to (lat, lng).
func (c *Client) Nearest(ctx context.Context, lat, lng float64) (delivery.Candidate, error) {
	endpoint := fmt.Sprintf("%s/franchises/nearest?%s", c.baseURL, coords(lat, lng))
	var resp struct {
		Distance  float64          `json:"distance"`
		Franchise *model.Franchise `json:"franchise"`
	}

	if err := c.doGet(ctx, endpoint, &resp); err != nil {
		if errors.Is(err, ErrFranchiseNotFound) {
			return delivery.Candidate{}, ErrNoFranchiseNearby
		}
		return delivery.Candidate{}, err
	}
	if resp.Franchise == nil || resp.Franchise.ID == "" {
		return delivery.Candidate{}, ErrNoFranchiseNearby
	}
	return delivery.Candidate{Franchise: resp.Franchise, Distance: resp.Distance}, nil
}

// Nearby lists the franchises whose delivery radius covers (lat, lng).
func (c *Client) Nearby(ctx context.Context, lat, lng float64) ([]delivery.Candidate, error) {
	endpoint := fmt.Sprintf("%s/franchises/nearby?%s", c.baseURL, coords(lat, lng))
	var wrap struct {
		Franchises []struct {
			model.Franchise
			Distance float64 `json:"distance"`
		} `json:"franchises"`
	}

	if err := c.doGet(ctx, endpoint, &wrap); err != nil {
		return nil, err
	}

	out := make([]delivery.Candidate, 0, len(wrap.Franchises))
	for i := range wrap.Franchises {
		f := wrap.Franchises[i].Franchise
		out = append(out, delivery.Candidate{Franchise: &f, Distance: wrap.Franchises[i].Distance})
	}
	return out, nil
}

// HealthCheck checks that the backend answers.
func (c *Client) HealthCheck(ctx context.Context) error {
	endpoint := c.baseURL + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %d", resp.StatusCode)
	}
	return nil
}

func coords(lat, lng float64) string {
	v := url.Values{}
	v.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	v.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	return v.Encode()
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
	metrics.IncUpstreamRequest("cache_hit")
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

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncUpstreamRequest("error")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		metrics.IncUpstreamRequest("not_found")
		return ErrFranchiseNotFound
	}
	if resp.StatusCode >= 300 {
		metrics.IncUpstreamRequest("error")
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	metrics.IncUpstreamRequest("ok")
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
