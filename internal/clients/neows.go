// Package clients provides HTTP clients for external APIs
package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cosmicwatch/internal/domain"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	requestTimeout = 20 * time.Second
	feedTTL        = 90 * time.Second
	lookupTTL      = 6 * time.Hour
)

// ErrRateLimited signals that the upstream rejected the request for quota
// reasons and no cached fallback was available.
var ErrRateLimited = errors.New("nasa rate limit reached")

// AuthError signals that the API key was rejected.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("nasa rejected api key (HTTP %d)", e.Status)
}

// UpstreamError is any other upstream failure, carrying the HTTP status when
// one was received (0 for transport-level failures).
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("nasa upstream error (HTTP %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("nasa upstream error (HTTP %d)", e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NeoClient fetches NASA NeoWs feed and lookup data with an in-memory TTL
// cache per endpoint. Concurrent fetches for the same key may race to fill
// the cache; last writer wins, which is fine for idempotent snapshots.
type NeoClient struct {
	http        *http.Client
	apiKey      string
	feedURL     string
	lookupURL   string
	limiter     *rate.Limiter
	feedCache   *ttlCache
	lookupCache *ttlCache
	log         logrus.FieldLogger
}

// NewNeoClient creates a new NeoWs client.
func NewNeoClient(apiKey, feedURL, lookupURL string, log logrus.FieldLogger) *NeoClient {
	return &NeoClient{
		http:        &http.Client{Timeout: requestTimeout},
		apiKey:      apiKey,
		feedURL:     feedURL,
		lookupURL:   lookupURL,
		limiter:     rate.NewLimiter(rate.Every(time.Second), 5),
		feedCache:   newTTLCache(feedTTL),
		lookupCache: newTTLCache(lookupTTL),
		log:         log,
	}
}

// FeedEndpoint returns the feed endpoint URL.
func (c *NeoClient) FeedEndpoint() string { return c.feedURL }

// LookupEndpoint returns the lookup endpoint URL for an asteroid id.
func (c *NeoClient) LookupEndpoint(asteroidID string) string {
	return c.lookupURL + "/" + asteroidID
}

// FetchFeed fetches the raw feed for one date window (at most 7 days, the
// provider limit). A fresh cache entry short-circuits the network call; on a
// rate-limit failure a stale entry is returned instead when one exists.
func (c *NeoClient) FetchFeed(ctx context.Context, startDate, endDate time.Time) (*domain.RawFeedPayload, error) {
	start := startDate.Format("2006-01-02")
	end := endDate.Format("2006-01-02")
	key := start + "|" + end

	if cached, ok := c.feedCache.fresh(key); ok {
		return cached.(*domain.RawFeedPayload), nil
	}

	u, _ := url.Parse(c.feedURL)
	q := u.Query()
	q.Set("start_date", start)
	q.Set("end_date", end)
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	payload := new(domain.RawFeedPayload)
	if err := c.getJSON(ctx, u.String(), payload); err != nil {
		if errors.Is(err, ErrRateLimited) {
			if cached, ok := c.feedCache.stale(key); ok {
				c.log.WithField("key", key).Warn("rate limited, serving stale feed cache")
				return cached.(*domain.RawFeedPayload), nil
			}
		}
		return nil, err
	}

	c.feedCache.set(key, payload)
	return payload, nil
}

// FetchLookup fetches the raw record for one asteroid id, with the same
// cache and stale-on-rate-limit behavior as FetchFeed.
func (c *NeoClient) FetchLookup(ctx context.Context, asteroidID string) (*domain.RawAsteroid, error) {
	if cached, ok := c.lookupCache.fresh(asteroidID); ok {
		return cached.(*domain.RawAsteroid), nil
	}

	u, _ := url.Parse(c.LookupEndpoint(asteroidID))
	q := u.Query()
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	payload := new(domain.RawAsteroid)
	if err := c.getJSON(ctx, u.String(), payload); err != nil {
		if errors.Is(err, ErrRateLimited) {
			if cached, ok := c.lookupCache.stale(asteroidID); ok {
				c.log.WithField("asteroid_id", asteroidID).Warn("rate limited, serving stale lookup cache")
				return cached.(*domain.RawAsteroid), nil
			}
		}
		return nil, err
	}

	c.lookupCache.set(asteroidID, payload)
	return payload, nil
}

func (c *NeoClient) getJSON(ctx context.Context, rawURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &UpstreamError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &UpstreamError{Err: err}
	}
	req.Header.Set("User-Agent", "cosmic-watch/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UpstreamError{Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode >= 400 {
		return classifyFailure(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &UpstreamError{Status: resp.StatusCode, Err: err}
	}
	return nil
}

// classifyFailure maps an upstream HTTP failure onto the error taxonomy.
// NASA sometimes reports quota exhaustion as 401/403 with a rate-limit
// message in the body, so those are sniffed before being treated as auth
// failures.
func classifyFailure(status int, body []byte) error {
	if status == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		text := strings.ToLower(string(body))
		if strings.Contains(text, "rate limit") || strings.Contains(text, "too many requests") {
			return ErrRateLimited
		}
		return &AuthError{Status: status}
	}
	return &UpstreamError{Status: status}
}
