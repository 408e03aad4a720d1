package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/justestif/go-spotify-genre-organizer/internal/logging"
)

const (
	baseURL   = "http://ws.audioscrobbler.com/2.0/"
	userAgent = "spotify-genre-organizer/1.0"
)

// Last.fm API error codes.
const (
	errCodeInvalidParams = 6
	errCodeInvalidAPIKey = 10
	errCodeRateLimited   = 29
)

// Sentinel errors.
var (
	// ErrRateLimited is returned when the API rate limit is exceeded after retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidAPIKey is returned when the API key is invalid.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrArtistNotFound is returned when Last.fm does not know the artist.
	ErrArtistNotFound = errors.New("artist not found")
)

var defaultRetryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// Client is a Last.fm API client with caching and retry on rate limiting.
type Client struct {
	apiKey      string
	maxTags     int
	httpClient  *http.Client
	baseURL     string
	retryDelays []time.Duration
	log         *logrus.Entry

	// key = lower-cased artist name
	cache   map[string][]Tag
	cacheMu sync.RWMutex
}

// NewClient creates a new Last.fm API client from the provided configuration.
func NewClient(cfg *Config, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logging.Discard()
	}
	return &Client{
		apiKey:  cfg.APIKey,
		maxTags: cfg.maxTags(),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     baseURL,
		retryDelays: defaultRetryDelays,
		log:         logging.Component(log, "lastfm"),
		cache:       make(map[string][]Tag),
	}
}

// ArtistTags returns the names of the artist's top tags, most popular first,
// limited to the configured maximum. An unknown artist yields an empty slice.
func (c *Client) ArtistTags(ctx context.Context, artist string) ([]string, error) {
	tags, err := c.TopTags(ctx, artist)
	if errors.Is(err, ErrArtistNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	if len(tags) > c.maxTags {
		tags = tags[:c.maxTags]
	}
	return lo.Map(tags, func(t Tag, _ int) string { return t.Name }), nil
}

// TopTags fetches the tags for an artist (with caching).
// Returns an empty slice (not nil) if no tags are found.
func (c *Client) TopTags(ctx context.Context, artist string) ([]Tag, error) {
	cacheKey := strings.ToLower(artist)

	c.cacheMu.RLock()
	if cached, ok := c.cache[cacheKey]; ok {
		c.cacheMu.RUnlock()
		return cached, nil
	}
	c.cacheMu.RUnlock()

	params := url.Values{
		"method":      {"artist.getTopTags"},
		"artist":      {artist},
		"autocorrect": {"1"},
		"format":      {"json"},
		"api_key":     {c.apiKey},
	}

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetching artist tags for %q: %w", artist, err)
	}

	var resp artistTagsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing artist tags response: %w", err)
	}

	tags := resp.TopTags.Tag
	if tags == nil {
		tags = []Tag{}
	}

	c.cacheMu.Lock()
	c.cache[cacheKey] = tags
	c.cacheMu.Unlock()

	return tags, nil
}

// doRequest performs an HTTP GET request with retry on rate limit.
// Retries once per configured delay (1s, 2s, 4s by default).
func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= len(c.retryDelays); attempt++ {
		if attempt > 0 {
			delay := c.retryDelays[attempt-1]
			c.log.WithField("attempt", attempt).WithField("delay", delay).Debug("Rate limited, retrying")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.doSingleRequest(ctx, reqURL)
		if err == nil {
			return body, nil
		}

		if errors.Is(err, ErrRateLimited) {
			lastErr = err
			continue
		}

		return nil, err
	}

	return nil, lastErr
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		switch apiErr.Error {
		case errCodeRateLimited:
			return nil, ErrRateLimited
		case errCodeInvalidAPIKey:
			return nil, ErrInvalidAPIKey
		case errCodeInvalidParams:
			return nil, ErrArtistNotFound
		default:
			return nil, fmt.Errorf("API error %d: %s", apiErr.Error, apiErr.Message)
		}
	}

	return body, nil
}
