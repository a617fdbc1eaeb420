package strava

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const BaseURL = "https://www.strava.com/api/v3"

// StreamKeys are the stream types requested for every activity
var StreamKeys = []string{"time", "heartrate", "velocity_smooth", "altitude", "cadence", "watts", "grade_smooth"}

// maxErrorBody caps how much of an error response is kept
const maxErrorBody = 2048

// Client is a Strava API client acting on behalf of one athlete
type Client struct {
	httpClient  *http.Client
	rateLimiter *RateLimiter
	baseURL     string
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another API root, e.g. an httptest server
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRateLimiter shares a limiter between clients. Strava limits are per
// application, so every athlete's client should use the same one.
func WithRateLimiter(r *RateLimiter) Option {
	return func(c *Client) { c.rateLimiter = r }
}

// NewClient creates a new Strava API client. Requests are authorized with
// tokens from tokenSource.
func NewClient(tokenSource oauth2.TokenSource, opts ...Option) *Client {
	return NewClientWithHTTP(oauth2.NewClient(context.Background(), tokenSource), opts...)
}

// NewClientWithHTTP creates a client around an already authorized http.Client
func NewClientWithHTTP(httpClient *http.Client, opts ...Option) *Client {
	c := &Client{
		httpClient: httpClient,
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rateLimiter == nil {
		c.rateLimiter = NewRateLimiter()
	}
	return c
}

// GetActivity fetches the detailed representation of an activity
func (c *Client) GetActivity(ctx context.Context, activityID int64) (*Activity, error) {
	var activity Activity
	path := fmt.Sprintf("/activities/%d", activityID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &activity); err != nil {
		return nil, fmt.Errorf("fetching activity %d: %w", activityID, err)
	}
	return &activity, nil
}

// GetActivityStreams fetches detailed stream data for an activity
func (c *Client) GetActivityStreams(ctx context.Context, activityID int64) (*Streams, error) {
	params := url.Values{}
	params.Set("keys", strings.Join(StreamKeys, ","))
	params.Set("key_by_type", "true")

	var streams Streams
	path := fmt.Sprintf("/activities/%d/streams", activityID)
	if err := c.do(ctx, http.MethodGet, path, params, nil, &streams); err != nil {
		return nil, fmt.Errorf("fetching streams for %d: %w", activityID, err)
	}
	return &streams, nil
}

// UpdateActivity applies a partial update to an activity
func (c *Client) UpdateActivity(ctx context.Context, activityID int64, update ActivityUpdate) (*Activity, error) {
	var activity Activity
	path := fmt.Sprintf("/activities/%d", activityID)
	if err := c.do(ctx, http.MethodPut, path, nil, update, &activity); err != nil {
		return nil, fmt.Errorf("updating activity %d: %w", activityID, err)
	}
	return &activity, nil
}

// HideFromHome sets hide_from_home so the activity stays off followers' feeds
func (c *Client) HideFromHome(ctx context.Context, activityID int64) error {
	hide := true
	_, err := c.UpdateActivity(ctx, activityID, ActivityUpdate{HideFromHome: &hide})
	return err
}

// UpdateTitle renames an activity
func (c *Client) UpdateTitle(ctx context.Context, activityID int64, title string) error {
	_, err := c.UpdateActivity(ctx, activityID, ActivityUpdate{Name: &title})
	return err
}

// RateLimitStatus returns the current rate limit status
func (c *Client) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return c.rateLimiter.Status()
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debug().Str("method", method).Str("path", path).Msg("strava request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Update rate limiter from response headers
	c.rateLimiter.UpdateFromHeaders(resp.Header)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
