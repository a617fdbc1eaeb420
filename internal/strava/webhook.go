package strava

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

	"github.com/rs/zerolog/log"
)

// SubscriptionClient manages the application's webhook push subscription.
// These endpoints authenticate with the client credentials, not an athlete token.
type SubscriptionClient struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
}

var errMissingCredentials = errors.New("missing strava client credentials")

// ListSubscriptions returns the application's subscriptions (Strava allows one)
func (c *SubscriptionClient) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	query := c.credentials()
	var subs []Subscription
	if err := c.send(ctx, http.MethodGet, "/push_subscriptions?"+query.Encode(), nil, &subs); err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}
	return subs, nil
}

// CreateSubscription registers callbackURL. Strava immediately calls it with a
// GET validation request carrying verifyToken.
func (c *SubscriptionClient) CreateSubscription(ctx context.Context, callbackURL, verifyToken string) (*Subscription, error) {
	if callbackURL == "" {
		return nil, errors.New("callback url required")
	}
	if verifyToken == "" {
		return nil, errors.New("verify token required")
	}

	form := c.credentials()
	form.Set("callback_url", callbackURL)
	form.Set("verify_token", verifyToken)

	var sub Subscription
	if err := c.send(ctx, http.MethodPost, "/push_subscriptions", form, &sub); err != nil {
		return nil, fmt.Errorf("creating subscription: %w", err)
	}
	if sub.ID == 0 {
		return nil, errors.New("create subscription response missing id")
	}
	if sub.CallbackURL == "" {
		sub.CallbackURL = callbackURL
	}
	return &sub, nil
}

// DeleteSubscription removes a subscription by id
func (c *SubscriptionClient) DeleteSubscription(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("subscription id required")
	}
	query := c.credentials()
	path := "/push_subscriptions/" + strconv.FormatInt(id, 10) + "?" + query.Encode()
	if err := c.send(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("deleting subscription %d: %w", id, err)
	}
	return nil
}

func (c *SubscriptionClient) credentials() url.Values {
	v := url.Values{}
	v.Set("client_id", c.ClientID)
	v.Set("client_secret", c.ClientSecret)
	return v
}

func (c *SubscriptionClient) send(ctx context.Context, method, path string, form url.Values, out any) error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return errMissingCredentials
	}

	base := c.BaseURL
	if base == "" {
		base = BaseURL
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(base, "/")+path, body)
	if err != nil {
		return err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	log.Debug().Str("method", method).Str("path", strings.SplitN(path, "?", 2)[0]).Msg("strava subscription request")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
