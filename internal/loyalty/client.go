// Package loyalty credits reward points in the user service.
package loyalty

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout  = 3 * time.Second
	defaultMaxTries = 3
)

type Client struct {
	http     *http.Client
	baseURL  string
	maxTries uint
	backoff  func() backoff.BackOff
}

type Option func(*Client)

func WithMaxTries(n uint) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTries = n
		}
	}
}

func WithBackOff(fn func() backoff.BackOff) Option {
	return func(c *Client) {
		c.backoff = fn
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxTries: defaultMaxTries,
		backoff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type creditRequest struct {
	Points int64 `json:"points"`
}

// CreditPoints adds points to the user's balance. The idempotency key is forwarded so the user
// service applies a retried credit only once. Server errors and timeouts are retried with
// exponential backoff; other client errors are not.
func (c *Client) CreditPoints(ctx context.Context, userID int, points int64, idempotencyKey string) error {
	body, err := json.Marshal(creditRequest{Points: points})
	if err != nil {
		return err
	}

	endpoint := c.baseURL + "/api/users/" + strconv.Itoa(userID) + "/points"

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, c.post(ctx, endpoint, body, idempotencyKey)
	}, backoff.WithBackOff(c.backoff()), backoff.WithMaxTries(c.maxTries))
	if err != nil {
		return fmt.Errorf("crediting %d points to user %d: %w", points, userID, err)
	}

	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte, idempotencyKey string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("user service responded %d", resp.StatusCode)
	default:
		return backoff.Permanent(fmt.Errorf("user service rejected the credit with %d", resp.StatusCode))
	}
}
