// Package httpsource reads batches from the paged items API served by
// internal/server.
//
//	GET {base}/items?start=41&count=20
//
// Transport failures and 5xx responses are retried with exponential backoff;
// anything else fails the batch at once.
package httpsource

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

	werrors "github.com/idilsaglam/waterfall/internal/errors"
	"github.com/idilsaglam/waterfall/internal/model"
	"github.com/idilsaglam/waterfall/internal/source"
)

// Options configure a Client.
type Options struct {
	Token      string        // sent as "Authorization: Bearer <token>" when set
	Retries    int           // attempts per batch, at least 1
	Backoff    time.Duration // first retry delay, doubled each attempt
	HTTPClient *http.Client
}

// Client is a Source backed by the items API.
type Client struct {
	base    *url.URL
	token   string
	retries int
	backoff time.Duration
	http    *http.Client
}

// New parses baseURL and returns a client.
func New(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, werrors.New(werrors.ErrCodeInvalidConfig, "source url %q: want http(s)://host[:port]", baseURL)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	return &Client{
		base:    u,
		token:   StripBearer(strings.TrimSpace(opts.Token)),
		retries: max(opts.Retries, 1),
		backoff: opts.Backoff,
		http:    opts.HTTPClient,
	}, nil
}

// Batch fetches one page.
func (c *Client) Batch(ctx context.Context, count, startID int) ([]model.Item, error) {
	if err := source.CheckRequest(count, startID); err != nil {
		return nil, err
	}

	var items []model.Item
	err := retry(ctx, c.retries, c.backoff, func() error {
		var err error
		items, err = c.fetch(ctx, count, startID)
		return err
	})
	if err != nil {
		if werrors.GetCode(err) != "" {
			return nil, err
		}
		return nil, werrors.Wrap(werrors.ErrCodeSourceUnavailable, err, "fetch items %d..%d", startID, startID+count-1)
	}
	if err := source.Validate(items, count, startID); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) fetch(ctx context.Context, count, startID int) ([]model.Item, error) {
	u := *c.base
	u.Path += "/items"
	q := url.Values{}
	q.Set("start", strconv.Itoa(startID))
	q.Set("count", strconv.Itoa(count))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &retryableError{err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, &retryableError{fmt.Errorf("server: %s", resp.Status)}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, werrors.New(werrors.ErrCodeSourceUnavailable, "%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var items []model.Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, werrors.Wrap(werrors.ErrCodeSourceUnavailable, err, "decode items")
	}
	return items, nil
}

// StripBearer drops a leading "Bearer " so tokens can be pasted either way.
func StripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// retry runs fn up to attempts times, doubling delay between attempts. Only
// retryableError failures are retried.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var lastErr error
	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !errors.As(err, new(*retryableError)) {
			return err
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
