package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"redscraper/pkg/config"
	"redscraper/pkg/errors"
	"redscraper/pkg/logger"
	"redscraper/pkg/retry"
)

// Client issues listing requests against an ordered mirror list. The
// primary host is tried first; every network error, timeout, or
// non-success status moves to the next mirror. Exhausting the list
// yields a fetch error, which the caller maps to an early pagination
// stop or a skipped item.
type Client struct {
	httpClient  *http.Client
	mediaClient *http.Client
	mirrors     []string
	headers     map[string]string
	logger      logger.Logger

	maxSweeps int
	retryWait time.Duration
}

// NewClient creates a mirror-failover client from the scraper config
func NewClient(cfg *config.ScraperConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		mediaClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		mirrors: append([]string(nil), cfg.Mirrors...),
		headers: map[string]string{
			"User-Agent":      cfg.UserAgent,
			"Accept":          "application/json",
			"Accept-Language": "en-US,en;q=0.9",
		},
		logger: log,
	}
}

// SetHeader sets a custom header for all requests
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetMediaTimeout gives direct media fetches their own deadline. Media
// assets are larger than listing pages and get a longer budget.
func (c *Client) SetMediaTimeout(d time.Duration) {
	if d > 0 {
		c.mediaClient = &http.Client{Timeout: d}
	}
}

// SetRetry enables full-list re-sweeps: when every mirror fails with a
// retryable error, wait and walk the list again, up to maxSweeps extra
// passes. Disabled by default.
func (c *Client) SetRetry(maxSweeps int, wait time.Duration) {
	c.maxSweeps = maxSweeps
	c.retryWait = wait
}

// Mirrors returns the configured mirror list in order
func (c *Client) Mirrors() []string {
	return append([]string(nil), c.mirrors...)
}

// GetJSON fetches a mirror-relative path, trying each mirror in order,
// and decodes the body of the first successful response into target.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, target interface{}) error {
	body, err := c.getWithFailover(ctx, path, query)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"path":         path,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return errors.Newf(errors.ErrorTypeParsing, "failed to parse JSON: %v", err)
	}

	return nil
}

// getWithFailover walks the mirror list until one request succeeds.
// With retry enabled, a fully failed sweep is repeated after a pause
// when the last mirror's error was transient.
func (c *Client) getWithFailover(ctx context.Context, path string, query url.Values) ([]byte, error) {
	var body []byte
	sweep := func() error {
		var err error
		body, err = c.sweepMirrors(ctx, path, query)
		return err
	}

	var err error
	if c.maxSweeps > 0 {
		err = retry.Do(sweep, &retry.Config{
			MaxAttempts: c.maxSweeps + 1,
			Backoff:     &retry.FixedBackoff{Delay: c.retryWait},
			RetryIf:     retry.DefaultRetryIf,
			Context:     ctx,
			Logger:      c.logger,
		})
	} else {
		err = sweep()
	}
	if err != nil {
		c.logger.ErrorWithFields("all mirrors exhausted", map[string]interface{}{
			"path":       path,
			"mirrors":    len(c.mirrors),
			"last_error": err.Error(),
		})
		return nil, errors.Newf(errors.ErrorTypeFetch, "all %d mirrors exhausted for %s: %v", len(c.mirrors), path, err)
	}
	return body, nil
}

// sweepMirrors tries every mirror once and returns the last error
func (c *Client) sweepMirrors(ctx context.Context, path string, query url.Values) ([]byte, error) {
	var lastErr error

	for _, mirror := range c.mirrors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		target := mirror + path
		if len(query) > 0 {
			target += "?" + query.Encode()
		}

		body, err := c.fetch(ctx, target)
		if err == nil {
			return body, nil
		}

		lastErr = err
		logger.LogMirrorFailure(mirror, path, err)
	}

	return nil, lastErr
}

// FetchBytes fetches an absolute URL directly, without mirror
// failover. Media assets and RSS feeds carry their own hosts and use
// the media timeout.
func (c *Client) FetchBytes(ctx context.Context, absoluteURL string) ([]byte, error) {
	return c.fetchWith(ctx, c.mediaClient, absoluteURL)
}

// fetch performs a single GET against a mirror and returns the body on 2xx
func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	return c.fetchWith(ctx, c.httpClient, target)
}

func (c *Client) fetchWith(ctx context.Context, httpClient *http.Client, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeUnknown, "failed to create request: %v", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "network error: %v", err)
	}
	defer resp.Body.Close()

	logger.LogRequest(http.MethodGet, target, resp.StatusCode, float64(duration.Milliseconds()))

	if err := c.checkResponseStatus(resp); err != nil {
		io.Copy(io.Discard, resp.Body)
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "failed to read response body: %v", err)
	}

	return body, nil
}

// checkResponseStatus maps a non-2xx response to a typed error
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return &errors.Error{
			Type:    errors.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &errors.Error{
			Type:    errors.ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 500:
		return &errors.Error{
			Type:    errors.ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	default:
		return &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}
}

// FetchListingPage fetches one page of a target's listing
func (c *Client) FetchListingPage(ctx context.Context, target string, isUser bool, pageSize int, after string) (*Listing, error) {
	var listing Listing
	err := c.GetJSON(ctx, ListingPath(target, isUser), ListingQuery(pageSize, after), &listing)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// FetchCommentTree fetches a post's comment tree. The endpoint returns
// a two-element array: the post listing, then the comment listing.
func (c *Client) FetchCommentTree(ctx context.Context, permalink string, limit int) ([]Thing, error) {
	var payload []Listing
	err := c.GetJSON(ctx, CommentsPath(permalink), CommentsQuery(limit), &payload)
	if err != nil {
		return nil, err
	}
	if len(payload) < 2 {
		return nil, errors.Newf(errors.ErrorTypeParsing, "comment payload for %s has %d listings, want 2", permalink, len(payload))
	}
	return payload[1].Data.Children, nil
}
