package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Get performs a GET request. path is either relative to the base URL or an
// absolute URL (as found in paging links). result may be nil.
func (c *Client) Get(ctx context.Context, path string, params url.Values, result interface{}) error {
	return c.call(ctx, http.MethodGet, path, params, nil, result)
}

// Post performs a POST request with a JSON payload.
func (c *Client) Post(ctx context.Context, path string, params url.Values, payload, result interface{}) error {
	return c.call(ctx, http.MethodPost, path, params, payload, result)
}

// Put performs a PUT request with a JSON payload.
func (c *Client) Put(ctx context.Context, path string, params url.Values, payload, result interface{}) error {
	return c.call(ctx, http.MethodPut, path, params, payload, result)
}

// Delete performs a DELETE request with an optional JSON payload.
func (c *Client) Delete(ctx context.Context, path string, params url.Values, payload, result interface{}) error {
	return c.call(ctx, http.MethodDelete, path, params, payload, result)
}

// call sends the request, retrying network failures and the configured
// status codes with exponential backoff.
func (c *Client) call(ctx context.Context, method, path string, params url.Values, payload, result interface{}) error {
	target, err := c.resolve(path, params)
	if err != nil {
		return err
	}

	var body []byte
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("spotify: failed to marshal payload: %w", err)
		}
	}

	var (
		lastErr    error
		lastHeader http.Header
	)
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt, lastHeader)
			c.logDebugf("spotify: retry %d/%d for %s %s in %v (last error: %v)", attempt, c.retries, method, target, wait, lastErr)
			if !sleep(ctx, wait) {
				return ctx.Err()
			}
		}

		c.logDebugf("spotify: %s %s", method, target)
		resp, respBody, err := c.do(ctx, method, target, body)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !shouldRetryNetworkError(err) {
				return fmt.Errorf("spotify: request failed: %w", err)
			}
			lastErr = err
			lastHeader = nil
			continue
		}

		if c.retryCodes[resp.StatusCode] {
			lastErr = parseError(target, resp, respBody)
			lastHeader = resp.Header
			continue
		}

		if resp.StatusCode >= 400 {
			apiErr := parseError(target, resp, respBody)
			c.logDebugf("spotify: %s %s returned %d: %s", method, target, apiErr.Status, apiErr.Message)
			return apiErr
		}

		if result == nil || len(bytes.TrimSpace(respBody)) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("spotify: failed to parse response from %s: %w", target, err)
		}
		return nil
	}

	return &Error{
		Status:  StatusMaxRetries,
		Code:    -1,
		Message: fmt.Sprintf("Max Retries (last error: %v)", lastErr),
		URL:     target,
		Header:  lastHeader,
		err:     ErrMaxRetries,
	}
}

// do runs a single attempt bounded by the client timeout.
func (c *Client) do(ctx context.Context, method, target string, body []byte) (*http.Response, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, respBody, nil
}

// resolve joins a relative path onto the base URL and merges params into the query.
func (c *Client) resolve(path string, params url.Values) (string, error) {
	raw := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		raw = c.baseURL + strings.TrimPrefix(path, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("spotify: invalid url %q: %w", raw, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				if v != "" {
					q.Add(k, v)
				}
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// backoff returns the wait before the given retry attempt. A Retry-After
// header wins over the computed value.
func (c *Client) backoff(attempt int, header http.Header) time.Duration {
	if header != nil {
		if secs, err := strconv.Atoi(header.Get("Retry-After")); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	secs := c.backoffFactor * math.Pow(2, float64(attempt-1))
	return time.Duration(secs * float64(time.Second))
}

func parseError(target string, resp *http.Response, body []byte) *Error {
	apiErr := &Error{
		Status:  resp.StatusCode,
		Code:    -1,
		Message: "error",
		URL:     target,
		Header:  resp.Header,
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Error.Message != "" {
			apiErr.Message = eb.Error.Message
		}
		apiErr.Reason = eb.Error.Reason
	}
	return apiErr
}

func shouldRetryNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

// sleep waits for d or until ctx is done. Returns false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
