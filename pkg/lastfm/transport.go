package lastfm

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBackoff caps the delay between retries.
const maxBackoff = 30 * time.Second

// envelope is the <lfm> root of every XML response.
type envelope struct {
	XMLName xml.Name `xml:"lfm"`
	Status  string   `xml:"status,attr"`
	Inner   []byte   `xml:",innerxml"`
}

type apiError struct {
	Code    int    `xml:"code,attr"`
	Message string `xml:",chardata"`
}

const statusFailed = "failed"

// access selects how a request is authenticated.
type access int

const (
	// public methods are sent as unsigned GET requests.
	public access = iota
	// signed methods carry api_sig but no session (auth.*).
	signed
	// session methods carry api_sig and the session key.
	session
)

// call invokes an API method and returns the inner XML of the response.
// Network failures, 5xx responses and temporary API errors are retried
// with exponential backoff.
func (c *Client) call(ctx context.Context, method string, params map[string]string, mode access) ([]byte, error) {
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("method", method)
	form.Set("api_key", c.apiKey)

	if mode == session {
		if c.sessionKey == "" {
			return nil, ErrNoSessionKey
		}
		form.Set("sk", c.sessionKey)
	}
	if mode != public {
		form.Set("api_sig", signature(form, c.apiSecret))
	}

	var lastErr error
	backoff := c.backoff
	for attempt := 1; attempt <= c.retries; attempt++ {
		if attempt > 1 {
			c.logDebugf("lastfm: retrying %s in %v (last error: %v)", method, backoff, lastErr)
			if !sleep(ctx, backoff) {
				return nil, ctx.Err()
			}
			backoff = nextBackoff(backoff)
		}

		c.logDebugf("lastfm: calling %s (attempt %d/%d)", method, attempt, c.retries)
		inner, retry, err := c.roundTrip(ctx, form, mode)
		if err == nil {
			return inner, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("lastfm: max retries exceeded: %w", lastErr)
}

// roundTrip performs one request. retry reports whether err is transient.
func (c *Client) roundTrip(ctx context.Context, form url.Values, mode access) (inner []byte, retry bool, err error) {
	var req *http.Request
	if mode == public {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+form.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, false, fmt.Errorf("lastfm: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, isNetworkError(err), fmt.Errorf("lastfm: request failed: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, true, fmt.Errorf("lastfm: failed to read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("lastfm: server error: %s", resp.Status)
	}

	var env envelope
	if xmlErr := xml.Unmarshal(body, &env); xmlErr != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, false, fmt.Errorf("lastfm: unexpected status code: %d", resp.StatusCode)
		}
		return nil, false, fmt.Errorf("lastfm: failed to parse XML response: %w", xmlErr)
	}

	if env.Status == statusFailed {
		var failed struct {
			Error apiError `xml:"error"`
		}
		if err := xml.Unmarshal(wrap(env.Inner), &failed); err != nil {
			return nil, false, fmt.Errorf("lastfm: failed to parse error response: %w", err)
		}
		apiErr := &Error{Code: failed.Error.Code, Message: strings.TrimSpace(failed.Error.Message)}
		return nil, apiErr.Temporary(), apiErr
	}

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("lastfm: unexpected status code: %d", resp.StatusCode)
	}
	return env.Inner, false, nil
}

// wrap puts inner XML under a synthetic root so it can be unmarshaled.
func wrap(inner []byte) []byte {
	return []byte("<root>" + string(inner) + "</root>")
}

func isNetworkError(err error) bool {
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

func nextBackoff(current time.Duration) time.Duration {
	if next := current * 2; next < maxBackoff {
		return next
	}
	return maxBackoff
}
