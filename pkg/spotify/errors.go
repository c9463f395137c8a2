package spotify

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusMaxRetries is reported on the *Error returned once retries run out.
const StatusMaxRetries = 599

// ErrMaxRetries is wrapped by the *Error returned when every retry failed.
var ErrMaxRetries = errors.New("spotify: max retries reached")

// Error is a failed Spotify API call.
//
// Status is the HTTP status code. Reason carries the optional
// machine-readable reason Spotify attaches to player errors
// (e.g. "NO_ACTIVE_DEVICE").
type Error struct {
	Status  int
	Code    int
	Message string
	Reason  string
	URL     string
	Header  http.Header

	err error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("spotify: http %d: %s: %s (%s)", e.Status, e.URL, e.Message, e.Reason)
	}
	return fmt.Sprintf("spotify: http %d: %s: %s", e.Status, e.URL, e.Message)
}

// Unwrap exposes ErrMaxRetries for exhausted retries.
func (e *Error) Unwrap() error {
	return e.err
}

// IsNoActiveDevice reports whether err is a player call made without an active device.
func IsNoActiveDevice(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Reason == "NO_ACTIVE_DEVICE"
}

// errorBody is the JSON error envelope returned by the Web API.
type errorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"error"`
}
