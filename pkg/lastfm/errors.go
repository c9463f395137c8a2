package lastfm

import (
	"errors"
	"fmt"
)

// Error is an error reported by the Last.fm API.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lastfm: error %d: %s", e.Code, e.Message)
}

// Is matches another *Error with the same code, so errors.Is works
// against the predeclared code values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Temporary reports whether the request may succeed if retried
// (service offline, temporarily unavailable, rate limited).
func (e *Error) Temporary() bool {
	switch e.Code {
	case ErrCodeServiceOffline, ErrCodeTempUnavailable, ErrCodeRateLimitExceeded:
		return true
	default:
		return false
	}
}

// Last.fm error codes.
const (
	ErrCodeInvalidService       = 2
	ErrCodeInvalidMethod        = 3
	ErrCodeAuthenticationFailed = 4
	ErrCodeInvalidFormat        = 5
	ErrCodeInvalidParameters    = 6
	ErrCodeInvalidResourceSpec  = 7
	ErrCodeOperationFailed      = 8
	ErrCodeInvalidSessionKey    = 9
	ErrCodeInvalidAPIKey        = 10
	ErrCodeServiceOffline       = 11
	ErrCodeSubscribersOnly      = 12
	ErrCodeInvalidSignature     = 13
	ErrCodeUnauthorizedToken    = 14
	ErrCodeExpiredToken         = 15
	ErrCodeTempUnavailable      = 16
	ErrCodeRateLimitExceeded    = 29
)

var (
	// ErrNoSessionKey is returned by write methods when no session key is set.
	ErrNoSessionKey = errors.New("lastfm: session key required")

	// ErrInvalidConfig is returned by NewClient for incomplete configuration.
	ErrInvalidConfig = errors.New("lastfm: invalid configuration")

	// ErrUnauthorizedToken matches errors for a token the user has not yet approved.
	ErrUnauthorizedToken = &Error{Code: ErrCodeUnauthorizedToken}
)

// IsTemporary reports whether err is a temporary Last.fm API error.
func IsTemporary(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Temporary()
}
