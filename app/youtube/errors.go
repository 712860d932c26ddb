package youtube

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	// ErrQuotaExhausted means every key in the ring has hit its quota for the
	// current window. Non-fatal: the affected channel stays incomplete and is
	// picked up by the next run.
	ErrQuotaExhausted = errors.New("api quota exhausted")
	// ErrNoAPIKeys means the ring was constructed without credentials.
	ErrNoAPIKeys = errors.New("no api keys configured")
	// ErrChannelNotFound means the metadata service knows no such channel.
	ErrChannelNotFound = errors.New("channel not found")
)

// IsQuotaError reports whether err is a quota-exhaustion response from the
// Data API. The API signals it as HTTP 403; reasons narrow it down, but a
// bare 403 on an API-key request is quota in practice.
func IsQuotaError(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code != http.StatusForbidden {
		return false
	}
	for _, item := range apiErr.Errors {
		switch item.Reason {
		case "quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded", "userRateLimitExceeded":
			return true
		}
	}
	return len(apiErr.Errors) == 0
}
