package notion

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/teranos/notion-schema/errors"
)

// APIError is a non-200 response from Notion.
type APIError struct {
	Status     int
	Code       string // e.g. object_not_found, rate_limited
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion: HTTP %d", e.Status)
	}
	return fmt.Sprintf("notion: HTTP %d %s: %s", e.Status, e.Code, e.Message)
}

// Retryable reports whether the request may succeed when repeated.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

func newAPIError(resp *http.Response, body []byte, id string) error {
	apiErr := &APIError{
		Status:     resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}

	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		apiErr.Code = envelope.Code
		apiErr.Message = envelope.Message
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return errors.WithHint(
			errors.Mark(errors.Wrapf(apiErr, "database %s", id), errors.ErrNotFound),
			"share the database with your integration from the database's connections menu",
		)
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.WithHint(
			errors.Wrapf(apiErr, "database %s", id),
			"check the integration token in NOTION_SCHEMA_API_KEY or NOTION_TOKEN",
		)
	case http.StatusBadRequest:
		return errors.Mark(errors.Wrapf(apiErr, "database %s", id), errors.ErrInvalidRequest)
	}
	return apiErr
}

// parseRetryAfter reads delta-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
