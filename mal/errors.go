package mal

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors
var (
	// ErrMissingClientID indicates the client has no MyAnimeList credential configured
	ErrMissingClientID = errors.New("myanimelist client id not configured")
	// ErrUnauthorized indicates the upstream rejected the credential
	ErrUnauthorized = errors.New("unauthorized: invalid myanimelist client id")
	// ErrRateLimited indicates the upstream asked us to slow down
	ErrRateLimited = errors.New("rate limited by myanimelist")
	// ErrNotFound indicates the requested entity does not exist
	ErrNotFound = errors.New("resource not found")
	// ErrBadRequest indicates the upstream rejected the request parameters
	ErrBadRequest = errors.New("bad request")
	// ErrTransient indicates a network failure or timeout that is safe to retry
	ErrTransient = errors.New("temporary upstream failure")
	// ErrUnexpected indicates any other upstream failure
	ErrUnexpected = errors.New("unexpected upstream response")
	// ErrInvalidArgument indicates the caller passed an unsupported kind, season or ranking
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrorKind classifies upstream failures
type ErrorKind int

const (
	// KindUnexpected is any non-2xx response not covered below
	KindUnexpected ErrorKind = iota
	// KindConfigurationMissing means no credential was configured
	KindConfigurationMissing
	// KindUnauthorized means the credential was rejected
	KindUnauthorized
	// KindRateLimited means the upstream returned 429
	KindRateLimited
	// KindNotFound means the upstream returned 404
	KindNotFound
	// KindBadRequest means the upstream returned 400
	KindBadRequest
	// KindTransient means a network error, timeout or gateway failure
	KindTransient
)

// String returns the kind name
func (k ErrorKind) String() string {
	switch k {
	case KindConfigurationMissing:
		return "configuration_missing"
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindTransient:
		return "transient"
	default:
		return "unexpected"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindConfigurationMissing:
		return ErrMissingClientID
	case KindUnauthorized:
		return ErrUnauthorized
	case KindRateLimited:
		return ErrRateLimited
	case KindNotFound:
		return ErrNotFound
	case KindBadRequest:
		return ErrBadRequest
	case KindTransient:
		return ErrTransient
	default:
		return ErrUnexpected
	}
}

// maxBodyExcerpt bounds how much of an upstream body is kept for diagnostics
const maxBodyExcerpt = 200

// APIError represents a classified MyAnimeList API failure
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Endpoint   string
	// Detail is the upstream error text or a body excerpt.
	Detail string
	Err    error
}

// Error implements the error interface
func (e *APIError) Error() string {
	msg := fmt.Sprintf("myanimelist API error (%s)", e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Endpoint != "" {
		msg += " on " + e.Endpoint
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the sentinel for the error kind
func (e *APIError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.Kind == KindUnauthorized
}

// IsRateLimited checks if the upstream asked to back off
func (e *APIError) IsRateLimited() bool {
	return e.Kind == KindRateLimited
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.Kind == KindNotFound
}

// Retryable reports whether the caller may safely retry the request
func (e *APIError) Retryable() bool {
	return e.Kind == KindTransient || e.Kind == KindRateLimited
}

// classifyStatus maps a non-2xx HTTP status to an error kind
func classifyStatus(status int) ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusRequestTimeout, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindTransient
	default:
		return KindUnexpected
	}
}

// KindOf returns the classification of err, and false if err is not an APIError
func KindOf(err error) (ErrorKind, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return KindUnexpected, false
}

func excerpt(body []byte) string {
	if len(body) > maxBodyExcerpt {
		return string(body[:maxBodyExcerpt]) + "..."
	}
	return string(body)
}
