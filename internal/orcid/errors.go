package orcid

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the ORCID client.
var (
	// ErrNotFound indicates the record or work was not found.
	ErrNotFound = errors.New("not found in ORCID")

	// ErrAuthError indicates a missing, expired, or insufficient token.
	ErrAuthError = errors.New("ORCID authentication error")

	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("ORCID rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with ORCID")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from ORCID")

	// ErrInvalidID indicates a malformed ORCID iD.
	ErrInvalidID = errors.New("invalid ORCID iD")
)

// APIError represents an error document returned by the ORCID API.
type APIError struct {
	StatusCode       int
	ErrorCode        int    // ORCID error code, e.g. 9016
	DeveloperMessage string
	PutCode          int64 // For context in work-related errors
}

func (e *APIError) Error() string {
	if e.PutCode != 0 {
		return fmt.Sprintf("ORCID API error (status %d, code %d): %s (put-code: %d)", e.StatusCode, e.ErrorCode, e.DeveloperMessage, e.PutCode)
	}
	return fmt.Sprintf("ORCID API error (status %d, code %d): %s", e.StatusCode, e.ErrorCode, e.DeveloperMessage)
}

// IsNotFound returns true if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
