package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound is returned when a barcode has no record in the product database
	ErrProductNotFound = errors.New("product not found in product database")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidBarcode is returned when a barcode is not 8-13 digits
	ErrInvalidBarcode = fmt.Errorf("%w: barcode must be 8 to 13 digits", ErrInvalidRequest)

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrProductAPIFailure is returned when the product database request fails
	ErrProductAPIFailure = errors.New("product database request failed")

	// ErrInvalidTransition is returned when a wizard event is not valid for the current step
	ErrInvalidTransition = errors.New("invalid wizard transition")
)

// Resolution failure sentinels. A *ResolutionError unwraps to the one
// matching its Kind.
var (
	ErrConfigurationMissing = errors.New("model credential is not configured")
	ErrNetwork              = errors.New("network error")
	ErrTimeout              = errors.New("upstream request timed out")
	ErrUpstreamRateLimited  = errors.New("upstream rate limited")
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
	ErrUpstreamEmpty        = errors.New("upstream returned empty response")
	ErrParse                = errors.New("could not parse model response")
)

// FailureKind classifies why a resolution did not produce text.
type FailureKind string

const (
	KindConfigurationMissing  FailureKind = "configuration_missing"
	KindNetworkError          FailureKind = "network_error"
	KindTimeout               FailureKind = "timeout"
	KindUpstreamRateLimited   FailureKind = "upstream_rate_limited"
	KindUpstreamUnavailable   FailureKind = "upstream_unavailable"
	KindUpstreamEmptyResponse FailureKind = "upstream_empty_response"
	KindParseError            FailureKind = "parse_error"
)

var kindSentinels = map[FailureKind]error{
	KindConfigurationMissing:  ErrConfigurationMissing,
	KindNetworkError:          ErrNetwork,
	KindTimeout:               ErrTimeout,
	KindUpstreamRateLimited:   ErrUpstreamRateLimited,
	KindUpstreamUnavailable:   ErrUpstreamUnavailable,
	KindUpstreamEmptyResponse: ErrUpstreamEmpty,
	KindParseError:            ErrParse,
}

// ResolutionError is the failure side of a resolution outcome.
type ResolutionError struct {
	Kind       FailureKind
	Candidate  string // model name, empty when no candidate was tried
	StatusCode int    // upstream HTTP status, 0 when no response was received
	Message    string
}

// NewResolutionError creates a ResolutionError of the given kind
func NewResolutionError(kind FailureKind, message string) *ResolutionError {
	return &ResolutionError{Kind: kind, Message: message}
}

func (e *ResolutionError) Error() string {
	if e.Candidate != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Candidate, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ResolutionError) Unwrap() error {
	return kindSentinels[e.Kind]
}

// KindOf extracts the failure kind from err, or "" when err is not a resolution failure.
func KindOf(err error) FailureKind {
	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		return resErr.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return ""
}
