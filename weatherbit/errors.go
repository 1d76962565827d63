package weatherbit

import (
	"errors"
	"fmt"
)

// Error kinds, comparable with errors.Is.
var (
	ErrInvalidConfig    = errors.New("weatherbit: invalid configuration")
	ErrMissingKey       = errors.New("weatherbit: missing API key")
	ErrMissingURL       = errors.New("weatherbit: missing URL for API call")
	ErrTransportFailure = errors.New("weatherbit: API failure")
	ErrEmptyResponse    = errors.New("weatherbit: no data from API")
	ErrDecodeFailure    = errors.New("weatherbit: unable to decode response from API")
)

// ValidationError represents a setter argument that was rejected
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// APIError represents a non-200 response from the Weatherbit API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return ErrTransportFailure
}

// NetworkError represents a request that never produced an HTTP status
type NetworkError struct {
	Operation string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	return []error{ErrTransportFailure, e.Err}
}

// Kind classifies an error returned by the Client.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidConfig
	KindMissingKey
	KindMissingURL
	KindTransportFailure
	KindEmptyResponse
	KindDecodeFailure
)

var kindNames = map[Kind]string{
	KindUnknown:          "Unknown",
	KindInvalidConfig:    "InvalidConfig",
	KindMissingKey:       "MissingKey",
	KindMissingURL:       "MissingURL",
	KindTransportFailure: "TransportFailure",
	KindEmptyResponse:    "EmptyResponse",
	KindDecodeFailure:    "DecodeFailure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// KindOf returns the kind of err, or KindUnknown for errors that did not
// originate in this package.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidConfig):
		return KindInvalidConfig
	case errors.Is(err, ErrMissingKey):
		return KindMissingKey
	case errors.Is(err, ErrMissingURL):
		return KindMissingURL
	case errors.Is(err, ErrTransportFailure):
		return KindTransportFailure
	case errors.Is(err, ErrEmptyResponse):
		return KindEmptyResponse
	case errors.Is(err, ErrDecodeFailure):
		return KindDecodeFailure
	default:
		return KindUnknown
	}
}
