package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Provider errors. Every provider call fails with exactly one of these.
	ErrMissingCredential = fmt.Errorf("missing credential")
	ErrMalformedRequest  = fmt.Errorf("malformed request parameters")
	ErrTransport         = fmt.Errorf("transport failure")
	ErrInvalidStatus     = fmt.Errorf("invalid response status")
	ErrNoData            = fmt.Errorf("empty or missing data")
	ErrDecodeFailure     = fmt.Errorf("decode failure")
	ErrUnsupported       = fmt.Errorf("unsupported by provider")

	// Task errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// ErrorKind is the classification of a provider error.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindMissingCredential ErrorKind = "missingCredential"
	KindMalformedRequest  ErrorKind = "malformedRequestParameters"
	KindTransport         ErrorKind = "transportFailure"
	KindInvalidStatus     ErrorKind = "invalidResponseStatus"
	KindNoData            ErrorKind = "emptyOrMissingData"
	KindDecodeFailure     ErrorKind = "decodeFailure"
	KindUnsupported       ErrorKind = "unsupportedByProvider"
	KindUnknown           ErrorKind = "unknown"
)

var kinds = []struct {
	sentinel error
	kind     ErrorKind
}{
	{ErrMissingCredential, KindMissingCredential},
	{ErrMalformedRequest, KindMalformedRequest},
	{ErrTransport, KindTransport},
	{ErrInvalidStatus, KindInvalidStatus},
	{ErrNoData, KindNoData},
	{ErrDecodeFailure, KindDecodeFailure},
	{ErrUnsupported, KindUnsupported},
}

// Classify maps err back onto its [ErrorKind].
// A nil error is [KindNone]; an error wrapping none of the provider sentinels is [KindUnknown].
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.kind
		}
	}
	return KindUnknown
}

// StatusError carries the HTTP status of a rejected provider response.
// It unwraps to [ErrInvalidStatus].
type StatusError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: %s %s returned %d", ErrInvalidStatus, e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%v: %s %s returned %d: %s", ErrInvalidStatus, e.Method, e.URL, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrInvalidStatus }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
