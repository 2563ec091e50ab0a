package inventory

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnauthorized is returned when the backend answers 401. The session is
// over; callers purge credentials and show the login view.
var ErrUnauthorized = errors.New("session expired or not authenticated")

// APIError is an application-level failure: an envelope with success=false,
// or an HTTP error status carrying a message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.Status)
	}
	return e.Message
}

// TransportError wraps a network-level failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FieldErrors maps a form field to its validation message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

// Kind buckets errors for display.
type Kind int

const (
	KindNone Kind = iota
	KindTransport
	KindApplication
	KindValidation
	KindAuth
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransport:
		return "network"
	case KindApplication:
		return "server"
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	default:
		return "error"
	}
}

// Classify maps an error onto the taxonomy.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrUnauthorized) {
		return KindAuth
	}
	var fe FieldErrors
	if errors.As(err, &fe) {
		return KindValidation
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return KindApplication
	}
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return KindTransport
	}
	return KindOther
}
