package route

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed route fetch.
type ErrorKind int

const (
	KindNetwork ErrorKind = iota + 1
	KindBadStatus
	KindParseFailure
	KindMissingField
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindBadStatus:
		return "bad_status"
	case KindParseFailure:
		return "parse_failure"
	case KindMissingField:
		return "missing_field"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against a *FetchError of the same kind.
var (
	ErrNetwork      = errors.New("route: network failure")
	ErrBadStatus    = errors.New("route: unexpected status")
	ErrParseFailure = errors.New("route: malformed response")
	ErrMissingField = errors.New("route: missing field")
)

// FetchError is returned by Client for every failed fetch.
type FetchError struct {
	Kind ErrorKind
	// StatusCode is set for KindBadStatus.
	StatusCode int
	// Code and Message carry the routing service's error document, when present.
	Code    string
	Message string
	// Field names the missing or malformed element, e.g. "routes[0].geometry".
	Field string
	Err   error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindBadStatus:
		msg := fmt.Sprintf("route: status %d", e.StatusCode)
		if e.Code != "" {
			msg += " (" + e.Code
			if e.Message != "" {
				msg += ": " + e.Message
			}
			msg += ")"
		}
		return msg
	case KindMissingField:
		return "route: missing field " + e.Field
	case KindParseFailure:
		if e.Field != "" {
			return fmt.Sprintf("route: malformed %s: %v", e.Field, e.Err)
		}
		return fmt.Sprintf("route: malformed response: %v", e.Err)
	case KindNetwork:
		return fmt.Sprintf("route: network: %v", e.Err)
	default:
		return fmt.Sprintf("route: %v", e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrBadStatus:
		return e.Kind == KindBadStatus
	case ErrParseFailure:
		return e.Kind == KindParseFailure
	case ErrMissingField:
		return e.Kind == KindMissingField
	}
	return false
}

// KindOf returns the kind of a *FetchError anywhere in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}
