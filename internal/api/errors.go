package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an API failure so callers can decide how to react.
type Kind int

const (
	// NetworkError means the request never produced an HTTP response.
	NetworkError Kind = iota
	// Unauthorized means the token is missing or expired; callers should
	// surface a re-login prompt rather than swallow it.
	Unauthorized
	// NotFound covers deletes of already-gone resources; callers usually
	// treat it as success.
	NotFound
	// ValidationError is bad input rejected by the server.
	ValidationError
	// ServerError is any 5xx.
	ServerError
)

func (k Kind) String() string {
	switch k {
	case NetworkError:
		return "network error"
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not found"
	case ValidationError:
		return "validation error"
	case ServerError:
		return "server error"
	default:
		return "unknown"
	}
}

// Error is the classified failure returned by every Client operation.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}

// IsUnauthorized reports whether err calls for re-authentication.
func IsUnauthorized(err error) bool { return IsKind(err, Unauthorized) }

// IsNotFound reports whether err is a 404, which delete callers treat as
// success.
func IsNotFound(err error) bool { return IsKind(err, NotFound) }

func classify(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return Unauthorized
	case status == http.StatusNotFound:
		return NotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ValidationError
	default:
		return ServerError
	}
}
