package portal

import (
	"errors"
	"fmt"
)

// ErrUnavailable is matched by every error returned from a poll.
// Callers that only care whether the portal answered usefully should check for it with errors.Is.
var ErrUnavailable = errors.New("portal unavailable")

var (
	errUnsuccessful = errors.New("portal reported success=false")
)

// ErrorKind classifies why a poll failed.
type ErrorKind int

const (
	// NetworkError covers timeouts and connection failures.
	NetworkError ErrorKind = iota
	// ProtocolError is a non-2xx HTTP status.
	ProtocolError
	// PayloadError is an unparseable body, a success=false flag or a missing field.
	PayloadError
)

func (k ErrorKind) String() string {
	switch k {
	case NetworkError:
		return "network"
	case ProtocolError:
		return "protocol"
	case PayloadError:
		return "payload"
	}
	return "unknown"
}

// Error is returned by the pollers.
type Error struct {
	Kind     ErrorKind
	Endpoint string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error from %s: %v", e.Kind, e.Endpoint, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports every portal error as ErrUnavailable.
func (e *Error) Is(target error) bool {
	return target == ErrUnavailable
}
