package transport

import (
	"errors"
	"fmt"
)

// Kind classifies transport failures.
type Kind int

const (
	// ConnectFailed indicates the backend could not be reached or spawned, or went away before responding.
	ConnectFailed Kind = iota + 1
	// SendFailed indicates the request could not be written.
	SendFailed
	// Timeout indicates the exchange did not complete within the configured deadline.
	Timeout
	// MalformedResponse indicates the received bytes do not form a complete response.
	MalformedResponse
)

func (k Kind) String() string {
	switch k {
	case ConnectFailed:
		return "connect failed"
	case SendFailed:
		return "send failed"
	case Timeout:
		return "timeout"
	case MalformedResponse:
		return "malformed response"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error lets a Kind be used directly as errors.Is target.
func (k Kind) Error() string {
	return k.String()
}

// Error represents a transport failure.
type Error struct {
	Kind      Kind
	Transport string
	Op        string
	Err       error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Transport, e.Op, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Transport, e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a Kind target, so errors.Is(err, transport.Timeout) works across wrapping.
func (e *Error) Is(target error) bool {
	kind, ok := target.(Kind)
	return ok && kind == e.Kind
}

// NewError creates a transport error
func NewError(kind Kind, transport, op string, err error) *Error {
	return &Error{Kind: kind, Transport: transport, Op: op, Err: err}
}

// KindOf returns the kind of the first transport error in err's chain.
func KindOf(err error) (Kind, bool) {
	var transportErr *Error
	if errors.As(err, &transportErr) {
		return transportErr.Kind, true
	}
	return 0, false
}
