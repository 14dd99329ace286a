package jenkins

import (
	"errors"
	"fmt"
)

var ErrRequestNotBuilt = errors.New("trigger request not built")

// ProtocolError is a non-2xx response from Jenkins.
type ProtocolError struct {
	StatusCode int
	Reason     string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("jenkins responded %d %s", e.StatusCode, e.Reason)
}

// TransportError means Jenkins could not be reached: name resolution,
// connection, TLS or timeout failures.
type TransportError struct {
	Reason string
	Err    error
}

func (e *TransportError) Error() string {
	return "jenkins unreachable: " + e.Reason
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func ErrorRequestNotBuilt(uri string, cause error) error {
	return fmt.Errorf("%w: object=%s cause=%w", ErrRequestNotBuilt, uri, cause)
}

// IsProtocolError reports whether err is, or wraps, a *ProtocolError.
func IsProtocolError(err error) bool {
	var protocolErr *ProtocolError
	return errors.As(err, &protocolErr)
}

// IsTransportError reports whether err is, or wraps, a *TransportError.
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
