package mailbox

import (
	"errors"
	"fmt"
)

// ValidationError indicates malformed caller input (address, date, folder
// name). It is raised before any protocol command is issued and is never
// retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err (or any error in its chain) is a
// ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AuthError indicates the server rejected the supplied credentials.
// Authentication failures are never retried.
type AuthError struct {
	Address string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Address, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// ConnectionError indicates a network or TLS failure. Connection attempts
// are retried once before this surfaces.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error (%s): %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err (or any error in its chain) is a
// ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// ProtocolError indicates an unexpected server response, such as a missing
// folder or a failed search. It is surfaced immediately; the session drops
// to disconnected after release.
type ProtocolError struct {
	Op      string
	Message string
	Err     error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error (%s): %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("protocol error (%s): %s", e.Op, e.Message)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsProtocolError reports whether err (or any error in its chain) is a
// ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
