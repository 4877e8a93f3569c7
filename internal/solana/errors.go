package solana

import (
	"context"
	"errors"
	"fmt"
)

// RPCError is a JSON-RPC 2.0 protocol error. Protocol errors are never
// retried: the request itself is wrong, not the endpoint.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// transportError marks rate limits, timeouts, and generic network failures.
// These rotate to the next endpoint and retry.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func newTransportError(format string, args ...interface{}) error {
	return &transportError{err: fmt.Errorf(format, args...)}
}

// IsRetryable reports whether an error should rotate endpoints and retry.
// A deadline on the attempt is retryable; caller cancellation is not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te *transportError
	return errors.As(err, &te)
}
