package gateway

import (
	"errors"
	"fmt"
)

// SignatureError means the gateway's response signature was missing or did not
// verify. The response body must not be trusted and the call is never retried.
type SignatureError struct {
	Op string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("vtmoney %s: response signature missing or invalid", e.Op)
}

// TransportError covers network failures, timeouts and unreadable responses.
// The outcome of the call is indeterminate: the transaction may or may not
// exist on the gateway side.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("vtmoney %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func IsSignatureError(err error) bool {
	var se *SignatureError
	return errors.As(err, &se)
}

func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
