package payment

import (
	"errors"
	"fmt"
)

// ErrInvalidOrderState rejects operations against orders outside the state the
// operation requires; nothing is mutated and no gateway call is made.
var ErrInvalidOrderState = errors.New("order is not in a valid state for this operation")

// GatewayError means the gateway was reachable but rejected the transaction,
// either as a business failure or with an unverifiable signature.
type GatewayError struct {
	OrderID string
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway rejected transaction for order %s (code %s): %s", e.OrderID, e.Code, e.Message)
}

// ProcessingError covers indeterminate outcomes: transport failures and local
// persistence failures after a successful gateway call. The order stays
// PENDING_PAYMENT until a later IPN or status query resolves it.
type ProcessingError struct {
	OrderID string
	Err     error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("payment processing for order %s is unresolved: %v", e.OrderID, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// RefundError means the gateway refused or failed the refund. Order state is
// untouched; the refund must be retried manually.
type RefundError struct {
	OrderID string
	Code    string
	Err     error
}

func (e *RefundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("refund failed for order %s: %v", e.OrderID, e.Err)
	}
	return fmt.Sprintf("refund rejected for order %s (code %s)", e.OrderID, e.Code)
}

func (e *RefundError) Unwrap() error { return e.Err }
