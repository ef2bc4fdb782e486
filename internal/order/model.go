package order

import "time"

type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusPaid           Status = "PAID"
	StatusPaymentFailed  Status = "PAYMENT_FAILED"
	StatusConfirmed      Status = "CONFIRMED"
	StatusCancelled      Status = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentSuccessful PaymentStatus = "SUCCESSFUL"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
)

// Order carries the payment-relevant slice of an order. PaymentID is the
// gateway's correlating request id, distinct from our own ID; the gateway may
// replace it on IPN.
type Order struct {
	ID            string
	TotalPrice    float64
	Status        Status
	PaymentMethod string
	PaymentID     string
	PaymentStatus PaymentStatus
	CustomerEmail string
	CustomerPhone string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Payable reports whether payment may be initiated for this order.
func (o *Order) Payable() bool {
	return o.Status == StatusPendingPayment
}

// Refundable reports whether the order is in a state that admits a refund.
func (o *Order) Refundable() bool {
	return o.Status == StatusPaid || o.Status == StatusConfirmed
}
