// Package notify dispatches payment-outcome notifications. The actual email
// composition and delivery live in an external mailer service consuming the
// notification topic; this package only publishes the events.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"vimart-be/internal/kafka"
	"vimart-be/internal/logger"
	"vimart-be/internal/order"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventPaymentSuccess  = "payment.success"
	EventPaymentFailed   = "payment.failed"
	EventRefundConfirmed = "refund.confirmed"
)

// Notifier is fire-and-forget from the orchestrator's point of view: a
// returned error is logged by the caller and never rolls back payment state.
type Notifier interface {
	SendPaymentSuccessEmail(ctx context.Context, o *order.Order) error
	SendPaymentFailedEmail(ctx context.Context, o *order.Order) error
	SendRefundConfirmationEmail(ctx context.Context, o *order.Order) error
}

// Event is the message published to the notification topic, keyed by order id.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	TotalPrice float64   `json:"totalPrice"`
	PaymentID  string    `json:"paymentId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type queueNotifier struct {
	producer kafka.Producer
}

func NewQueueNotifier(producer kafka.Producer) Notifier {
	return &queueNotifier{producer: producer}
}

func (n *queueNotifier) SendPaymentSuccessEmail(ctx context.Context, o *order.Order) error {
	return n.publish(ctx, EventPaymentSuccess, o)
}

func (n *queueNotifier) SendPaymentFailedEmail(ctx context.Context, o *order.Order) error {
	return n.publish(ctx, EventPaymentFailed, o)
}

func (n *queueNotifier) SendRefundConfirmationEmail(ctx context.Context, o *order.Order) error {
	return n.publish(ctx, EventRefundConfirmed, o)
}

func (n *queueNotifier) publish(ctx context.Context, eventType string, o *order.Order) error {
	ev := Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OrderID:    o.ID,
		Email:      o.CustomerEmail,
		Phone:      o.CustomerPhone,
		TotalPrice: o.TotalPrice,
		PaymentID:  o.PaymentID,
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	if err := n.producer.Produce(ctx, o.ID, payload); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("notification event published",
		zap.String("type", eventType),
		zap.String("order_id", o.ID),
	)
	return nil
}
