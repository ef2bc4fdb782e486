package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"vimart-be/internal/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Produce(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

func testOrder() *order.Order {
	return &order.Order{
		ID:            "ord-1",
		TotalPrice:    50.00,
		Status:        order.StatusPaid,
		PaymentID:     "VT1",
		CustomerEmail: "buyer@example.com",
	}
}

func TestQueueNotifier_Publish(t *testing.T) {
	cases := []struct {
		name     string
		send     func(n Notifier, ctx context.Context, o *order.Order) error
		wantType string
	}{
		{"Success", Notifier.SendPaymentSuccessEmail, EventPaymentSuccess},
		{"Failed", Notifier.SendPaymentFailedEmail, EventPaymentFailed},
		{"Refund", Notifier.SendRefundConfirmationEmail, EventRefundConfirmed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			producer := new(MockProducer)
			n := NewQueueNotifier(producer)
			o := testOrder()

			var captured []byte
			producer.On("Produce", mock.Anything, "ord-1", mock.Anything).
				Run(func(args mock.Arguments) {
					captured = args.Get(2).([]byte)
				}).
				Return(nil)

			err := tc.send(n, context.Background(), o)
			require.NoError(t, err)

			var ev Event
			require.NoError(t, json.Unmarshal(captured, &ev))
			assert.Equal(t, tc.wantType, ev.Type)
			assert.Equal(t, "ord-1", ev.OrderID)
			assert.Equal(t, "buyer@example.com", ev.Email)
			assert.Equal(t, "VT1", ev.PaymentID)
			assert.NotEmpty(t, ev.ID)

			producer.AssertExpectations(t)
		})
	}
}

func TestQueueNotifier_ProducerError(t *testing.T) {
	producer := new(MockProducer)
	n := NewQueueNotifier(producer)

	producer.On("Produce", mock.Anything, "ord-1", mock.Anything).
		Return(errors.New("broker unreachable"))

	err := n.SendPaymentSuccessEmail(context.Background(), testOrder())
	assert.Error(t, err)
}
