package payment

import (
	"context"

	"vimart-be/internal/gateway"
	"vimart-be/internal/order"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderRepository) SetPaymentInitiated(ctx context.Context, id, method, paymentID string) (bool, error) {
	args := m.Called(ctx, id, method, paymentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) MarkPaid(ctx context.Context, id, paymentID string) (bool, error) {
	args := m.Called(ctx, id, paymentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) MarkPaymentFailed(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) MarkRefunded(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockGatewayClient struct {
	mock.Mock
}

func (m *MockGatewayClient) CreateTransaction(ctx context.Context, req *gateway.TransactionRequest) (*gateway.TransactionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.TransactionResult), args.Error(1)
}

func (m *MockGatewayClient) Refund(ctx context.Context, req *gateway.RefundRequest) (*gateway.TransactionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.TransactionResult), args.Error(1)
}

func (m *MockGatewayClient) QueryStatus(ctx context.Context, req *gateway.QueryRequest) ([]gateway.TransactionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gateway.TransactionResult), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendPaymentSuccessEmail(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockNotifier) SendPaymentFailedEmail(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockNotifier) SendRefundConfirmationEmail(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}
