package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vimart-be/internal/config"
	"vimart-be/internal/gateway"
	"vimart-be/internal/logger"
	"vimart-be/internal/money"
	"vimart-be/internal/notify"
	"vimart-be/internal/order"

	"go.uber.org/zap"
)

// PaymentMethod recorded on orders paid through this gateway.
const MethodVTMoney = "VTMONEY"

// Service is the order–payment state machine:
//
//	PENDING_PAYMENT -> PAID | PAYMENT_FAILED -> CONFIRMED | CANCELLED (refund)
//
// Transitions out of PENDING_PAYMENT happen exactly once regardless of how
// many times or in which order the gateway's callbacks arrive; an order that
// has already left PENDING_PAYMENT absorbs further results as no-ops.
type Service interface {
	InitiatePayment(ctx context.Context, orderID string, mode gateway.DisplayMode) (*gateway.TransactionResult, error)
	ApplyTransactionResult(ctx context.Context, orderID string, transStatus int, errorCode, gatewayRequestID string) error
	ProcessRefund(ctx context.Context, orderID string, amountMinor int64, reason string) (*gateway.TransactionResult, error)
	QueryTransactionStatus(ctx context.Context, orderID string) *gateway.TransactionResult
}

type service struct {
	orders   order.Repository
	gw       gateway.Client
	notifier notify.Notifier
	env      *config.GatewayEnvironment
	policy   config.FailedOrderPolicy
}

func NewService(
	orders order.Repository,
	gw gateway.Client,
	notifier notify.Notifier,
	env *config.GatewayEnvironment,
	policy config.FailedOrderPolicy,
) Service {
	return &service{
		orders:   orders,
		gw:       gw,
		notifier: notifier,
		env:      env,
		policy:   policy,
	}
}

func (s *service) InitiatePayment(ctx context.Context, orderID string, mode gateway.DisplayMode) (*gateway.TransactionResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("order_id", orderID),
		zap.String("display_mode", string(mode)),
	)

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !o.Payable() {
		log.Warn("payment initiation rejected", zap.String("status", string(o.Status)))
		return nil, fmt.Errorf("%w: order %s is %s", ErrInvalidOrderState, orderID, o.Status)
	}

	amount, err := money.ToMinorUnits(o.TotalPrice)
	if err != nil {
		return nil, &ProcessingError{OrderID: orderID, Err: err}
	}

	req := &gateway.TransactionRequest{
		MerchantCode:  s.env.MerchantCode,
		OrderID:       o.ID,
		TransAmount:   amount,
		Description:   "Payment for order " + o.ID,
		ReturnType:    mode,
		ReturnURL:     s.env.ReturnURL,
		CancelURL:     s.env.CancelURL,
		IPNURL:        s.env.IPNURL,
		ExpireAfter:   s.env.ExpireAfter,
		CustomerPhone: o.CustomerPhone,
		CustomerEmail: o.CustomerEmail,
	}

	res, err := s.gw.CreateTransaction(ctx, req)
	if err != nil {
		if gateway.IsTransportError(err) {
			// Indeterminate: the gateway may have registered the transaction.
			// The order stays PENDING_PAYMENT until an IPN or a status query
			// settles it.
			log.Error("gateway unreachable during initiation, order left pending", zap.Error(err))
			return nil, &ProcessingError{OrderID: orderID, Err: err}
		}

		// Signature failure: the gateway answered but the response cannot be
		// trusted. Treated like a gateway rejection.
		log.Error("gateway response rejected during initiation", zap.Error(err))
		s.applyFailedOrderPolicy(ctx, o, false)
		return nil, &GatewayError{OrderID: orderID, Code: "", Message: err.Error()}
	}

	if !res.Success() {
		log.Warn("gateway declined transaction",
			zap.Int("trans_status", res.TransStatus),
			zap.String("error_code", res.ErrorCode),
		)
		s.applyFailedOrderPolicy(ctx, o, false)
		return nil, &GatewayError{OrderID: orderID, Code: res.ErrorCode, Message: res.Message}
	}

	applied, err := s.orders.SetPaymentInitiated(ctx, o.ID, MethodVTMoney, res.RequestID)
	if err != nil {
		// The gateway-side transaction exists but we could not record it.
		// Keep the order pending rather than deleting it under an orphaned
		// gateway transaction; reconciliation arrives via IPN.
		log.Error("failed persisting initiated payment, order left pending", zap.Error(err))
		return nil, &ProcessingError{OrderID: orderID, Err: err}
	}
	if !applied {
		log.Warn("order left PENDING_PAYMENT before initiation could be recorded")
	}

	log.Info("payment initiated",
		zap.String("request_id", res.RequestID),
		zap.Int64("trans_amount", amount),
	)

	// The display payload (redirect URL / QR / deeplink) goes back unmodified.
	return res, nil
}

func (s *service) ApplyTransactionResult(ctx context.Context, orderID string, transStatus int, errorCode, gatewayRequestID string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("order_id", orderID),
		zap.Int("trans_status", transStatus),
		zap.String("error_code", errorCode),
		zap.String("gateway_request_id", gatewayRequestID),
	)

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			// Already processed and removed, or never existed. Redelivery of
			// a settled result is success, not an error.
			log.Info("transaction result for absent order ignored")
			return nil
		}
		return err
	}

	if transStatus == gateway.TransStatusSuccess && errorCode == gateway.ErrorCodeNone {
		applied, err := s.orders.MarkPaid(ctx, orderID, gatewayRequestID)
		if err != nil {
			return err
		}
		if !applied {
			log.Info("duplicate or late success result ignored", zap.String("status", string(o.Status)))
			return nil
		}

		log.Info("order marked paid")

		o.Status = order.StatusPaid
		o.PaymentStatus = order.PaymentSuccessful
		o.PaymentID = gatewayRequestID
		if err := s.notifier.SendPaymentSuccessEmail(ctx, o); err != nil {
			log.Warn("payment success notification failed", zap.Error(err))
		}
		return nil
	}

	applied, err := s.orders.MarkPaymentFailed(ctx, orderID)
	if err != nil {
		return err
	}
	if !applied {
		log.Info("duplicate or late failure result ignored", zap.String("status", string(o.Status)))
		return nil
	}

	log.Info("order marked payment-failed")

	o.Status = order.StatusPaymentFailed
	o.PaymentStatus = order.PaymentFailed
	if err := s.notifier.SendPaymentFailedEmail(ctx, o); err != nil {
		log.Warn("payment failure notification failed", zap.Error(err))
	}

	s.applyFailedOrderPolicy(ctx, o, true)
	return nil
}

// applyFailedOrderPolicy disposes of an order whose payment the gateway
// definitively rejected. Under the delete policy the PAYMENT_FAILED row is
// removed; if deletion itself fails the row is kept as a fallback.
func (s *service) applyFailedOrderPolicy(ctx context.Context, o *order.Order, markedFailed bool) {
	log := logger.FromCtx(ctx).With(zap.String("order_id", o.ID))

	if s.policy == config.FailedOrderKeep {
		if !markedFailed {
			if _, err := s.orders.MarkPaymentFailed(ctx, o.ID); err != nil {
				log.Error("failed marking order as payment-failed", zap.Error(err))
			}
		}
		return
	}

	if err := s.orders.Delete(ctx, o.ID); err != nil {
		log.Error("failed deleting rejected order, keeping failed state", zap.Error(err))
		return
	}
	log.Info("rejected order deleted")
}

func (s *service) ProcessRefund(ctx context.Context, orderID string, amountMinor int64, reason string) (*gateway.TransactionResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("order_id", orderID),
		zap.Int64("refund_amount", amountMinor),
	)

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.PaymentID == "" || !o.Refundable() {
		log.Warn("refund rejected", zap.String("status", string(o.Status)))
		return nil, fmt.Errorf("%w: order %s is %s without a settled payment", ErrInvalidOrderState, orderID, o.Status)
	}

	// Synthetic refund id so the gateway does not collide it with the
	// original transaction.
	refundOrderID := fmt.Sprintf("REFUND_%s_%d", o.ID, time.Now().UnixMilli())

	req := &gateway.RefundRequest{
		MerchantCode:      s.env.MerchantCode,
		OrderID:           refundOrderID,
		OriginalRequestID: o.PaymentID,
		TransAmount:       amountMinor,
		Description:       reason,
	}

	res, err := s.gw.Refund(ctx, req)
	if err != nil {
		log.Error("refund call failed, order state unchanged", zap.Error(err))
		return nil, &RefundError{OrderID: orderID, Err: err}
	}

	if !res.Success() {
		log.Warn("gateway declined refund",
			zap.Int("trans_status", res.TransStatus),
			zap.String("error_code", res.ErrorCode),
		)
		return res, &RefundError{OrderID: orderID, Code: res.ErrorCode}
	}

	if err := s.orders.MarkRefunded(ctx, o.ID); err != nil {
		log.Error("refund succeeded at gateway but local state update failed", zap.Error(err))
		return res, &ProcessingError{OrderID: orderID, Err: err}
	}

	log.Info("order refunded", zap.String("refund_request_id", res.RequestID))

	o.Status = order.StatusCancelled
	o.PaymentStatus = order.PaymentRefunded
	if err := s.notifier.SendRefundConfirmationEmail(ctx, o); err != nil {
		log.Warn("refund confirmation notification failed", zap.Error(err))
	}

	return res, nil
}

// QueryTransactionStatus asks the gateway for the latest attempt recorded for
// the order. Unknown is reported as nil: lookup failures here mean "nothing
// to reconcile", never an error the caller must handle.
func (s *service) QueryTransactionStatus(ctx context.Context, orderID string) *gateway.TransactionResult {
	log := logger.FromCtx(ctx).With(zap.String("order_id", orderID))

	results, err := s.gw.QueryStatus(ctx, &gateway.QueryRequest{
		MerchantCode: s.env.MerchantCode,
		OrderID:      orderID,
	})
	if err != nil {
		log.Warn("status query failed, treating as unknown", zap.Error(err))
		return nil
	}
	if len(results) == 0 {
		return nil
	}

	return &results[0]
}
