// Package callback hosts the partner-facing endpoints the VTMoney gateway
// calls back into: the synchronous order-confirmation pre-check, the IPN
// result channel, and the browser redirect. The signed endpoints never answer
// with an HTTP error; the gateway only understands the coded JSON body.
package callback

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"vimart-be/internal/logger"
	"vimart-be/internal/money"
	"vimart-be/internal/order"
	"vimart-be/internal/payment"
	"vimart-be/internal/signature"

	"go.uber.org/zap"
)

// Response codes the gateway acts on. Anything but "00" aborts its flow.
const (
	CodeAccepted         = "00"
	CodeOrderNotFound    = "01"
	CodeOrderNotPayable  = "02"
	CodeAmountMismatch   = "03"
	CodeInvalidSignature = "04"
	CodeInternalError    = "99"
)

const signatureHeader = "X-Signature"

type Handler struct {
	PaymentSvc payment.Service
	Orders     order.Repository
	Callbacks  payment.Repository
	GatewayPub *ecdsa.PublicKey
}

func NewHandler(
	svc payment.Service,
	orders order.Repository,
	callbacks payment.Repository,
	gatewayPub *ecdsa.PublicKey,
) *Handler {
	return &Handler{
		PaymentSvc: svc,
		Orders:     orders,
		Callbacks:  callbacks,
		GatewayPub: gatewayPub,
	}
}

type codedResponse struct {
	Code    string `json:"code"`
	OrderID string `json:"orderId,omitempty"`
	Message string `json:"message"`
}

func writeCoded(w http.ResponseWriter, code, orderID, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(codedResponse{
		Code:    code,
		OrderID: orderID,
		Message: message,
	})
}

// readSignedBody reads the raw body and verifies its signature. No field of
// the message is decoded, let alone trusted, before verification passes.
func (h *Handler) readSignedBody(r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, false
	}
	defer r.Body.Close()

	if !signature.Verify(body, r.Header.Get(signatureHeader), h.GatewayPub) {
		return nil, false
	}
	return body, true
}

type orderConfirmationPayload struct {
	MerchantCode string `json:"merchantCode"`
	OrderID      string `json:"orderId"`
	TransAmount  int64  `json:"transAmount"`
	RequestID    string `json:"vtRequestId"`
}

// OrderConfirmationHandler answers the gateway's synchronous "is this order
// valid and is this the right amount?" pre-check. It mutates nothing; the
// gateway only shows its payment page after a 00.
func (h *Handler) OrderConfirmationHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context())

	body, ok := h.readSignedBody(r)
	if !ok {
		log.Warn("order-confirmation rejected: invalid signature")
		writeCoded(w, CodeInvalidSignature, "", "invalid signature")
		return
	}

	var p orderConfirmationPayload
	if err := json.Unmarshal(body, &p); err != nil {
		log.Warn("order-confirmation rejected: malformed payload", zap.Error(err))
		writeCoded(w, CodeInternalError, "", "malformed payload")
		return
	}

	log = log.With(zap.String("order_id", p.OrderID), zap.Int64("trans_amount", p.TransAmount))

	if _, _, err := h.Callbacks.SaveCallback(r.Context(), payment.CallbackOrderConfirmation, p.OrderID, p.RequestID, body, true); err != nil {
		log.Warn("failed recording order-confirmation callback", zap.Error(err))
	}

	o, err := h.Orders.FindByID(r.Context(), p.OrderID)
	if errors.Is(err, order.ErrOrderNotFound) {
		log.Warn("order-confirmation: order not found")
		writeCoded(w, CodeOrderNotFound, p.OrderID, "order not found")
		return
	}
	if err != nil {
		log.Error("order-confirmation: order lookup failed", zap.Error(err))
		writeCoded(w, CodeInternalError, p.OrderID, "internal error")
		return
	}

	if !o.Payable() {
		log.Warn("order-confirmation: order not payable", zap.String("status", string(o.Status)))
		writeCoded(w, CodeOrderNotPayable, p.OrderID, "order is not awaiting payment")
		return
	}

	expected, err := money.ToMinorUnits(o.TotalPrice)
	if err != nil {
		log.Error("order-confirmation: amount conversion failed", zap.Error(err))
		writeCoded(w, CodeInternalError, p.OrderID, "internal error")
		return
	}
	if expected != p.TransAmount {
		log.Warn("order-confirmation: amount mismatch", zap.Int64("expected", expected))
		writeCoded(w, CodeAmountMismatch, p.OrderID, "amount does not match order total")
		return
	}

	writeCoded(w, CodeAccepted, p.OrderID, "order confirmed")
}

type ipnPayload struct {
	OrderID     string `json:"orderId"`
	TransStatus int    `json:"transStatus"`
	ErrorCode   string `json:"errorCode"`
	RequestID   string `json:"vtRequestId"`
}

// IPNHandler is the authoritative asynchronous result channel. Whatever goes
// wrong internally, the gateway gets a coded body back so its retry semantics
// stay well-defined.
func (h *Handler) IPNHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context())

	body, ok := h.readSignedBody(r)
	if !ok {
		log.Warn("IPN rejected: invalid signature")
		writeCoded(w, CodeInvalidSignature, "", "invalid signature")
		return
	}

	var p ipnPayload
	if err := json.Unmarshal(body, &p); err != nil {
		log.Warn("IPN rejected: malformed payload", zap.Error(err))
		writeCoded(w, CodeInternalError, "", "malformed payload")
		return
	}

	log = log.With(
		zap.String("order_id", p.OrderID),
		zap.Int("trans_status", p.TransStatus),
		zap.String("error_code", p.ErrorCode),
		zap.String("vt_request_id", p.RequestID),
	)

	callbackID, isDup, err := h.Callbacks.SaveCallback(r.Context(), payment.CallbackIPN, p.OrderID, p.RequestID, body, true)
	if err != nil {
		log.Warn("failed recording IPN callback", zap.Error(err))
	}
	if isDup {
		// Reapplying is safe: the state machine absorbs settled orders.
		log.Info("duplicate IPN delivery")
	}

	if err := h.PaymentSvc.ApplyTransactionResult(r.Context(), p.OrderID, p.TransStatus, p.ErrorCode, p.RequestID); err != nil {
		log.Error("failed applying IPN result", zap.Error(err))
		if callbackID != 0 {
			_ = h.Callbacks.MarkCallbackFailed(r.Context(), callbackID, err.Error())
		}
		writeCoded(w, CodeInternalError, p.OrderID, "internal error")
		return
	}

	if callbackID != 0 {
		if err := h.Callbacks.MarkCallbackProcessed(r.Context(), callbackID); err != nil {
			log.Warn("failed marking IPN callback processed", zap.Error(err))
		}
	}

	log.Info("IPN processed")
	writeCoded(w, CodeAccepted, p.OrderID, "accepted")
}

// RedirectHandler receives the payer's browser after the gateway flow. The
// URL parameters are attacker-controllable, so the status and vtRequestId
// they carry are advisory only: the real state comes from a fresh gateway
// query applied through the state machine.
func (h *Handler) RedirectHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context())

	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		renderPage(w, pageUnknown, "")
		return
	}

	log = log.With(zap.String("order_id", orderID))

	res := h.PaymentSvc.QueryTransactionStatus(r.Context(), orderID)
	if res == nil {
		log.Info("redirect: no gateway record to reconcile")
		renderPage(w, pageUnknown, orderID)
		return
	}

	if err := h.PaymentSvc.ApplyTransactionResult(r.Context(), orderID, res.TransStatus, res.ErrorCode, res.RequestID); err != nil {
		log.Error("redirect: failed applying queried result", zap.Error(err))
		renderPage(w, pageUnknown, orderID)
		return
	}

	if res.Success() {
		renderPage(w, pageSuccess, orderID)
		return
	}
	renderPage(w, pageFailed, orderID)
}
