// Package httpapi exposes the merchant-facing JSON endpoints for driving
// payments: initiation, refunds, and status lookups. These sit behind auth,
// unlike the partner callbacks.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"vimart-be/internal/gateway"
	"vimart-be/internal/logger"
	"vimart-be/internal/order"
	"vimart-be/internal/payment"

	"go.uber.org/zap"
)

type Handler struct {
	PaymentSvc payment.Service
}

func NewHandler(svc payment.Service) *Handler {
	return &Handler{PaymentSvc: svc}
}

type errorBody struct {
	OrderID string `json:"orderId,omitempty"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, orderID, message string) {
	writeJSON(w, status, errorBody{OrderID: orderID, Message: message})
}

type initiateRequest struct {
	Mode string `json:"mode"`
}

type initiateResponse struct {
	OrderID   string `json:"orderId"`
	RequestID string `json:"requestId"`
	PayURL    string `json:"payUrl,omitempty"`
	QRCode    string `json:"qrCode,omitempty"`
	Deeplink  string `json:"deeplink,omitempty"`
}

func parseMode(s string) (gateway.DisplayMode, bool) {
	switch s {
	case "", "web":
		return gateway.ModeWeb, true
	case "qr":
		return gateway.ModeQR, true
	case "deeplink":
		return gateway.ModeDeeplink, true
	default:
		return "", false
	}
}

// InitiateHandler starts a payment for the order in the path. The order must
// be awaiting payment; a gateway rejection comes back as 502 so the caller
// can distinguish "we refused" from "the gateway refused".
func (h *Handler) InitiateHandler(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderID")
	log := logger.FromCtx(r.Context()).With(zap.String("order_id", orderID))

	var req initiateRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, orderID, "invalid request body")
			return
		}
	}

	mode, ok := parseMode(req.Mode)
	if !ok {
		writeError(w, http.StatusBadRequest, orderID, "mode must be one of web, qr, deeplink")
		return
	}

	res, err := h.PaymentSvc.InitiatePayment(r.Context(), orderID, mode)
	if err != nil {
		var gwErr *payment.GatewayError
		var procErr *payment.ProcessingError
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			writeError(w, http.StatusNotFound, orderID, "order not found")
		case errors.Is(err, payment.ErrInvalidOrderState):
			writeError(w, http.StatusConflict, orderID, "order is not awaiting payment")
		case errors.As(err, &gwErr):
			log.Warn("gateway declined payment initiation", zap.String("code", gwErr.Code))
			writeError(w, http.StatusBadGateway, orderID, gwErr.Message)
		case errors.As(err, &procErr):
			log.Error("payment initiation indeterminate", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, orderID, "payment could not be initiated, please retry")
		default:
			log.Error("payment initiation failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, orderID, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, initiateResponse{
		OrderID:   orderID,
		RequestID: res.RequestID,
		PayURL:    res.PayURL,
		QRCode:    res.QRCode,
		Deeplink:  res.Deeplink,
	})
}

type refundRequest struct {
	AmountMinor int64  `json:"amountMinor"`
	Reason      string `json:"reason"`
}

type refundResponse struct {
	OrderID   string `json:"orderId"`
	RequestID string `json:"requestId"`
	Message   string `json:"message"`
}

func (h *Handler) RefundHandler(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderID")
	log := logger.FromCtx(r.Context()).With(zap.String("order_id", orderID))

	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, orderID, "invalid request body")
		return
	}
	if req.AmountMinor <= 0 {
		writeError(w, http.StatusBadRequest, orderID, "amountMinor must be positive")
		return
	}

	res, err := h.PaymentSvc.ProcessRefund(r.Context(), orderID, req.AmountMinor, req.Reason)
	if err != nil {
		var refundErr *payment.RefundError
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			writeError(w, http.StatusNotFound, orderID, "order not found")
		case errors.Is(err, payment.ErrInvalidOrderState):
			writeError(w, http.StatusConflict, orderID, "order has no refundable payment")
		case errors.As(err, &refundErr):
			log.Warn("gateway declined refund", zap.String("code", refundErr.Code))
			writeError(w, http.StatusBadGateway, orderID, "refund was declined by the gateway")
		default:
			log.Error("refund failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, orderID, "internal error")
		}
		return
	}

	log.Info("refund accepted", zap.String("refund_request_id", res.RequestID))
	writeJSON(w, http.StatusOK, refundResponse{
		OrderID:   orderID,
		RequestID: res.RequestID,
		Message:   "refund accepted",
	})
}

type statusResponse struct {
	OrderID       string `json:"orderId"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
	TransStatus   *int   `json:"transStatus,omitempty"`
	ErrorCode     string `json:"errorCode,omitempty"`
	RequestID     string `json:"requestId,omitempty"`
}

// StatusHandler reports our own view of the order plus, when the gateway is
// reachable, its view of the transaction.
func (h *Handler) StatusHandler(orders order.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := r.PathValue("orderID")

		o, err := orders.FindByID(r.Context(), orderID)
		if errors.Is(err, order.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, orderID, "order not found")
			return
		}
		if err != nil {
			logger.FromCtx(r.Context()).Error("order lookup failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, orderID, "internal error")
			return
		}

		resp := statusResponse{
			OrderID:       o.ID,
			Status:        string(o.Status),
			PaymentStatus: string(o.PaymentStatus),
		}
		if res := h.PaymentSvc.QueryTransactionStatus(r.Context(), orderID); res != nil {
			resp.TransStatus = &res.TransStatus
			resp.ErrorCode = res.ErrorCode
			resp.RequestID = res.RequestID
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
