package gateway

// DisplayMode selects how the gateway presents the payment flow to the payer.
type DisplayMode string

const (
	ModeWeb      DisplayMode = "WEB"
	ModeQR       DisplayMode = "QR"
	ModeDeeplink DisplayMode = "DEEPLINK"
)

// Gateway-side success condition: transStatus 1 with errorCode "00".
const (
	TransStatusSuccess = 1
	ErrorCodeNone      = "00"
)

// TransactionRequest is the create-transaction body. Amounts are minor units.
type TransactionRequest struct {
	MerchantCode  string      `json:"merchantCode"`
	OrderID       string      `json:"orderId"`
	TransAmount   int64       `json:"transAmount"`
	Description   string      `json:"desc"`
	ReturnType    DisplayMode `json:"returnType"`
	ReturnURL     string      `json:"returnUrl"`
	CancelURL     string      `json:"cancelUrl"`
	IPNURL        string      `json:"ipnUrl"`
	ExpireAfter   int         `json:"expireAfter"`
	CustomerPhone string      `json:"customerPhone,omitempty"`
	CustomerEmail string      `json:"customerEmail,omitempty"`
}

// TransactionResult is the gateway's view of one payment attempt, whether it
// arrives as a create/refund response, an IPN, or a search record.
type TransactionResult struct {
	RequestID   string `json:"requestId"`
	OrderID     string `json:"orderId"`
	TransStatus int    `json:"transStatus"`
	ErrorCode   string `json:"errorCode"`
	Message     string `json:"message,omitempty"`
	PayURL      string `json:"payUrl,omitempty"`
	QRCode      string `json:"qrCode,omitempty"`
	Deeplink    string `json:"deeplink,omitempty"`
}

// Success reports whether the gateway accepted the transaction.
func (r *TransactionResult) Success() bool {
	return r.TransStatus == TransStatusSuccess && r.ErrorCode == ErrorCodeNone
}

// RefundRequest reverses an earlier payment. OrderID is a synthetic refund id
// (REFUND_<orderId>_<epochMillis>) so it cannot collide with the original
// transaction at the gateway; OriginalRequestID points back at the payment.
type RefundRequest struct {
	MerchantCode      string `json:"merchantCode"`
	OrderID           string `json:"orderId"`
	OriginalRequestID string `json:"originalRequestId"`
	TransAmount       int64  `json:"transAmount"`
	Description       string `json:"desc"`
}

// QueryRequest looks up all attempts the gateway has recorded for an order.
type QueryRequest struct {
	MerchantCode string `json:"merchantCode"`
	OrderID      string `json:"orderId"`
}
