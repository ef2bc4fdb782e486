package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"vimart-be/internal/config"
	"vimart-be/internal/logger"
	"vimart-be/internal/signature"

	"go.uber.org/zap"
)

const (
	createTransactionPath = "/v2/create-transaction"
	refundTransactionPath = "/v3/merchant/refund-transaction"
	searchTransactionPath = "/v3/merchant/search-transaction"

	signatureHeader = "Signature"
)

// Client talks to the VTMoney gateway. Every request body is signed with the
// merchant private key and every response body is verified against the
// gateway public key before it is decoded.
type Client interface {
	CreateTransaction(ctx context.Context, req *TransactionRequest) (*TransactionResult, error)
	Refund(ctx context.Context, req *RefundRequest) (*TransactionResult, error)
	QueryStatus(ctx context.Context, req *QueryRequest) ([]TransactionResult, error)
}

type vtmoneyClient struct {
	env        *config.GatewayEnvironment
	httpClient *http.Client
}

func NewVTMoneyClient(env *config.GatewayEnvironment) Client {
	return &vtmoneyClient{
		env: env,
		httpClient: &http.Client{
			Timeout: env.RequestTimeout,
		},
	}
}

func (c *vtmoneyClient) CreateTransaction(ctx context.Context, req *TransactionRequest) (*TransactionResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("order_id", req.OrderID),
		zap.Int64("trans_amount", req.TransAmount),
		zap.String("return_type", string(req.ReturnType)),
	)

	body, err := c.post(ctx, "create-transaction", createTransactionPath, req)
	if err != nil {
		return nil, err
	}

	var res TransactionResult
	if err := json.Unmarshal(body, &res); err != nil {
		log.Error("failed decoding create-transaction response", zap.Error(err))
		return nil, &TransportError{Op: "create-transaction", Err: err}
	}

	log.Info("transaction created at gateway",
		zap.String("request_id", res.RequestID),
		zap.Int("trans_status", res.TransStatus),
		zap.String("error_code", res.ErrorCode),
	)
	return &res, nil
}

func (c *vtmoneyClient) Refund(ctx context.Context, req *RefundRequest) (*TransactionResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("refund_order_id", req.OrderID),
		zap.String("original_request_id", req.OriginalRequestID),
		zap.Int64("trans_amount", req.TransAmount),
	)

	body, err := c.post(ctx, "refund-transaction", refundTransactionPath, req)
	if err != nil {
		return nil, err
	}

	var res TransactionResult
	if err := json.Unmarshal(body, &res); err != nil {
		log.Error("failed decoding refund response", zap.Error(err))
		return nil, &TransportError{Op: "refund-transaction", Err: err}
	}

	log.Info("refund processed at gateway",
		zap.String("request_id", res.RequestID),
		zap.Int("trans_status", res.TransStatus),
		zap.String("error_code", res.ErrorCode),
	)
	return &res, nil
}

func (c *vtmoneyClient) QueryStatus(ctx context.Context, req *QueryRequest) ([]TransactionResult, error) {
	log := logger.FromCtx(ctx).With(zap.String("order_id", req.OrderID))

	body, err := c.post(ctx, "search-transaction", searchTransactionPath, req)
	if err != nil {
		return nil, err
	}

	// The gateway returns every attempt it has recorded for the order, newest
	// first; the list may be empty.
	var results []TransactionResult
	if err := json.Unmarshal(body, &results); err != nil {
		log.Error("failed decoding search response", zap.Error(err))
		return nil, &TransportError{Op: "search-transaction", Err: err}
	}

	log.Info("transaction status queried", zap.Int("results", len(results)))
	return results, nil
}

// post signs and sends a request body, then verifies the response signature
// before handing the body back. A non-2xx status with a verifiable body is
// still returned: the gateway encodes business failures in transStatus and
// errorCode, not in HTTP codes.
func (c *vtmoneyClient) post(ctx context.Context, op, path string, payload interface{}) ([]byte, error) {
	log := logger.FromCtx(ctx).With(zap.String("op", op))

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	sig, err := signature.Sign(jsonBody, c.env.MerchantPrivateKey)
	if err != nil {
		log.Error("failed signing request body", zap.Error(err))
		return nil, &TransportError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.env.APIURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.env.AccessToken)
	req.Header.Set(signatureHeader, sig)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("gateway request failed", zap.Error(err))
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("failed reading gateway response", zap.Error(err))
		return nil, &TransportError{Op: op, Err: err}
	}

	if len(bodyBytes) == 0 {
		log.Error("gateway returned empty body", zap.Int("http_status", resp.StatusCode))
		return nil, &TransportError{Op: op, Err: io.ErrUnexpectedEOF}
	}

	respSig := resp.Header.Get(signatureHeader)
	if !signature.Verify(bodyBytes, respSig, c.env.GatewayPublicKey) {
		log.Error("gateway response signature rejected",
			zap.Int("http_status", resp.StatusCode),
			zap.Bool("signature_present", respSig != ""),
		)
		return nil, &SignatureError{Op: op}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("gateway returned non-2xx status with signed body",
			zap.Int("http_status", resp.StatusCode),
		)
	}

	return bodyBytes, nil
}
