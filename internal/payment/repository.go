package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

type CallbackKind string

const (
	CallbackIPN               CallbackKind = "IPN"
	CallbackOrderConfirmation CallbackKind = "ORDER_CONFIRMATION"
)

// Repository is the inbox for inbound partner callbacks: every callback is
// persisted before processing, with duplicate delivery detected on
// (kind, order_id, request_id).
type Repository interface {
	SaveCallback(
		ctx context.Context,
		kind CallbackKind,
		orderID string,
		requestID string,
		payload json.RawMessage,
		signatureValid bool,
	) (callbackID int64, isDuplicate bool, err error)

	MarkCallbackProcessed(ctx context.Context, callbackID int64) error
	MarkCallbackFailed(ctx context.Context, callbackID int64, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SaveCallback(
	ctx context.Context,
	kind CallbackKind,
	orderID string,
	requestID string,
	payload json.RawMessage,
	signatureValid bool,
) (int64, bool, error) {

	const q = `
	INSERT INTO payment_callbacks (
		kind,
		order_id,
		request_id,
		signature_valid,
		payload
	)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (kind, order_id, request_id)
	DO NOTHING
	RETURNING id;
	`

	var id int64
	err := r.db.QueryRowContext(ctx, q, kind, orderID, requestID, signatureValid, payload).Scan(&id)
	if err != nil {
		// ON CONFLICT DO NOTHING returns no row for a redelivered callback.
		if errors.Is(err, sql.ErrNoRows) {
			return 0, true, nil
		}
		return 0, false, err
	}

	return id, false, nil
}

func (r *repository) MarkCallbackProcessed(ctx context.Context, callbackID int64) error {
	const q = `
	UPDATE payment_callbacks
	SET processed_at = now()
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, callbackID)
	return err
}

func (r *repository) MarkCallbackFailed(ctx context.Context, callbackID int64, reason string) error {
	const q = `
	UPDATE payment_callbacks
	SET process_error = $2
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, callbackID, reason)
	return err
}
