package order

import (
	"context"
	"database/sql"
	"errors"
)

// Repository is the transaction boundary around the orders table. The Mark*
// mutations are single gated UPDATE statements conditioned on the order still
// being PENDING_PAYMENT, so concurrent or replayed callbacks for the same
// order cannot double-apply; the returned bool reports whether the row
// actually transitioned.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Order, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	SetPaymentInitiated(ctx context.Context, id, method, paymentID string) (bool, error)
	MarkPaid(ctx context.Context, id, paymentID string) (bool, error)
	MarkPaymentFailed(ctx context.Context, id string) (bool, error)
	MarkRefunded(ctx context.Context, id string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id string) (*Order, error) {
	query := `
		SELECT id, total_price, status, payment_method, payment_id,
		       payment_status, customer_email, customer_phone, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var o Order
	var method, paymentID, email, phone sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&o.ID, &o.TotalPrice, &o.Status, &method, &paymentID,
		&o.PaymentStatus, &email, &phone, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	o.PaymentMethod = method.String
	o.PaymentID = paymentID.String
	o.CustomerEmail = email.String
	o.CustomerPhone = phone.String
	return &o, nil
}

func (r *repository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id,
	).Scan(&exists)
	return exists, err
}

func (r *repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	return err
}

func (r *repository) SetPaymentInitiated(ctx context.Context, id, method, paymentID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_method = $2, payment_id = $3, payment_status = 'PENDING', updated_at = now()
		WHERE id = $1 AND status = 'PENDING_PAYMENT'
	`, id, method, paymentID)
	if err != nil {
		return false, err
	}
	return applied(res)
}

func (r *repository) MarkPaid(ctx context.Context, id, paymentID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = 'PAID', payment_status = 'SUCCESSFUL', payment_id = $2, updated_at = now()
		WHERE id = $1 AND status = 'PENDING_PAYMENT'
	`, id, paymentID)
	if err != nil {
		return false, err
	}
	return applied(res)
}

func (r *repository) MarkPaymentFailed(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = 'PAYMENT_FAILED', payment_status = 'FAILED', updated_at = now()
		WHERE id = $1 AND status = 'PENDING_PAYMENT'
	`, id)
	if err != nil {
		return false, err
	}
	return applied(res)
}

func (r *repository) MarkRefunded(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = 'CANCELLED', payment_status = 'REFUNDED', updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}

	ok, err := applied(res)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOrderNotFound
	}
	return nil
}

func applied(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
