package repository

import (
	"context"
	"time"

	"mentorbook/internal/domain/order"
	"mentorbook/internal/infra/db"
	"mentorbook/internal/pkg/pgconv"

	"github.com/google/uuid"
)

type OrderRepository struct{}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

// numeric columns come back as text; shopspring handles the precision
const orderColumns = `
	id, buyer_id, resource_type, resource_id, amount_total::text, currency,
	status, refunded_amount::text, payment_id, transaction_id, checkout_token,
	coupon_code, coupon_discount::text, coupon_creator_role, created_at, updated_at
`

const createOrderQuery = `
	INSERT INTO orders (
		id, buyer_id, resource_type, resource_id, amount_total, currency,
		status, refunded_amount, payment_id, transaction_id, checkout_token,
		coupon_code, coupon_discount, coupon_creator_role, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
`

func (r *OrderRepository) Create(ctx context.Context, dbtx db.DBTX, o *order.Order) error {
	var couponCode, couponRole *string
	var couponDiscount *string
	if c := o.Coupon(); c != nil {
		code, role, disc := c.Code, string(c.CreatorRole), c.Discount.String()
		couponCode, couponRole, couponDiscount = &code, &role, &disc
	}
	_, err := dbtx.Exec(ctx, createOrderQuery,
		o.ID(), o.BuyerID(), string(o.Resource().Type), o.Resource().ID,
		o.AmountTotal().String(), o.Currency(), string(o.Status()),
		o.RefundedAmount().String(), o.PaymentID(), o.TransactionID(),
		o.CheckoutToken(), couponCode, couponDiscount, couponRole,
		o.CreatedAt(), o.UpdatedAt(),
	)
	if err != nil {
		return wrapPgErr("failed to create order", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*order.Order, error) {
	row := dbtx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, wrapPgErr("failed to find order", err)
	}
	return o, nil
}

func (r *OrderRepository) FindByResource(ctx context.Context, dbtx db.DBTX, res order.Resource) (*order.Order, error) {
	row := dbtx.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY created_at DESC
		LIMIT 1`, string(res.Type), res.ID)
	o, err := scanOrder(row)
	if err != nil {
		return nil, wrapPgErr("failed to find order by resource", err)
	}
	return o, nil
}

const updateOrderQuery = `
	UPDATE orders SET
		status = $2, refunded_amount = $3, payment_id = $4,
		transaction_id = $5, updated_at = $6
	WHERE id = $1 AND status = $7
`

// Update writes the mutable fields, guarded by the status the caller read.
func (r *OrderRepository) Update(ctx context.Context, dbtx db.DBTX, o *order.Order, expected order.Status) error {
	tag, err := dbtx.Exec(ctx, updateOrderQuery,
		o.ID(), string(o.Status()), o.RefundedAmount().String(),
		o.PaymentID(), o.TransactionID(), o.UpdatedAt(), string(expected),
	)
	if err != nil {
		return wrapPgErr("failed to update order", err)
	}
	if tag.RowsAffected() == 0 {
		return infraConflict("order status moved since read")
	}
	return nil
}

const listPendingOrdersQuery = `
	SELECT ` + orderColumns + `
	FROM orders
	WHERE status = 'pending' AND created_at < $1
	ORDER BY created_at
	LIMIT $2
`

func (r *OrderRepository) ListPendingCreatedBefore(ctx context.Context, dbtx db.DBTX, cutoff time.Time, limit int) ([]*order.Order, error) {
	return r.listOrders(ctx, dbtx, listPendingOrdersQuery, cutoff, limit)
}

const listReconcilableOrdersQuery = `
	SELECT ` + orderColumns + `
	FROM orders
	WHERE status = 'pending'
	  AND checkout_token IS NOT NULL
	  AND created_at >= $1 AND created_at < $2
	ORDER BY created_at
	LIMIT $3
`

func (r *OrderRepository) ListPendingWithTokenBetween(ctx context.Context, dbtx db.DBTX, oldest, newest time.Time, limit int) ([]*order.Order, error) {
	return r.listOrders(ctx, dbtx, listReconcilableOrdersQuery, oldest, newest, limit)
}

// listPayoutDueQuery joins bookings so only completed sessions whose end
// passed the holdback cutoff are released. Non-booking resources fall back
// to the order's own paid time.
const listPayoutDueQuery = `
	SELECT ` + orderColumns + `
	FROM orders o
	WHERE o.resource_type = $1
	  AND o.status IN ('paid', 'partially_refunded')
	  AND (
		($1 = 'booking' AND EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.id = o.resource_id AND b.status = 'completed' AND b.end_at < $2
		))
		OR ($1 <> 'booking' AND o.updated_at < $2)
	  )
	ORDER BY o.created_at
	LIMIT $3
`

func (r *OrderRepository) ListPayoutDue(ctx context.Context, dbtx db.DBTX, resourceType order.Type, cutoff time.Time, limit int) ([]*order.Order, error) {
	return r.listOrders(ctx, dbtx, listPayoutDueQuery, string(resourceType), cutoff, limit)
}

func (r *OrderRepository) listOrders(ctx context.Context, dbtx db.DBTX, query string, args ...any) ([]*order.Order, error) {
	rows, err := dbtx.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapPgErr("failed to list orders", err)
	}
	defer rows.Close()

	var out []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, wrapPgErr("failed to scan order", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var (
		id, buyerID                 uuid.UUID
		resourceType                string
		resourceID                  uuid.UUID
		amountTotal, refundedAmount string
		currency, status            string
		paymentID, transactionID    *string
		checkoutToken               *string
		couponCode, couponRole      *string
		couponDiscount              *string
		createdAt, updatedAt        time.Time
	)
	err := row.Scan(
		&id, &buyerID, &resourceType, &resourceID, &amountTotal, &currency,
		&status, &refundedAmount, &paymentID, &transactionID, &checkoutToken,
		&couponCode, &couponDiscount, &couponRole, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	total, err := pgconv.DecimalFromString(amountTotal)
	if err != nil {
		return nil, err
	}
	refunded, err := pgconv.DecimalFromString(refundedAmount)
	if err != nil {
		return nil, err
	}

	var coupon *order.Coupon
	if couponCode != nil {
		discount, err := pgconv.DecimalPtrFromString(couponDiscount)
		if err != nil {
			return nil, err
		}
		role := order.CouponRoleMentor
		if couponRole != nil {
			role = order.CouponRole(*couponRole)
		}
		coupon = &order.Coupon{Code: *couponCode, CreatorRole: role}
		if discount != nil {
			coupon.Discount = *discount
		}
	}

	return order.Reconstruct(
		id, buyerID,
		order.Resource{Type: order.Type(resourceType), ID: resourceID},
		total, currency, order.Status(status), refunded,
		paymentID, transactionID, checkoutToken, coupon,
		createdAt, updatedAt,
	), nil
}
