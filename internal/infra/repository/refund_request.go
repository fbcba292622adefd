package repository

import (
	"context"
	"errors"
	"time"

	"mentorbook/internal/domain/refund"
	"mentorbook/internal/infra"
	"mentorbook/internal/infra/db"
	"mentorbook/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type RefundRequestRepository struct{}

func NewRefundRequestRepository() *RefundRequestRepository {
	return &RefundRequestRepository{}
}

const refundRequestColumns = `
	id, order_id, requester_id, reason, status, refund_type,
	requested_amount::text, approved_amount::text, created_at, updated_at
`

const createRefundRequestQuery = `
	INSERT INTO refund_requests (
		id, order_id, requester_id, reason, status, refund_type,
		requested_amount, approved_amount, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

// Create relies on the partial unique index over pending requests: a second
// pending request for the same order comes back as a conflict.
func (r *RefundRequestRepository) Create(ctx context.Context, dbtx db.DBTX, req *refund.Request) error {
	var approved *string
	if a := req.ApprovedAmount(); a != nil {
		s := a.String()
		approved = &s
	}
	_, err := dbtx.Exec(ctx, createRefundRequestQuery,
		req.ID(), req.OrderID(), req.RequesterID(), req.Reason(),
		string(req.Status()), string(req.RefundType()),
		req.RequestedAmount().String(), approved,
		req.CreatedAt(), req.UpdatedAt(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return infra.WrapRepoErr("order already has a pending refund request", err, infra.KindConflict)
		}
		return wrapPgErr("failed to create refund request", err)
	}
	return nil
}

func (r *RefundRequestRepository) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*refund.Request, error) {
	row := dbtx.QueryRow(ctx, `SELECT `+refundRequestColumns+` FROM refund_requests WHERE id = $1`, id)
	req, err := scanRefundRequest(row)
	if err != nil {
		return nil, wrapPgErr("failed to find refund request", err)
	}
	return req, nil
}

func (r *RefundRequestRepository) FindPendingByOrder(ctx context.Context, dbtx db.DBTX, orderID uuid.UUID) (*refund.Request, error) {
	row := dbtx.QueryRow(ctx, `
		SELECT `+refundRequestColumns+`
		FROM refund_requests
		WHERE order_id = $1 AND status = 'pending'`, orderID)
	req, err := scanRefundRequest(row)
	if err != nil {
		return nil, wrapPgErr("failed to find pending refund request", err)
	}
	return req, nil
}

const updateRefundRequestQuery = `
	UPDATE refund_requests SET
		status = $2, approved_amount = $3, updated_at = $4
	WHERE id = $1 AND status = 'pending'
`

func (r *RefundRequestRepository) Update(ctx context.Context, dbtx db.DBTX, req *refund.Request) error {
	var approved *string
	if a := req.ApprovedAmount(); a != nil {
		s := a.String()
		approved = &s
	}
	tag, err := dbtx.Exec(ctx, updateRefundRequestQuery,
		req.ID(), string(req.Status()), approved, req.UpdatedAt(),
	)
	if err != nil {
		return wrapPgErr("failed to update refund request", err)
	}
	if tag.RowsAffected() == 0 {
		return infraConflict("refund request already resolved")
	}
	return nil
}

func scanRefundRequest(row rowScanner) (*refund.Request, error) {
	var (
		id, orderID, requesterID uuid.UUID
		reason, status, rtype    string
		requestedAmount          string
		approvedAmount           *string
		createdAt, updatedAt     time.Time
	)
	err := row.Scan(
		&id, &orderID, &requesterID, &reason, &status, &rtype,
		&requestedAmount, &approvedAmount, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	requested, err := pgconv.DecimalFromString(requestedAmount)
	if err != nil {
		return nil, err
	}
	approved, err := pgconv.DecimalPtrFromString(approvedAmount)
	if err != nil {
		return nil, err
	}
	return refund.Reconstruct(
		id, orderID, requesterID, reason, refund.Status(status),
		refund.Type(rtype), requested, approved, createdAt, updatedAt,
	), nil
}
