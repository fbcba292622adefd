package fake

import (
	"context"
	"time"

	"mentorbook/internal/domain/ledger"
	"mentorbook/internal/domain/refund"
	"mentorbook/internal/domain/video"
	"mentorbook/internal/infra/db"
	"mentorbook/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func clip[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}

// LedgerRepo is an in-memory commands.LedgerRepository. Entries only ever
// accumulate, matching the append-only table.
type LedgerRepo struct {
	Entries []ledger.Entry
}

func NewLedgerRepo() *LedgerRepo { return &LedgerRepo{} }

func (r *LedgerRepo) Insert(_ context.Context, _ db.DBTX, entries ...ledger.Entry) error {
	r.Entries = append(r.Entries, entries...)
	return nil
}

func (r *LedgerRepo) ListByReference(_ context.Context, _ db.DBTX, refID uuid.UUID) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, e := range r.Entries {
		if e.ReferenceID == refID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *LedgerRepo) AccountNetForReference(_ context.Context, _ db.DBTX, account ledger.Account, refID uuid.UUID) (decimal.Decimal, error) {
	net := decimal.Zero
	for _, e := range r.Entries {
		if e.ReferenceID == refID && e.Account == account {
			net = net.Add(e.Signed())
		}
	}
	return net, nil
}

func (r *LedgerRepo) HasEntry(_ context.Context, _ db.DBTX, account ledger.Account, direction ledger.Direction, refType ledger.ReferenceType, refID uuid.UUID) (bool, error) {
	for _, e := range r.Entries {
		if e.Account == account && e.Direction == direction && e.ReferenceType == refType && e.ReferenceID == refID {
			return true, nil
		}
	}
	return false, nil
}

// ByAccount returns every entry against one account, in insertion order.
func (r *LedgerRepo) ByAccount(account ledger.Account) []ledger.Entry {
	var out []ledger.Entry
	for _, e := range r.Entries {
		if e.Account == account {
			out = append(out, e)
		}
	}
	return out
}

// RefundRequestRepo is an in-memory commands.RefundRequestRepository with the
// one-pending-per-order constraint of the partial unique index.
type RefundRequestRepo struct {
	rows     map[uuid.UUID]refund.Request
	inserted []uuid.UUID
}

func NewRefundRequestRepo() *RefundRequestRepo {
	return &RefundRequestRepo{rows: map[uuid.UUID]refund.Request{}}
}

func (r *RefundRequestRepo) Seed(req *refund.Request) {
	if _, ok := r.rows[req.ID()]; !ok {
		r.inserted = append(r.inserted, req.ID())
	}
	r.rows[req.ID()] = *req
}

func (r *RefundRequestRepo) Create(_ context.Context, _ db.DBTX, req *refund.Request) error {
	for _, row := range r.rows {
		if row.OrderID() == req.OrderID() && row.Status() == refund.StatusPending {
			return conflict("order already has a pending refund request")
		}
	}
	r.rows[req.ID()] = *req
	r.inserted = append(r.inserted, req.ID())
	return nil
}

func (r *RefundRequestRepo) FindByID(_ context.Context, _ db.DBTX, id uuid.UUID) (*refund.Request, error) {
	req, ok := r.rows[id]
	if !ok {
		return nil, notFound("refund request")
	}
	return &req, nil
}

func (r *RefundRequestRepo) FindPendingByOrder(_ context.Context, _ db.DBTX, orderID uuid.UUID) (*refund.Request, error) {
	for _, id := range r.inserted {
		req := r.rows[id]
		if req.OrderID() == orderID && req.Status() == refund.StatusPending {
			return &req, nil
		}
	}
	return nil, notFound("refund request")
}

func (r *RefundRequestRepo) Update(_ context.Context, _ db.DBTX, req *refund.Request) error {
	cur, ok := r.rows[req.ID()]
	if !ok {
		return notFound("refund request")
	}
	if cur.Status() != refund.StatusPending {
		return conflict("refund request already resolved")
	}
	r.rows[req.ID()] = *req
	return nil
}

// OfferingRepo is an in-memory commands.OfferingRepository.
type OfferingRepo struct {
	rows map[uuid.UUID]commands.OfferingSnapshot
}

func NewOfferingRepo() *OfferingRepo {
	return &OfferingRepo{rows: map[uuid.UUID]commands.OfferingSnapshot{}}
}

func (r *OfferingRepo) Seed(o commands.OfferingSnapshot) { r.rows[o.ID] = o }

func (r *OfferingRepo) FindByID(_ context.Context, _ db.DBTX, id uuid.UUID) (*commands.OfferingSnapshot, error) {
	o, ok := r.rows[id]
	if !ok {
		return nil, notFound("offering")
	}
	return &o, nil
}

// SessionRepo is an in-memory jobs.SessionRepository. Bookings is consulted
// by ListLivePastBookingEnd; leave it nil when that query is not exercised.
type SessionRepo struct {
	rows     map[uuid.UUID]video.Session
	inserted []uuid.UUID
	Bookings *BookingRepo
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{rows: map[uuid.UUID]video.Session{}}
}

func (r *SessionRepo) Seed(s video.Session) {
	if _, ok := r.rows[s.ID]; !ok {
		r.inserted = append(r.inserted, s.ID)
	}
	r.rows[s.ID] = s
}

func (r *SessionRepo) Get(id uuid.UUID) (video.Session, bool) {
	s, ok := r.rows[id]
	return s, ok
}

func (r *SessionRepo) FindByBooking(_ context.Context, _ db.DBTX, bookingID uuid.UUID) (*video.Session, error) {
	for i := len(r.inserted) - 1; i >= 0; i-- {
		s := r.rows[r.inserted[i]]
		if s.BookingID == bookingID {
			return &s, nil
		}
	}
	return nil, nil
}

func (r *SessionRepo) ListLivePastBookingEnd(_ context.Context, _ db.DBTX, cutoff time.Time, limit int) ([]*video.Session, error) {
	var out []*video.Session
	for _, id := range r.inserted {
		s := r.rows[id]
		if s.Status != video.SessionLive || r.Bookings == nil {
			continue
		}
		b := r.Bookings.Get(s.BookingID)
		if b != nil && b.EndAt().Before(cutoff) {
			out = append(out, &s)
		}
	}
	return clip(out, limit), nil
}

func (r *SessionRepo) MarkEnded(_ context.Context, _ db.DBTX, id uuid.UUID, endedAt time.Time) error {
	s, ok := r.rows[id]
	if !ok {
		return notFound("video session")
	}
	if s.Status != video.SessionLive {
		return conflict("video session already ended")
	}
	s.Status = video.SessionEnded
	s.EndedAt = &endedAt
	r.rows[id] = s
	return nil
}
