package fake

import (
	"context"
	"sort"
	"time"

	"mentorbook/internal/domain/booking"
	"mentorbook/internal/domain/order"
	"mentorbook/internal/domain/schedule"
	"mentorbook/internal/infra"
	"mentorbook/internal/infra/db"

	"github.com/google/uuid"
)

func notFound(what string) error {
	return infra.WrapRepoErr(what+" not found", nil, infra.KindNotFound)
}

func conflict(what string) error {
	return infra.WrapRepoErr(what, nil, infra.KindConflict)
}

// BookingRepo is an in-memory commands.BookingRepository and
// jobs.BookingFinder. Entities are stored by value so callers mutating their
// copy cannot bypass the guarded Update.
type BookingRepo struct {
	rows map[uuid.UUID]booking.Booking
}

func NewBookingRepo() *BookingRepo {
	return &BookingRepo{rows: map[uuid.UUID]booking.Booking{}}
}

func (r *BookingRepo) Seed(b *booking.Booking) { r.rows[b.ID()] = *b }

func (r *BookingRepo) Get(id uuid.UUID) *booking.Booking {
	b, ok := r.rows[id]
	if !ok {
		return nil
	}
	return &b
}

func (r *BookingRepo) Create(_ context.Context, _ db.DBTX, b *booking.Booking) error {
	r.rows[b.ID()] = *b
	return nil
}

func (r *BookingRepo) FindByID(_ context.Context, _ db.DBTX, id uuid.UUID) (*booking.Booking, error) {
	b, ok := r.rows[id]
	if !ok {
		return nil, notFound("booking")
	}
	return &b, nil
}

func (r *BookingRepo) Update(_ context.Context, _ db.DBTX, b *booking.Booking, expected booking.Status) error {
	cur, ok := r.rows[b.ID()]
	if !ok {
		return notFound("booking")
	}
	if cur.Status() != expected {
		return conflict("booking status changed concurrently")
	}
	r.rows[b.ID()] = *b
	return nil
}

func (r *BookingRepo) ListActiveByMentorBetween(_ context.Context, _ db.DBTX, mentorID uuid.UUID, from, to time.Time) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, b := range r.rows {
		b := b
		if b.MentorID() == mentorID && b.Status().IsActive() && b.StartAt().Before(to) && b.EndAt().After(from) {
			out = append(out, &b)
		}
	}
	sortBookings(out)
	return out, nil
}

func (r *BookingRepo) CountActiveByMentorOn(_ context.Context, _ db.DBTX, mentorID uuid.UUID, dayStart, dayEnd time.Time) (int, error) {
	n := 0
	for _, b := range r.rows {
		if b.MentorID() == mentorID && b.Status().IsActive() && !b.StartAt().Before(dayStart) && b.StartAt().Before(dayEnd) {
			n++
		}
	}
	return n, nil
}

func (r *BookingRepo) ListPendingCreatedBefore(_ context.Context, _ db.DBTX, cutoff time.Time, limit int) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, b := range r.rows {
		b := b
		if b.Status() == booking.StatusPendingPayment && b.CreatedAt().Before(cutoff) {
			out = append(out, &b)
		}
	}
	sortBookings(out)
	return clip(out, limit), nil
}

func (r *BookingRepo) ListConfirmedEndedBefore(_ context.Context, _ db.DBTX, cutoff time.Time, limit int) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, b := range r.rows {
		b := b
		if b.Status() == booking.StatusConfirmed && b.EndAt().Before(cutoff) {
			out = append(out, &b)
		}
	}
	sortBookings(out)
	return clip(out, limit), nil
}

func sortBookings(bs []*booking.Booking) {
	sort.Slice(bs, func(i, j int) bool { return bs[i].StartAt().Before(bs[j].StartAt()) })
}

// OrderRepo is an in-memory commands.OrderRepository and jobs.OrderFinder.
// Bookings is consulted by ListPayoutDue to check the linked booking state;
// leave it nil when payout queries are not exercised.
type OrderRepo struct {
	rows     map[uuid.UUID]order.Order
	inserted []uuid.UUID
	Bookings *BookingRepo
}

func NewOrderRepo() *OrderRepo {
	return &OrderRepo{rows: map[uuid.UUID]order.Order{}}
}

func (r *OrderRepo) Seed(o *order.Order) {
	if _, ok := r.rows[o.ID()]; !ok {
		r.inserted = append(r.inserted, o.ID())
	}
	r.rows[o.ID()] = *o
}

func (r *OrderRepo) Get(id uuid.UUID) *order.Order {
	o, ok := r.rows[id]
	if !ok {
		return nil
	}
	return &o
}

func (r *OrderRepo) Create(_ context.Context, _ db.DBTX, o *order.Order) error {
	r.rows[o.ID()] = *o
	r.inserted = append(r.inserted, o.ID())
	return nil
}

func (r *OrderRepo) FindByID(_ context.Context, _ db.DBTX, id uuid.UUID) (*order.Order, error) {
	o, ok := r.rows[id]
	if !ok {
		return nil, notFound("order")
	}
	return &o, nil
}

func (r *OrderRepo) FindByResource(_ context.Context, _ db.DBTX, res order.Resource) (*order.Order, error) {
	for i := len(r.inserted) - 1; i >= 0; i-- {
		o := r.rows[r.inserted[i]]
		if o.Resource() == res {
			return &o, nil
		}
	}
	return nil, notFound("order")
}

func (r *OrderRepo) Update(_ context.Context, _ db.DBTX, o *order.Order, expected order.Status) error {
	cur, ok := r.rows[o.ID()]
	if !ok {
		return notFound("order")
	}
	if cur.Status() != expected {
		return conflict("order status changed concurrently")
	}
	r.rows[o.ID()] = *o
	return nil
}

func (r *OrderRepo) ListPendingCreatedBefore(_ context.Context, _ db.DBTX, cutoff time.Time, limit int) ([]*order.Order, error) {
	var out []*order.Order
	for _, id := range r.inserted {
		o := r.rows[id]
		if o.Status() == order.StatusPending && o.CreatedAt().Before(cutoff) {
			out = append(out, &o)
		}
	}
	return clip(out, limit), nil
}

func (r *OrderRepo) ListPendingWithTokenBetween(_ context.Context, _ db.DBTX, oldest, newest time.Time, limit int) ([]*order.Order, error) {
	var out []*order.Order
	for _, id := range r.inserted {
		o := r.rows[id]
		if o.Status() == order.StatusPending && o.CheckoutToken() != nil &&
			!o.CreatedAt().Before(oldest) && o.CreatedAt().Before(newest) {
			out = append(out, &o)
		}
	}
	return clip(out, limit), nil
}

func (r *OrderRepo) ListPayoutDue(_ context.Context, _ db.DBTX, resourceType order.Type, cutoff time.Time, limit int) ([]*order.Order, error) {
	var out []*order.Order
	for _, id := range r.inserted {
		o := r.rows[id]
		if o.Resource().Type != resourceType {
			continue
		}
		if o.Status() != order.StatusPaid && o.Status() != order.StatusPartiallyRefunded {
			continue
		}
		switch resourceType {
		case order.TypeBooking:
			if r.Bookings == nil {
				continue
			}
			b := r.Bookings.Get(o.Resource().ID)
			if b == nil || b.Status() != booking.StatusCompleted || !b.EndAt().Before(cutoff) {
				continue
			}
		default:
			if !o.UpdatedAt().Before(cutoff) {
				continue
			}
		}
		out = append(out, &o)
	}
	return clip(out, limit), nil
}

// SlotRepo is an in-memory commands.SlotRepository.
type SlotRepo struct {
	rows map[uuid.UUID]schedule.Slot
}

func NewSlotRepo() *SlotRepo {
	return &SlotRepo{rows: map[uuid.UUID]schedule.Slot{}}
}

func (r *SlotRepo) Seed(s schedule.Slot) { r.rows[s.ID] = s }

func (r *SlotRepo) Get(id uuid.UUID) (schedule.Slot, bool) {
	s, ok := r.rows[id]
	return s, ok
}

func (r *SlotRepo) All() []schedule.Slot {
	out := make([]schedule.Slot, 0, len(r.rows))
	for _, s := range r.rows {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out
}

func (r *SlotRepo) ReplaceUnbooked(_ context.Context, _ db.DBTX, t *schedule.Template, intervals []schedule.Interval) error {
	for id, s := range r.rows {
		if s.TemplateID != nil && *s.TemplateID == t.ID && !s.Booked {
			delete(r.rows, id)
		}
	}
	for _, iv := range intervals {
		tid := t.ID
		s := schedule.Slot{
			ID:         uuid.New(),
			MentorID:   t.MentorID,
			TemplateID: &tid,
			StartAt:    iv.Start,
			EndAt:      iv.End,
		}
		r.rows[s.ID] = s
	}
	return nil
}

func (r *SlotRepo) ListBookedByMentor(_ context.Context, _ db.DBTX, mentorID uuid.UUID) ([]schedule.Slot, error) {
	var out []schedule.Slot
	for _, s := range r.rows {
		if s.MentorID == mentorID && s.Booked {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (r *SlotRepo) ListByMentorBetween(_ context.Context, _ db.DBTX, mentorID uuid.UUID, from, to time.Time) ([]schedule.Slot, error) {
	var out []schedule.Slot
	for _, s := range r.rows {
		if s.MentorID == mentorID && s.StartAt.Before(to) && s.EndAt.After(from) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (r *SlotRepo) FindCovering(_ context.Context, _ db.DBTX, mentorID uuid.UUID, start, end time.Time) (*schedule.Slot, error) {
	for _, s := range r.rows {
		if s.MentorID == mentorID && !s.Booked && !s.StartAt.After(start) && !s.EndAt.Before(end) {
			s := s
			return &s, nil
		}
	}
	return nil, notFound("slot")
}

func (r *SlotRepo) SetBooked(_ context.Context, _ db.DBTX, id uuid.UUID, booked bool) error {
	s, ok := r.rows[id]
	if !ok {
		return notFound("slot")
	}
	if s.Booked == booked {
		return conflict("slot booked flag already set")
	}
	s.Booked = booked
	r.rows[id] = s
	return nil
}

// TemplateRepo is an in-memory commands.TemplateRepository.
type TemplateRepo struct {
	rows map[uuid.UUID]schedule.Template
}

func NewTemplateRepo() *TemplateRepo {
	return &TemplateRepo{rows: map[uuid.UUID]schedule.Template{}}
}

func (r *TemplateRepo) Seed(t schedule.Template) { r.rows[t.MentorID] = t }

func (r *TemplateRepo) FindByMentor(_ context.Context, _ db.DBTX, mentorID uuid.UUID) (*schedule.Template, error) {
	t, ok := r.rows[mentorID]
	if !ok {
		return nil, notFound("availability template")
	}
	return &t, nil
}

func (r *TemplateRepo) Save(_ context.Context, _ db.DBTX, t *schedule.Template) error {
	r.rows[t.MentorID] = *t
	return nil
}
