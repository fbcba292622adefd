package queries

import (
	"context"

	"mentorbook/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrBookingViewNotFound = errs.New("booking not found")

type BookingViewRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID, limit, offset int32) ([]*BookingListItem, error)
	ListByMentor(ctx context.Context, mentorID uuid.UUID, limit, offset int32) ([]*BookingListItem, error)
}

type BookingQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]*BookingListItem, error)
	ListByMentor(ctx context.Context, mentorID uuid.UUID, limit, offset int) ([]*BookingListItem, error)
}

type bookingQueriesImpl struct {
	repo BookingViewRepo
}

func NewBookingQueries(repo BookingViewRepo) BookingQueries {
	return &bookingQueriesImpl{repo: repo}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	return q.repo.FindByID(ctx, id)
}

func (q *bookingQueriesImpl) ListByStudent(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]*BookingListItem, error) {
	return q.repo.ListByStudent(ctx, studentID, clampLimit(limit), int32(offset))
}

func (q *bookingQueriesImpl) ListByMentor(ctx context.Context, mentorID uuid.UUID, limit, offset int) ([]*BookingListItem, error) {
	return q.repo.ListByMentor(ctx, mentorID, clampLimit(limit), int32(offset))
}

func clampLimit(limit int) int32 {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return int32(limit)
}
