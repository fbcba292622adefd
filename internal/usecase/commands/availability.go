package commands

import (
	"context"

	"mentorbook/internal/domain/schedule"
	"mentorbook/internal/infra"
	"mentorbook/internal/infra/db"
	"mentorbook/internal/pkg/clock"
	"mentorbook/internal/pkg/errs"

	"github.com/google/uuid"

	"mentorbook/internal/usecase/shared"
)

var (
	ErrTemplateNotFound        = errs.New("availability template not found")
	ErrInvalidTemplate         = errs.New("invalid availability template")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

type AvailabilityCommands interface {
	SaveTemplate(ctx context.Context, t *schedule.Template) error
	RegenerateSlots(ctx context.Context, mentorID uuid.UUID) error
}

type availabilityCommandsImpl struct {
	templateRepo TemplateRepository
	slotRepo     SlotRepository
	audit        shared.AuditLog
	db           shared.DB
	clock        clock.Clock
}

func NewAvailabilityCommands(
	templateRepo TemplateRepository,
	slotRepo SlotRepository,
	audit shared.AuditLog,
	db shared.DB,
	clock clock.Clock,
) AvailabilityCommands {
	return &availabilityCommandsImpl{
		templateRepo: templateRepo,
		slotRepo:     slotRepo,
		audit:        audit,
		db:           db,
		clock:        clock,
	}
}

// SaveTemplate validates and persists the mentor's configuration, then
// regenerates the slot set in the same transaction so readers never see a
// template/slot mismatch.
func (a *availabilityCommandsImpl) SaveTemplate(ctx context.Context, t *schedule.Template) error {
	if err := t.Validate(); err != nil {
		return errs.Mark(err, ErrInvalidTemplate)
	}

	_, err := shared.WithDefaultRetry(ctx, a.db, func(tx db.DBTX) (struct{}, error) {
		if err := a.templateRepo.Save(ctx, tx, t); err != nil {
			return struct{}{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := a.regenerate(ctx, tx, t); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	a.audit.Record(ctx, "availability_template", t.ID, "saved", "", "", "availability template saved and slots regenerated", &t.MentorID)
	return nil
}

func (a *availabilityCommandsImpl) RegenerateSlots(ctx context.Context, mentorID uuid.UUID) error {
	_, err := shared.WithDefaultRetry(ctx, a.db, func(tx db.DBTX) (struct{}, error) {
		t, err := a.templateRepo.FindByMentor(ctx, tx, mentorID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return struct{}{}, ErrTemplateNotFound
			}
			return struct{}{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return struct{}{}, a.regenerate(ctx, tx, t)
	})
	return err
}

// regenerate expands the template and swaps the unbooked slot set. Booked
// slots feed the expansion as fixed obstacles and are never rewritten.
func (a *availabilityCommandsImpl) regenerate(ctx context.Context, tx db.DBTX, t *schedule.Template) error {
	booked, err := a.slotRepo.ListBookedByMentor(ctx, tx, t.MentorID)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	intervals := schedule.Expand(*t, a.clock.Now(), booked)

	if err := a.slotRepo.ReplaceUnbooked(ctx, tx, t, intervals); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return nil
}
