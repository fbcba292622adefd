package repository

import (
	"context"
	"time"

	"mentorbook/internal/domain/schedule"
	"mentorbook/internal/infra/db"

	"github.com/google/uuid"
)

type TemplateRepository struct{}

func NewTemplateRepository() *TemplateRepository {
	return &TemplateRepository{}
}

const findTemplateByMentorQuery = `
	SELECT id, mentor_id, time_zone, min_notice_hours, max_days_ahead,
	       buffer_minutes, granularity_minutes, max_bookings_per_day, updated_at
	FROM availability_templates
	WHERE mentor_id = $1
`

func (r *TemplateRepository) FindByMentor(ctx context.Context, dbtx db.DBTX, mentorID uuid.UUID) (*schedule.Template, error) {
	var t schedule.Template
	err := dbtx.QueryRow(ctx, findTemplateByMentorQuery, mentorID).Scan(
		&t.ID,
		&t.MentorID,
		&t.TimeZone,
		&t.MinNoticeHours,
		&t.MaxDaysAhead,
		&t.BufferMinutes,
		&t.GranularityMinutes,
		&t.MaxBookingsPerDay,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, wrapPgErr("failed to find availability template", err)
	}

	if t.Rules, err = r.loadRules(ctx, dbtx, t.ID); err != nil {
		return nil, err
	}
	if t.Overrides, err = r.loadOverrides(ctx, dbtx, t.ID); err != nil {
		return nil, err
	}
	return &t, nil
}

const loadRulesQuery = `
	SELECT id, weekday, active, start_minutes, end_minutes, slot_index
	FROM availability_rules
	WHERE template_id = $1
	ORDER BY weekday, start_minutes, slot_index
`

func (r *TemplateRepository) loadRules(ctx context.Context, dbtx db.DBTX, templateID uuid.UUID) ([]schedule.Rule, error) {
	rows, err := dbtx.Query(ctx, loadRulesQuery, templateID)
	if err != nil {
		return nil, wrapPgErr("failed to load availability rules", err)
	}
	defer rows.Close()

	var rules []schedule.Rule
	for rows.Next() {
		var (
			rule               schedule.Rule
			startMins, endMins int
		)
		if err := rows.Scan(&rule.ID, &rule.Weekday, &rule.Active, &startMins, &endMins, &rule.SlotIndex); err != nil {
			return nil, wrapPgErr("failed to scan availability rule", err)
		}
		if rule.Start, err = schedule.NewTimeOfDay(startMins/60, startMins%60); err != nil {
			return nil, wrapPgErr("corrupt rule start time", err)
		}
		if rule.End, err = schedule.NewTimeOfDay(endMins/60, endMins%60); err != nil {
			return nil, wrapPgErr("corrupt rule end time", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

const loadOverridesQuery = `
	SELECT id, on_date, blocked, start_minutes, end_minutes
	FROM availability_overrides
	WHERE template_id = $1
	ORDER BY on_date
`

func (r *TemplateRepository) loadOverrides(ctx context.Context, dbtx db.DBTX, templateID uuid.UUID) ([]schedule.Override, error) {
	rows, err := dbtx.Query(ctx, loadOverridesQuery, templateID)
	if err != nil {
		return nil, wrapPgErr("failed to load availability overrides", err)
	}
	defer rows.Close()

	var overrides []schedule.Override
	for rows.Next() {
		var (
			o                  schedule.Override
			onDate             time.Time
			startMins, endMins *int
		)
		if err := rows.Scan(&o.ID, &onDate, &o.Blocked, &startMins, &endMins); err != nil {
			return nil, wrapPgErr("failed to scan availability override", err)
		}
		o.Date = schedule.DateOf(onDate)
		if startMins != nil {
			t, err := schedule.NewTimeOfDay(*startMins/60, *startMins%60)
			if err != nil {
				return nil, wrapPgErr("corrupt override start time", err)
			}
			o.Start = &t
		}
		if endMins != nil {
			t, err := schedule.NewTimeOfDay(*endMins/60, *endMins%60)
			if err != nil {
				return nil, wrapPgErr("corrupt override end time", err)
			}
			o.End = &t
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

const upsertTemplateQuery = `
	INSERT INTO availability_templates (
		id, mentor_id, time_zone, min_notice_hours, max_days_ahead,
		buffer_minutes, granularity_minutes, max_bookings_per_day, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (mentor_id) DO UPDATE SET
		time_zone = EXCLUDED.time_zone,
		min_notice_hours = EXCLUDED.min_notice_hours,
		max_days_ahead = EXCLUDED.max_days_ahead,
		buffer_minutes = EXCLUDED.buffer_minutes,
		granularity_minutes = EXCLUDED.granularity_minutes,
		max_bookings_per_day = EXCLUDED.max_bookings_per_day,
		updated_at = EXCLUDED.updated_at
	RETURNING id
`

// Save upserts the template and rewrites its rules and overrides wholesale.
// The config is small enough that diffing rows is not worth it.
func (r *TemplateRepository) Save(ctx context.Context, dbtx db.DBTX, t *schedule.Template) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	var id uuid.UUID
	err := dbtx.QueryRow(ctx, upsertTemplateQuery,
		t.ID, t.MentorID, t.TimeZone, t.MinNoticeHours, t.MaxDaysAhead,
		t.BufferMinutes, t.GranularityMinutes, t.MaxBookingsPerDay, t.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return wrapPgErr("failed to save availability template", err)
	}
	t.ID = id

	if _, err := dbtx.Exec(ctx, `DELETE FROM availability_rules WHERE template_id = $1`, t.ID); err != nil {
		return wrapPgErr("failed to clear availability rules", err)
	}
	for i := range t.Rules {
		rule := &t.Rules[i]
		if rule.ID == uuid.Nil {
			rule.ID = uuid.New()
		}
		_, err := dbtx.Exec(ctx, `
			INSERT INTO availability_rules (id, template_id, weekday, active, start_minutes, end_minutes, slot_index)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rule.ID, t.ID, int(rule.Weekday), rule.Active, rule.Start.Minutes(), rule.End.Minutes(), rule.SlotIndex,
		)
		if err != nil {
			return wrapPgErr("failed to insert availability rule", err)
		}
	}

	if _, err := dbtx.Exec(ctx, `DELETE FROM availability_overrides WHERE template_id = $1`, t.ID); err != nil {
		return wrapPgErr("failed to clear availability overrides", err)
	}
	for i := range t.Overrides {
		o := &t.Overrides[i]
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		var startMins, endMins *int
		if o.Start != nil {
			m := o.Start.Minutes()
			startMins = &m
		}
		if o.End != nil {
			m := o.End.Minutes()
			endMins = &m
		}
		onDate := time.Date(o.Date.Year, o.Date.Month, o.Date.Day, 0, 0, 0, 0, time.UTC)
		_, err := dbtx.Exec(ctx, `
			INSERT INTO availability_overrides (id, template_id, on_date, blocked, start_minutes, end_minutes)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, t.ID, onDate, o.Blocked, startMins, endMins,
		)
		if err != nil {
			return wrapPgErr("failed to insert availability override", err)
		}
	}
	return nil
}

type SlotRepository struct{}

func NewSlotRepository() *SlotRepository {
	return &SlotRepository{}
}

const slotColumns = `id, mentor_id, template_id, start_at, end_at, booked`

// ReplaceUnbooked drops every unbooked slot of the template and inserts the
// freshly expanded set. Booked rows are never touched.
func (r *SlotRepository) ReplaceUnbooked(ctx context.Context, dbtx db.DBTX, t *schedule.Template, intervals []schedule.Interval) error {
	if _, err := dbtx.Exec(ctx, `DELETE FROM availability_slots WHERE template_id = $1 AND NOT booked`, t.ID); err != nil {
		return wrapPgErr("failed to clear unbooked slots", err)
	}
	for _, iv := range intervals {
		_, err := dbtx.Exec(ctx, `
			INSERT INTO availability_slots (id, mentor_id, template_id, start_at, end_at, booked)
			VALUES ($1, $2, $3, $4, $5, false)`,
			uuid.New(), t.MentorID, t.ID, iv.Start, iv.End,
		)
		if err != nil {
			return wrapPgErr("failed to insert slot", err)
		}
	}
	return nil
}

func (r *SlotRepository) ListBookedByMentor(ctx context.Context, dbtx db.DBTX, mentorID uuid.UUID) ([]schedule.Slot, error) {
	return r.list(ctx, dbtx, `
		SELECT `+slotColumns+`
		FROM availability_slots
		WHERE mentor_id = $1 AND booked
		ORDER BY start_at`, mentorID)
}

func (r *SlotRepository) ListByMentorBetween(ctx context.Context, dbtx db.DBTX, mentorID uuid.UUID, from, to time.Time) ([]schedule.Slot, error) {
	return r.list(ctx, dbtx, `
		SELECT `+slotColumns+`
		FROM availability_slots
		WHERE mentor_id = $1 AND start_at < $3 AND end_at > $2
		ORDER BY start_at`, mentorID, from, to)
}

func (r *SlotRepository) FindCovering(ctx context.Context, dbtx db.DBTX, mentorID uuid.UUID, start, end time.Time) (*schedule.Slot, error) {
	var s schedule.Slot
	err := dbtx.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM availability_slots
		WHERE mentor_id = $1 AND NOT booked AND start_at <= $2 AND end_at >= $3
		ORDER BY start_at
		LIMIT 1`, mentorID, start, end,
	).Scan(&s.ID, &s.MentorID, &s.TemplateID, &s.StartAt, &s.EndAt, &s.Booked)
	if err != nil {
		return nil, wrapPgErr("failed to find covering slot", err)
	}
	return &s, nil
}

// SetBooked flips the booked flag, guarded by the opposite current value so
// two writers cannot claim the same slot.
func (r *SlotRepository) SetBooked(ctx context.Context, dbtx db.DBTX, id uuid.UUID, booked bool) error {
	tag, err := dbtx.Exec(ctx, `
		UPDATE availability_slots SET booked = $2 WHERE id = $1 AND booked = NOT $2`, id, booked)
	if err != nil {
		return wrapPgErr("failed to update slot booked flag", err)
	}
	if tag.RowsAffected() == 0 {
		return infraConflict("slot booked flag already set")
	}
	return nil
}

func (r *SlotRepository) list(ctx context.Context, dbtx db.DBTX, query string, args ...any) ([]schedule.Slot, error) {
	rows, err := dbtx.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapPgErr("failed to list slots", err)
	}
	defer rows.Close()

	var slots []schedule.Slot
	for rows.Next() {
		var s schedule.Slot
		if err := rows.Scan(&s.ID, &s.MentorID, &s.TemplateID, &s.StartAt, &s.EndAt, &s.Booked); err != nil {
			return nil, wrapPgErr("failed to scan slot", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}
