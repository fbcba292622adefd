package repository

import (
	"context"
	"log/slog"

	"mentorbook/internal/pkg/clock"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog writes administrative history rows. It is fire-and-forget: a
// failed insert is logged and swallowed so auditing can never roll back the
// transaction it describes.
type AuditLog struct {
	pool  *pgxpool.Pool
	clock clock.Clock
}

func NewAuditLog(pool *pgxpool.Pool, clock clock.Clock) *AuditLog {
	return &AuditLog{pool: pool, clock: clock}
}

const insertAuditQuery = `
	INSERT INTO audit_log (id, entity_type, entity_id, action, old_value, new_value, description, actor_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

func (a *AuditLog) Record(ctx context.Context, entityType string, entityID uuid.UUID, action, oldValue, newValue, description string, actorID *uuid.UUID) {
	_, err := a.pool.Exec(ctx, insertAuditQuery,
		uuid.New(), entityType, entityID, action, oldValue, newValue,
		description, actorID, a.clock.Now(),
	)
	if err != nil {
		slog.Error("audit record failed",
			"entity_type", entityType,
			"entity_id", entityID,
			"action", action,
			"error", err)
	}
}
