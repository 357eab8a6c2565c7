package admin

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// AuditRepository stores admin actions.
type AuditRepository interface {
	Create(ctx context.Context, log *AuditLog) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*AuditLog, error)
}

type auditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, log *AuditLog) error {
	newValue := "{}"
	if len(log.NewValue) > 0 {
		newValue = string(log.NewValue)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_audit_logs (id, admin_id, action, entity_type, entity_id, new_value, reason, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9)
	`, log.ID, log.AdminID, log.Action, log.EntityType, log.EntityID, newValue, log.Reason, log.IPAddress, log.CreatedAt)
	return err
}

func (r *auditRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*AuditLog, error) {
	var logs []*AuditLog
	err := r.db.SelectContext(ctx, &logs, `
		SELECT id, admin_id, action, entity_type, entity_id, new_value, reason, ip_address, created_at
		FROM admin_audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	return logs, err
}
