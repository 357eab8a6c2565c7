package gift

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines gift data access interface
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	ListByUser(ctx context.Context, userID uuid.UUID, agentID string, limit, offset int) ([]*Record, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates gift repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, rec *Record) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO gift_records (id, user_id, agent_id, gift_id, price, created_at)
		VALUES (:id, :user_id, :agent_id, :gift_id, :price, :created_at)
	`, rec)
	return err
}

// ListByUser returns sent gifts newest first, optionally for one agent.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, agentID string, limit, offset int) ([]*Record, error) {
	var recs []*Record
	err := r.db.SelectContext(ctx, &recs, `
		SELECT id, user_id, agent_id, gift_id, price, created_at
		FROM gift_records
		WHERE user_id = $1 AND ($2::text = '' OR agent_id = $2::text)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, userID, agentID, limit, offset)
	return recs, err
}
