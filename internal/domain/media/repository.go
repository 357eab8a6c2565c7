package media

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines media data access interface
type Repository interface {
	Create(ctx context.Context, asset *Asset) error
	ListByUser(ctx context.Context, userID uuid.UUID, kind Kind, limit, offset int) ([]*Asset, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates media repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, asset *Asset) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO media_assets (
			id, user_id, agent_id, kind, prompt, url, thumbnail_url, content_type, cost, charged, created_at
		)
		VALUES (
			:id, :user_id, :agent_id, :kind, :prompt, :url, :thumbnail_url, :content_type, :cost, :charged, :created_at
		)
	`, asset)
	return err
}

// ListByUser returns assets newest first. An empty kind lists every kind.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, kind Kind, limit, offset int) ([]*Asset, error) {
	var assets []*Asset
	err := r.db.SelectContext(ctx, &assets, `
		SELECT id, user_id, agent_id, kind, prompt, url, thumbnail_url, content_type, cost, charged, created_at
		FROM media_assets
		WHERE user_id = $1 AND ($2::text = '' OR kind = $2::text)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, userID, string(kind), limit, offset)
	return assets, err
}
