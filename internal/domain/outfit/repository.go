package outfit

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines outfit data access interface
type Repository interface {
	IsUnlocked(ctx context.Context, userID uuid.UUID, outfitID string) (bool, error)
	// Create returns false when the user already owned the outfit.
	Create(ctx context.Context, u *Unlock) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Unlock, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates outfit repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) IsUnlocked(ctx context.Context, userID uuid.UUID, outfitID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM outfit_unlocks WHERE user_id = $1 AND outfit_id = $2)
	`, userID, outfitID)
	return exists, err
}

func (r *repository) Create(ctx context.Context, u *Unlock) (bool, error) {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO outfit_unlocks (user_id, outfit_id, price, unlocked_at)
		VALUES (:user_id, :outfit_id, :price, :unlocked_at)
		ON CONFLICT (user_id, outfit_id) DO NOTHING
	`, u)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Unlock, error) {
	var unlocks []*Unlock
	err := r.db.SelectContext(ctx, &unlocks, `
		SELECT user_id, outfit_id, price, unlocked_at
		FROM outfit_unlocks
		WHERE user_id = $1
		ORDER BY unlocked_at DESC
	`, userID)
	return unlocks, err
}
