package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines chat data access interface
type Repository interface {
	CreateMessages(ctx context.Context, msgs ...*Message) error
	ListRecent(ctx context.Context, userID uuid.UUID, agentID string, limit, offset int) ([]*Message, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new chat repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// CreateMessages stores the turns of one exchange together.
func (r *repository) CreateMessages(ctx context.Context, msgs ...*Message) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, msg := range msgs {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO chat_messages (id, user_id, agent_id, role, content, created_at)
			VALUES (:id, :user_id, :agent_id, :role, :content, :created_at)
		`, msg)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListRecent returns messages newest first.
func (r *repository) ListRecent(ctx context.Context, userID uuid.UUID, agentID string, limit, offset int) ([]*Message, error) {
	var msgs []*Message
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT id, user_id, agent_id, role, content, created_at
		FROM chat_messages
		WHERE user_id = $1 AND agent_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, userID, agentID, limit, offset)
	return msgs, err
}
