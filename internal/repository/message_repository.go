package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

// MessageRepository stores the admin inbox.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) CreateMessage(ctx context.Context, userID int64, text string) (*model.Message, error) {
	var row struct {
		ID        uuid.UUID
		UserID    int64
		Message   string
		CreatedAt time.Time
	}
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO messages (user_id, message) VALUES (?, ?)
		RETURNING id, user_id, message, created_at
	`, userID, text).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &model.Message{
		ID:        row.ID,
		UserID:    row.UserID,
		Text:      row.Message,
		CreatedAt: row.CreatedAt,
	}, nil
}

// ListRecent returns the newest messages, most recent first.
func (r *MessageRepository) ListRecent(ctx context.Context, limit int) ([]model.Message, error) {
	var rows []struct {
		ID        uuid.UUID
		UserID    int64
		Message   string
		CreatedAt time.Time
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, user_id, message, created_at
		FROM messages
		ORDER BY created_at DESC
		LIMIT ?
	`, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	messages := make([]model.Message, len(rows))
	for i, row := range rows {
		messages[i] = model.Message{
			ID:        row.ID,
			UserID:    row.UserID,
			Text:      row.Message,
			CreatedAt: row.CreatedAt,
		}
	}
	return messages, nil
}

func (r *MessageRepository) DeleteMessage(ctx context.Context, messageID uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(`DELETE FROM messages WHERE id = ?`, messageID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
