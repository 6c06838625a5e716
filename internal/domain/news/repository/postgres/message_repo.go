package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/telegram-news-collector/internal/domain/news/deps"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/entities"
)

// MessageRepository implements deps.MessageRepository using PostgreSQL
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new PostgreSQL message repository
func NewMessageRepository(db *gorm.DB) deps.MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a message. Conflicts on (channel_id, message_id) are
// no-ops so replays over an already-ingested backlog are harmless.
func (r *MessageRepository) Create(ctx context.Context, msg *entities.Message) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(msg)
	if result.Error != nil {
		return fmt.Errorf("failed to insert message: %w", result.Error)
	}
	return nil
}

// FindOriginalByHash returns the first non-duplicate message carrying the
// fingerprint, or nil when no original exists. Duplicates never carry a
// fingerprint, so the is_duplicate predicate is a guard, not a filter.
func (r *MessageRepository) FindOriginalByHash(ctx context.Context, textHash string) (*entities.MessageRef, error) {
	var msg entities.Message
	err := r.db.WithContext(ctx).
		Select("channel_id", "message_id").
		Where("text_hash = ? AND is_duplicate = ?", textHash, false).
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up fingerprint: %w", err)
	}

	return &entities.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.MessageID}, nil
}
