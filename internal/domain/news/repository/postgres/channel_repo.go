package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/telegram-news-collector/internal/domain/news/deps"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/entities"
	newserrors "github.com/yourusername/telegram-news-collector/internal/domain/news/errors"
)

// ChannelRepository implements deps.ChannelRepository using PostgreSQL
type ChannelRepository struct {
	db *gorm.DB
}

// NewChannelRepository creates a new PostgreSQL channel repository
func NewChannelRepository(db *gorm.DB) deps.ChannelRepository {
	return &ChannelRepository{db: db}
}

// GetAllChannels retrieves all monitored channels ordered by id
func (r *ChannelRepository) GetAllChannels(ctx context.Context) ([]entities.Channel, error) {
	var channels []entities.Channel
	if err := r.db.WithContext(ctx).
		Order("id").
		Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("failed to get channels: %w", err)
	}
	return channels, nil
}

// UpdateLastFetched advances a channel's watermark
func (r *ChannelRepository) UpdateLastFetched(ctx context.Context, channelID int64, fetchedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Channel{}).
		Where("id = ?", channelID).
		Update("last_fetched_at", fetchedAt)

	if result.Error != nil {
		return fmt.Errorf("failed to update channel watermark: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return newserrors.ErrChannelNotFound
	}

	return nil
}
