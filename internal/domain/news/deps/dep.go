package deps

import (
	"context"
	"time"

	"github.com/yourusername/telegram-news-collector/internal/domain/news/entities"
)

// ChannelRepository defines the interface for channel data access
type ChannelRepository interface {
	// GetAllChannels retrieves all monitored channels
	GetAllChannels(ctx context.Context) ([]entities.Channel, error)

	// UpdateLastFetched advances a channel's watermark
	UpdateLastFetched(ctx context.Context, channelID int64, fetchedAt time.Time) error
}

// RuleRepository defines the interface for exclusion rule access
type RuleRepository interface {
	// GetActiveRules retrieves active exclusion rules ordered by id
	GetActiveRules(ctx context.Context) ([]entities.ExclusionRule, error)
}

// MessageRepository defines the interface for message data access.
// Create must be a no-op when the (channel_id, message_id) row exists.
type MessageRepository interface {
	// Create inserts a message; duplicate primary keys are ignored
	Create(ctx context.Context, msg *entities.Message) error

	// FindOriginalByHash returns the first non-duplicate message carrying
	// the given text fingerprint, or nil when none exists
	FindOriginalByHash(ctx context.Context, textHash string) (*entities.MessageRef, error)
}

// ImageRepository defines the interface for image metadata access.
// Create must be a no-op when the file_id row exists.
type ImageRepository interface {
	// Create inserts image metadata; duplicate file IDs are ignored
	Create(ctx context.Context, img *entities.Image) error

	// Exists checks whether an image with the file ID was already stored
	Exists(ctx context.Context, fileID string) (bool, error)
}

// ProcessedImage is the Asset Processor's result for one photo.
type ProcessedImage struct {
	// Path is relative to the configured image base directory.
	Path           string
	OriginalSize   int64
	CompressedSize int64
	Width          int
	Height         int
}

// AssetProcessor normalizes, compresses and stores raw photo bytes.
type AssetProcessor interface {
	Process(ctx context.Context, raw []byte, postedAt time.Time, channelName, fileID string) (*ProcessedImage, error)
}

// EventProducer publishes collected-post events for downstream consumers.
type EventProducer interface {
	// SendPostCollected publishes an event for a freshly persisted post
	SendPostCollected(ctx context.Context, msg *entities.Message) error

	// Close closes the producer
	Close() error
}
