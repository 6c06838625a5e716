package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/telegram-news-collector/internal/domain/news/deps"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/entities"
)

// ImageRepository implements deps.ImageRepository using PostgreSQL
type ImageRepository struct {
	db *gorm.DB
}

// NewImageRepository creates a new PostgreSQL image repository
func NewImageRepository(db *gorm.DB) deps.ImageRepository {
	return &ImageRepository{db: db}
}

// Create inserts image metadata. Conflicts on file_id are no-ops: the
// first download of a platform file wins globally.
func (r *ImageRepository) Create(ctx context.Context, img *entities.Image) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(img)
	if result.Error != nil {
		return fmt.Errorf("failed to insert image: %w", result.Error)
	}
	return nil
}

// Exists checks whether an image with the file ID was already stored
func (r *ImageRepository) Exists(ctx context.Context, fileID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Image{}).
		Where("file_id = ?", fileID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check image existence: %w", err)
	}
	return count > 0, nil
}
