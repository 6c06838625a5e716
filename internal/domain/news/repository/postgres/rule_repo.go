package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/telegram-news-collector/internal/domain/news/deps"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/entities"
)

// RuleRepository implements deps.RuleRepository using PostgreSQL
type RuleRepository struct {
	db *gorm.DB
}

// NewRuleRepository creates a new PostgreSQL exclusion rule repository
func NewRuleRepository(db *gorm.DB) deps.RuleRepository {
	return &RuleRepository{db: db}
}

// GetActiveRules retrieves active exclusion rules ordered by id. Order
// matters: it is the evaluation order of the rule evaluator.
func (r *RuleRepository) GetActiveRules(ctx context.Context) ([]entities.ExclusionRule, error) {
	var ruleSet []entities.ExclusionRule
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id").
		Find(&ruleSet).Error; err != nil {
		return nil, fmt.Errorf("failed to get exclusion rules: %w", err)
	}
	return ruleSet, nil
}
