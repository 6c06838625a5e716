package app

import (
	"go.uber.org/fx"

	"github.com/yourusername/telegram-news-collector/config"
	"github.com/yourusername/telegram-news-collector/internal/domain/news"
	"github.com/yourusername/telegram-news-collector/internal/infrastructure/database"
	"github.com/yourusername/telegram-news-collector/internal/infrastructure/http"
	"github.com/yourusername/telegram-news-collector/internal/infrastructure/images"
	"github.com/yourusername/telegram-news-collector/internal/infrastructure/kafka"
	"github.com/yourusername/telegram-news-collector/internal/infrastructure/logger"
	"github.com/yourusername/telegram-news-collector/internal/infrastructure/metrics"
	"github.com/yourusername/telegram-news-collector/internal/infrastructure/telegram"
)

// CreateApp creates the fx application with all dependencies
func CreateApp() fx.Option {
	return fx.Options(
		fx.Provide(config.Out),
		logger.Module,
		database.Module,
		metrics.Module,
		telegram.Module,
		images.Module,
		kafka.Module,
		http.Module,
		news.Module,
	)
}
