package news

import (
	"go.uber.org/fx"

	"github.com/yourusername/telegram-news-collector/internal/domain/news/repository/postgres"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/usecase/business"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/workers"
)

// Module provides news domain dependencies
var Module = fx.Module(
	"news",
	fx.Provide(
		postgres.NewChannelRepository,
		postgres.NewRuleRepository,
		postgres.NewMessageRepository,
		postgres.NewImageRepository,
		business.NewUseCase,
		workers.NewCollectorWorker,
	),
)
