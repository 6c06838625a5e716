package http

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/yourusername/telegram-news-collector/config"
	"github.com/yourusername/telegram-news-collector/internal/domain"
)

// Module provides the HTTP server for fx DI
var Module = fx.Module("http",
	fx.Invoke(registerServerLifecycle),
)

func registerServerLifecycle(
	lc fx.Lifecycle,
	serviceCfg *config.ServiceConfig,
	client domain.TelegramClient,
	db *gorm.DB,
	logger zerolog.Logger,
) {
	health := NewHealthHandler(client, db, logger.With().Str("component", "health").Logger())
	server := NewServer(serviceCfg.Port, health, logger.With().Str("component", "http_server").Logger())

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return server.Start()
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}
