package telegram

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yourusername/telegram-news-collector/config"
	"github.com/yourusername/telegram-news-collector/internal/domain"
)

// Module provides the Telegram client for fx DI
var Module = fx.Module("telegram",
	fx.Provide(NewMTProtoClientFx),
)

// NewMTProtoClientFx creates an MTProto client with lifecycle hooks for fx DI
func NewMTProtoClientFx(
	lc fx.Lifecycle,
	telegramCfg *config.TelegramConfig,
	logger zerolog.Logger,
) (domain.TelegramClient, error) {
	client, err := NewMTProtoClient(MTProtoClientConfig{
		APIID:       telegramCfg.APIID,
		APIHash:     telegramCfg.APIHash,
		SessionDir:  telegramCfg.SessionDir,
		SessionName: telegramCfg.SessionName,
		PageSize:    telegramCfg.PageSize,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			connectCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			defer cancel()
			return client.Connect(connectCtx)
		},
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})

	return client, nil
}
