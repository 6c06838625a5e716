package kafka

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yourusername/telegram-news-collector/config"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/deps"
)

var Module = fx.Module("kafka",
	fx.Provide(NewProducerFx),
)

// NewProducerFx creates a Kafka producer for fx DI. An empty broker
// list disables event publishing: the use case treats a nil producer
// as "no downstream".
func NewProducerFx(
	lc fx.Lifecycle,
	cfg *config.KafkaConfig,
	logger zerolog.Logger,
) (deps.EventProducer, error) {
	if len(cfg.Brokers) == 0 {
		logger.Info().Msg("Kafka brokers not configured, event publishing disabled")
		return nil, nil
	}

	producer, err := NewProducer(cfg, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return producer.Close()
		},
	})

	return producer, nil
}
