package main

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yourusername/telegram-news-collector/config"
	"github.com/yourusername/telegram-news-collector/internal/app"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/usecase/business"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/workers"
)

func main() {
	fx.New(
		app.CreateApp(),
		fx.Invoke(run),
	).Run()
}

func run(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	useCase *business.UseCase,
	worker *workers.CollectorWorker,
	logger zerolog.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info().
				Str("service", cfg.Service.Name).
				Str("port", cfg.Service.Port).
				Bool("run_once", cfg.Collector.RunOnce).
				Msg("Starting news collector")

			if cfg.Collector.RunOnce {
				// Single pass, then stop the app. The pass runs outside the
				// OnStart hook so startup is not held hostage by a long
				// backlog.
				go func() {
					runCtx, cancel := context.WithTimeout(context.Background(), cfg.Collector.CycleTimeout)
					defer cancel()

					if _, err := useCase.Run(runCtx); err != nil {
						logger.Error().Err(err).Msg("Collection run failed")
					}
					if err := shutdowner.Shutdown(); err != nil {
						logger.Error().Err(err).Msg("Failed to trigger shutdown")
					}
				}()
				return nil
			}

			worker.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("Shutting down news collector...")

			if !cfg.Collector.RunOnce {
				worker.Stop()
			}

			logger.Info().Msg("News collector stopped")
			return nil
		},
	})
}
