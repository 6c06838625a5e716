package images

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yourusername/telegram-news-collector/config"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/deps"
)

// Module provides the image processor for fx DI
var Module = fx.Module("images",
	fx.Provide(NewProcessorFx),
)

// NewProcessorFx creates an image processor for fx DI
func NewProcessorFx(imageCfg *config.ImageConfig, logger zerolog.Logger) (deps.AssetProcessor, error) {
	return NewProcessor(ProcessorConfig{
		Dir:      imageCfg.Dir,
		MaxWidth: imageCfg.MaxWidth,
		Quality:  imageCfg.Quality,
		KeepWebP: imageCfg.KeepWebP,
		Logger:   logger,
	})
}
