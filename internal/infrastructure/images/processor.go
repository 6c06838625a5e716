package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/yourusername/telegram-news-collector/internal/domain/news/deps"
)

// Processor implements deps.AssetProcessor. It normalizes downloaded
// photos to bounded-width JPEG and lays them out on disk by post date
// and channel.
type Processor struct {
	baseDir  string
	maxWidth int
	quality  int
	keepWebP bool
	logger   zerolog.Logger
}

// ProcessorConfig holds configuration for the image processor
type ProcessorConfig struct {
	Dir      string
	MaxWidth int
	Quality  int
	KeepWebP bool
	Logger   zerolog.Logger
}

// NewProcessor creates an image processor writing under cfg.Dir
func NewProcessor(cfg ProcessorConfig) (*Processor, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("image directory is required")
	}
	if cfg.Quality < 1 || cfg.Quality > 100 {
		return nil, fmt.Errorf("jpeg quality must be in [1,100], got %d", cfg.Quality)
	}
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = 1280
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	return &Processor{
		baseDir:  cfg.Dir,
		maxWidth: cfg.MaxWidth,
		quality:  cfg.Quality,
		keepWebP: cfg.KeepWebP,
		logger:   cfg.Logger.With().Str("component", "image_processor").Logger(),
	}, nil
}

// Process decodes raw photo bytes, recompresses them and writes the
// result under <base>/<YYYY>/<MM>/<DD>/<channel>/<fileID>.<ext>. The
// returned path is relative to the base directory.
func (p *Processor) Process(ctx context.Context, raw []byte, postedAt time.Time, channelName, fileID string) (*deps.ProcessedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var (
		encoded []byte
		ext     string
		bounds  image.Rectangle
	)

	if format == "webp" && p.keepWebP {
		// Animated stickers and the like survive recompression badly,
		// so WebP is stored as received.
		encoded = raw
		ext = "webp"
		bounds = src.Bounds()
	} else {
		resized := p.normalize(src)
		bounds = resized.Bounds()

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: p.quality}); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
		encoded = buf.Bytes()
		ext = "jpg"
	}

	relPath := filepath.Join(
		postedAt.Format("2006"),
		postedAt.Format("01"),
		postedAt.Format("02"),
		sanitizeChannelName(channelName),
		fileID+"."+ext,
	)
	fullPath := filepath.Join(p.baseDir, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create image subdirectory: %w", err)
	}
	if err := os.WriteFile(fullPath, encoded, 0644); err != nil {
		return nil, fmt.Errorf("failed to write image file: %w", err)
	}

	p.logger.Debug().
		Str("path", relPath).
		Int("original_size", len(raw)).
		Int("compressed_size", len(encoded)).
		Msg("stored image")

	return &deps.ProcessedImage{
		Path:           relPath,
		OriginalSize:   int64(len(raw)),
		CompressedSize: int64(len(encoded)),
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
	}, nil
}

// normalize flattens the image onto a white background and scales it
// down to the configured maximum width. Transparency has to go before
// JPEG encoding, which has no alpha channel.
func (p *Processor) normalize(src image.Image) image.Image {
	bounds := src.Bounds()

	flat := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), src, bounds.Min, draw.Over)

	if flat.Bounds().Dx() <= p.maxWidth {
		return flat
	}

	ratio := float64(p.maxWidth) / float64(flat.Bounds().Dx())
	height := int(float64(flat.Bounds().Dy()) * ratio)
	if height < 1 {
		height = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, p.maxWidth, height))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), flat, flat.Bounds(), xdraw.Over, nil)
	return scaled
}

// sanitizeChannelName strips characters that would escape the storage
// layout or break on common filesystems.
func sanitizeChannelName(name string) string {
	name = strings.TrimPrefix(name, "@")
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if name == "" {
		name = "unknown"
	}
	return name
}

// Ensure Processor implements deps.AssetProcessor interface
var _ deps.AssetProcessor = (*Processor)(nil)
