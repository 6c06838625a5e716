package business

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourusername/telegram-news-collector/config"
	"github.com/yourusername/telegram-news-collector/internal/domain"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/deps"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/entities"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/rules"
	"github.com/yourusername/telegram-news-collector/internal/infrastructure/metrics"
)

// collectedLogEvery controls per-channel progress logging frequency.
const collectedLogEvery = 10

// UseCase implements the collection pipeline: it drives each channel's
// backlog from its watermark forward, classifies posts, resolves
// duplicates and forwards, delegates photo handling, and persists
// records idempotently.
type UseCase struct {
	client   domain.TelegramClient
	channels deps.ChannelRepository
	rules    deps.RuleRepository
	messages deps.MessageRepository
	images   deps.ImageRepository
	assets   deps.AssetProcessor
	producer deps.EventProducer
	cfg      *config.CollectorConfig
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// NewUseCase creates a new collection use case
func NewUseCase(
	client domain.TelegramClient,
	channels deps.ChannelRepository,
	ruleRepo deps.RuleRepository,
	messages deps.MessageRepository,
	images deps.ImageRepository,
	assets deps.AssetProcessor,
	producer deps.EventProducer,
	cfg *config.CollectorConfig,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *UseCase {
	return &UseCase{
		client:   client,
		channels: channels,
		rules:    ruleRepo,
		messages: messages,
		images:   images,
		assets:   assets,
		producer: producer,
		cfg:      cfg,
		logger:   logger.With().Str("component", "collector").Logger(),
		metrics:  m,
	}
}

// Run performs one collection pass over all monitored channels.
//
// The channel list and active exclusion rules are loaded once per run.
// Channels are processed sequentially; a channel's failure aborts only
// that channel's pass and is reported, never propagated. Only loading
// failures (store unreachable) abort the whole run.
func (u *UseCase) Run(ctx context.Context) (*domain.RunReport, error) {
	start := time.Now()

	activeRules, err := u.rules.GetActiveRules(ctx)
	if err != nil {
		u.logger.Error().Err(err).Msg("Failed to load exclusion rules")
		u.metrics.RecordRunError()
		return nil, err
	}
	u.logger.Info().Int("rules_count", len(activeRules)).Msg("Loaded active exclusion rules")

	channels, err := u.channels.GetAllChannels(ctx)
	if err != nil {
		u.logger.Error().Err(err).Msg("Failed to load channels")
		u.metrics.RecordRunError()
		return nil, err
	}

	if len(channels) == 0 {
		u.logger.Warn().Msg("No channels configured, nothing to collect")
		return &domain.RunReport{Started: start, Finished: time.Now()}, nil
	}

	evaluator := rules.NewEvaluator(activeRules, u.cfg.MinTextLength)

	report := &domain.RunReport{Started: start}
	for _, channel := range channels {
		select {
		case <-ctx.Done():
			u.logger.Warn().
				Int("processed_channels", len(report.Channels)).
				Int("total_channels", len(channels)).
				Msg("Collection run cancelled")
			report.Finished = time.Now()
			return report, ctx.Err()
		default:
		}

		chReport := u.collectChannel(ctx, &channel, evaluator)
		if chReport.Err != nil {
			u.logger.Error().Err(chReport.Err).
				Int64("channel_id", channel.ID).
				Str("channel", channel.Name).
				Msg("Channel pass failed, continuing with next channel")
			u.metrics.RecordChannelError()
		}
		report.Channels = append(report.Channels, chReport)
	}
	report.Finished = time.Now()

	u.logger.Info().
		Int("channels_count", len(channels)).
		Int("total_processed", report.TotalProcessed()).
		Int("total_collected", report.TotalCollected()).
		Strs("failed_channels", report.Failed()).
		Msg("Collection run completed")

	u.metrics.RecordRun(report.TotalCollected(), time.Since(start).Seconds())

	return report, nil
}

// collectChannel drives one channel's backlog from its watermark forward.
// The watermark advances to the timestamp of the last collected post,
// and only after the whole pass succeeded; a pass that collects nothing
// leaves it untouched.
func (u *UseCase) collectChannel(ctx context.Context, channel *entities.Channel, evaluator *rules.Evaluator) domain.ChannelReport {
	report := domain.ChannelReport{ChannelID: channel.ID, ChannelName: channel.Name}

	since := u.cfg.StartDate
	if channel.LastFetched != nil {
		since = *channel.LastFetched
	}

	u.logger.Info().
		Int64("channel_id", channel.ID).
		Str("channel", channel.Name).
		Time("since", since).
		Msg("Processing channel")

	var lastCollected time.Time

	err := u.client.IterMessages(ctx, channel.Name, since, func(post domain.Post) error {
		report.Processed++

		collected, err := u.processPost(ctx, channel, evaluator, &post)
		if err != nil {
			return err
		}
		if !collected {
			return nil
		}

		report.Collected++
		lastCollected = post.Date

		if report.Collected%collectedLogEvery == 0 {
			u.logger.Info().
				Str("channel", channel.Name).
				Int("collected", report.Collected).
				Msg("Collection progress")
		}
		return nil
	})
	if err != nil {
		report.Err = err
		return report
	}

	if !lastCollected.IsZero() {
		if err := u.channels.UpdateLastFetched(ctx, channel.ID, lastCollected); err != nil {
			report.Err = err
			return report
		}
		u.logger.Info().
			Str("channel", channel.Name).
			Time("watermark", lastCollected).
			Msg("Advanced channel watermark")
	}

	u.logger.Info().
		Str("channel", channel.Name).
		Int("processed", report.Processed).
		Int("collected", report.Collected).
		Msg("Channel pass completed")

	return report
}

// processPost decides a single post's fate and persists it. Returns
// whether the post was collected. A returned error aborts the channel
// pass; photo failures never do.
func (u *UseCase) processPost(ctx context.Context, channel *entities.Channel, evaluator *rules.Evaluator, post *domain.Post) (bool, error) {
	u.metrics.RecordPostProcessed()

	// Forwards skip classification entirely: forwarding status is
	// resolved here, not by the rule evaluator.
	if !post.Forwarded {
		decision := evaluator.Classify(post)
		if !decision.Collect {
			u.logger.Debug().
				Str("channel", channel.Name).
				Int64("message_id", post.ID).
				Str("reason", decision.Reason).
				Msg("Skipping message")
			u.metrics.RecordPostDropped()
			return false, nil
		}
	}

	msg := entities.Message{
		ChannelID:   channel.ID,
		MessageID:   post.ID,
		PostedAt:    post.Date,
		HasMedia:    post.HasPhoto(),
		IsForwarded: post.Forwarded,
	}
	if post.GroupID != 0 {
		groupID := post.GroupID
		msg.GroupID = &groupID
	}

	switch {
	case post.Forwarded:
		// A forward never stores text and never gets a fingerprint; the
		// origin reference is best-effort and may be partial or absent.
		u.metrics.RecordForward()
		if post.ForwardOrigin != nil {
			if post.ForwardOrigin.ChannelID != 0 {
				id := post.ForwardOrigin.ChannelID
				msg.ForwardChannelID = &id
			}
			if post.ForwardOrigin.MessageID != 0 {
				id := post.ForwardOrigin.MessageID
				msg.ForwardMessageID = &id
			}
		}
		u.logger.Info().
			Str("channel", channel.Name).
			Int64("message_id", post.ID).
			Interface("origin", post.ForwardOrigin).
			Msg("Forwarded message detected")

	case post.Text != "":
		hash := fingerprint(post.Text)
		original, err := u.messages.FindOriginalByHash(ctx, hash)
		if err != nil {
			return false, err
		}
		// Replays see their own earlier row; that never makes a post a
		// duplicate of itself.
		if original != nil && !(original.ChannelID == channel.ID && original.MessageID == post.ID) {
			msg.IsDuplicate = true
			msg.DuplicateChannelID = &original.ChannelID
			msg.DuplicateMessageID = &original.MessageID
			u.metrics.RecordDuplicate()
			u.logger.Info().
				Str("channel", channel.Name).
				Int64("message_id", post.ID).
				Int64("original_channel_id", original.ChannelID).
				Int64("original_message_id", original.MessageID).
				Msg("Duplicate text detected")
		} else {
			text := post.Text
			msg.Text = &text
			msg.TextHash = &hash
		}
	}

	// The message row goes in before any asset work so a failed photo
	// can never orphan or lose the textual record.
	if err := u.messages.Create(ctx, &msg); err != nil {
		return false, err
	}
	u.metrics.RecordPostCollected()

	if post.HasPhoto() && !post.Forwarded {
		u.processPhoto(ctx, channel, post)
	} else if post.HasPhoto() && post.Forwarded {
		u.logger.Debug().
			Str("channel", channel.Name).
			Int64("message_id", post.ID).
			Msg("Skipping photo download for forwarded message")
	}

	if u.producer != nil {
		if err := u.producer.SendPostCollected(ctx, &msg); err != nil {
			u.logger.Warn().Err(err).
				Str("channel", channel.Name).
				Int64("message_id", post.ID).
				Msg("Failed to publish collected-post event")
		}
	}

	return true, nil
}

// processPhoto downloads, compresses and records a post's photo. All
// failures are photo-level: logged and swallowed, leaving the post
// without an Image row.
func (u *UseCase) processPhoto(ctx context.Context, channel *entities.Channel, post *domain.Post) {
	fileID := strconv.FormatInt(post.Photo.FileID, 10)

	exists, err := u.images.Exists(ctx, fileID)
	if err != nil {
		u.logger.Error().Err(err).
			Str("file_id", fileID).
			Msg("Failed to check image existence")
		u.metrics.RecordImageError()
		return
	}
	if exists {
		u.logger.Debug().Str("file_id", fileID).Msg("Image already exists, skipping download")
		return
	}

	u.logger.Info().
		Str("channel", channel.Name).
		Int64("message_id", post.ID).
		Str("file_id", fileID).
		Msg("Downloading photo")

	raw, err := u.client.DownloadPhoto(ctx, post.Photo)
	if err != nil {
		u.logger.Warn().Err(err).
			Str("file_id", fileID).
			Int64("message_id", post.ID).
			Msg("Failed to download photo")
		u.metrics.RecordImageError()
		return
	}

	processed, err := u.assets.Process(ctx, raw, post.Date, channel.Name, fileID)
	if err != nil {
		u.logger.Warn().Err(err).
			Str("file_id", fileID).
			Int64("message_id", post.ID).
			Msg("Failed to process photo")
		u.metrics.RecordImageError()
		return
	}

	img := entities.Image{
		FileID:         fileID,
		ChannelID:      channel.ID,
		MessageID:      post.ID,
		Path:           processed.Path,
		OriginalSize:   processed.OriginalSize,
		CompressedSize: processed.CompressedSize,
		Width:          processed.Width,
		Height:         processed.Height,
	}
	if err := u.images.Create(ctx, &img); err != nil {
		u.logger.Error().Err(err).
			Str("file_id", fileID).
			Msg("Failed to store image metadata")
		u.metrics.RecordImageError()
		return
	}

	u.metrics.RecordImageStored(processed.OriginalSize, processed.CompressedSize)
}

// fingerprint is the duplicate-detection digest over the exact post text.
func fingerprint(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
