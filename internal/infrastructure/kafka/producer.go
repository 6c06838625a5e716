package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/yourusername/telegram-news-collector/config"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/deps"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/entities"
)

const topicPostCollected = "news.collected"

// PostCollectedMessage is the wire format for collected-post events
type PostCollectedMessage struct {
	ChannelID   int64  `json:"channel_id"`
	MessageID   int64  `json:"message_id"`
	Text        string `json:"text,omitempty"`
	PostedAt    int64  `json:"posted_at"`
	HasMedia    bool   `json:"has_media"`
	IsDuplicate bool   `json:"is_duplicate"`
	IsForwarded bool   `json:"is_forwarded"`
	Timestamp   int64  `json:"timestamp"`
}

type Producer struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewProducer creates a Kafka producer for collected-post events
func NewProducer(cfg *config.KafkaConfig, logger zerolog.Logger) (deps.EventProducer, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Msg("Kafka producer initialized")

	return &Producer{
		writer: writer,
		logger: logger,
	}, nil
}

// SendPostCollected publishes an event for a freshly persisted post.
// The key is the source channel so per-channel ordering survives
// partitioning.
func (p *Producer) SendPostCollected(ctx context.Context, msg *entities.Message) error {
	event := PostCollectedMessage{
		ChannelID:   msg.ChannelID,
		MessageID:   msg.MessageID,
		PostedAt:    msg.PostedAt.Unix(),
		HasMedia:    msg.HasMedia,
		IsDuplicate: msg.IsDuplicate,
		IsForwarded: msg.IsForwarded,
		Timestamp:   time.Now().Unix(),
	}
	if msg.Text != nil {
		event.Text = *msg.Text
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := fmt.Sprintf("channel-%d", msg.ChannelID)

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topicPostCollected,
		Key:   []byte(key),
		Value: data,
	})
	if err != nil {
		p.logger.Error().Err(err).
			Int64("channel_id", msg.ChannelID).
			Int64("message_id", msg.MessageID).
			Msg("Failed to send post collected message")
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.Debug().
		Int64("channel_id", msg.ChannelID).
		Int64("message_id", msg.MessageID).
		Msg("Post collected message sent")

	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
