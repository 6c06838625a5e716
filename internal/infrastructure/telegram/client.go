package telegram

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/yourusername/telegram-news-collector/internal/domain"
)

// MTProtoClient implements domain.TelegramClient using gotd/td library
type MTProtoClient struct {
	// Telegram client instance
	client *telegram.Client

	// API credentials
	apiID   int
	apiHash string

	// Session storage
	sessionStorage *FileSessionStorage

	// Page size for history requests
	pageSize int

	// Connection state
	connected     bool
	disconnecting bool
	mu            sync.RWMutex
	cancelFunc    context.CancelFunc
	runDone       chan struct{} // Signals when client.Run() completes

	// Logger
	logger zerolog.Logger

	// API client for making requests
	api *tg.Client

	// Rate limiter for API calls
	rateLimiter *rate.Limiter
}

// MTProtoClientConfig holds configuration for MTProtoClient
type MTProtoClientConfig struct {
	APIID       int
	APIHash     string
	SessionDir  string
	SessionName string
	PageSize    int
	Logger      zerolog.Logger
}

// NewMTProtoClient creates a new MTProto client instance. The session
// must already be authorized; there is no interactive login flow here.
func NewMTProtoClient(cfg MTProtoClientConfig) (*MTProtoClient, error) {
	if cfg.APIID == 0 {
		return nil, fmt.Errorf("APIID is required")
	}
	if cfg.APIHash == "" {
		return nil, fmt.Errorf("APIHash is required")
	}
	if cfg.SessionDir == "" {
		cfg.SessionDir = "./sessions"
	}
	if cfg.SessionName == "" {
		cfg.SessionName = "collector"
	}
	if cfg.PageSize <= 0 || cfg.PageSize > 100 {
		cfg.PageSize = 100
	}

	sessionStorage, err := NewFileSessionStorage(cfg.SessionDir, cfg.SessionName)
	if err != nil {
		return nil, fmt.Errorf("failed to create session storage: %w", err)
	}

	client := &MTProtoClient{
		apiID:          cfg.APIID,
		apiHash:        cfg.APIHash,
		sessionStorage: sessionStorage,
		pageSize:       cfg.PageSize,
		logger:         cfg.Logger.With().Str("component", "mtproto_client").Logger(),
		connected:      false,
		rateLimiter:    rate.NewLimiter(rate.Every(time.Second), 10), // 10 requests per second
	}

	return client, nil
}

// Connect connects to Telegram using MTProto and restores the stored
// session. The caller should provide a context with timeout to prevent
// indefinite hanging. An unauthorized session is a hard failure: the
// collector cannot prompt for codes.
func (c *MTProtoClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		c.logger.Debug().Msg("already connected")
		return nil
	}
	if c.disconnecting {
		c.mu.Unlock()
		return fmt.Errorf("disconnect in progress, cannot connect")
	}
	// Keep the lock to prevent concurrent connection attempts
	defer c.mu.Unlock()

	c.logger.Info().Msg("connecting to Telegram")

	c.client = telegram.NewClient(c.apiID, c.apiHash, telegram.Options{
		SessionStorage: c.sessionStorage,
	})

	// Create cancellable context for client lifecycle
	clientCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancelFunc = cancel

	// Channel to signal when connection is ready
	readyChan := make(chan struct{})
	errChan := make(chan error, 1)
	started := make(chan struct{})
	c.runDone = make(chan struct{})

	// Start the client in a goroutine
	go func() {
		defer close(c.runDone) // Signal when Run() completes
		close(started)
		err := c.client.Run(clientCtx, func(ctx context.Context) error {
			c.api = c.client.API()

			status, err := c.client.Auth().Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to check auth status: %w", err)
			}

			if !status.Authorized {
				c.logger.Error().Str("session", c.sessionStorage.GetFilePath()).
					Msg("session is not authorized, generate one before starting the collector")
				return domain.ErrAuthenticationFailed
			}

			c.logger.Info().Msg("session restored from storage")

			// Set connected state
			c.connected = true
			c.logger.Info().Msg("successfully connected to Telegram")

			// Signal that connection is ready
			close(readyChan)

			// Keep connection alive
			<-ctx.Done()
			return ctx.Err()
		})
		// Always send error to channel, even if nil
		select {
		case errChan <- err:
		default:
		}
	}()

	// Ensure goroutine has started
	<-started

	// Wait for connection to be fully ready or error
	select {
	case <-readyChan:
		return nil
	case err := <-errChan:
		// Cancel to clean up goroutine
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	case <-ctx.Done():
		// Cancel to clean up goroutine
		cancel()
		return ctx.Err()
	}
}

// Disconnect disconnects from Telegram with graceful shutdown.
// The session is automatically saved by the underlying gotd/td client
// before shutdown. Multiple calls to Disconnect() are safe and will
// return nil if already disconnected.
func (c *MTProtoClient) Disconnect(ctx context.Context) error {
	c.mu.Lock()

	if c.disconnecting {
		c.mu.Unlock()
		c.logger.Debug().Msg("disconnect already in progress")
		return nil
	}

	if !c.connected {
		c.mu.Unlock()
		c.logger.Debug().Msg("already disconnected")
		return nil
	}

	c.logger.Info().Msg("disconnecting from Telegram")

	// Mark as disconnecting
	c.disconnecting = true
	cancelFunc := c.cancelFunc
	runDone := c.runDone
	c.mu.Unlock()

	// Cancel the client context to stop the goroutine
	if cancelFunc != nil {
		c.logger.Debug().Msg("cancelling client context")
		cancelFunc()

		// Wait for client.Run() goroutine to actually finish
		if runDone != nil {
			select {
			case <-runDone:
				c.logger.Debug().Msg("client stopped gracefully")
			case <-ctx.Done():
				c.logger.Warn().Msg("disconnect timeout reached while waiting for client shutdown")
				// Don't return error yet, still clean up state
			}
		}
	}

	// Clean up state
	c.mu.Lock()
	c.client = nil
	c.api = nil
	c.connected = false
	c.cancelFunc = nil
	c.runDone = nil
	c.disconnecting = false
	c.mu.Unlock()

	c.logger.Info().Msg("successfully disconnected from Telegram")
	return nil
}

// IsConnected checks if client is connected to Telegram
func (c *MTProtoClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// resolveChannel resolves a channel username to an InputPeerChannel.
// Accepts the name with or without the @ prefix.
func (c *MTProtoClient) resolveChannel(ctx context.Context, channel string) (*tg.InputPeerChannel, error) {
	username := strings.TrimPrefix(channel, "@")
	if username == "" {
		return nil, domain.ErrInvalidChannel
	}

	resolved, err := c.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
		Username: username,
	})
	if err != nil {
		c.logger.Error().Err(err).Str("channel", channel).Msg("failed to resolve channel")
		return nil, fmt.Errorf("failed to resolve channel %q: %w", channel, err)
	}

	// Extract channel from resolved peer
	for _, chat := range resolved.Chats {
		if ch, ok := chat.(*tg.Channel); ok {
			return &tg.InputPeerChannel{
				ChannelID:  ch.ID,
				AccessHash: ch.AccessHash,
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: %q is not a channel", domain.ErrInvalidChannel, channel)
}

// IterMessages walks the channel history oldest first and invokes fn for
// every message posted strictly after since. An error from fn stops the
// walk and is returned unchanged.
func (c *MTProtoClient) IterMessages(ctx context.Context, channel string, since time.Time, fn func(domain.Post) error) error {
	c.mu.RLock()
	if !c.connected || c.api == nil {
		c.mu.RUnlock()
		return domain.ErrNotConnected
	}
	c.mu.RUnlock()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	peer, err := c.resolveChannel(ctx, channel)
	if err != nil {
		return err
	}

	c.logger.Debug().Str("channel", channel).Time("since", since).Msg("iterating channel history")

	// The first page anchors on the watermark date; subsequent pages
	// anchor on the last delivered message ID. A negative AddOffset
	// shifts the window forward in time, so each request returns the
	// next pageSize messages newer than the anchor.
	sinceUnix := since.Unix()
	offsetID := 0
	offsetDate := int(sinceUnix)
	lastID := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait cancelled: %w", err)
		}

		result, err := c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:       peer,
			OffsetID:   offsetID,
			OffsetDate: offsetDate,
			AddOffset:  -c.pageSize,
			Limit:      c.pageSize,
		})
		if err != nil {
			return fmt.Errorf("failed to get history: %w", err)
		}

		page := historyMessages(result)
		sortAscending(page)

		delivered := 0
		for _, msg := range page {
			if msg.ID <= lastID || int64(msg.Date) <= sinceUnix {
				continue
			}
			lastID = msg.ID
			delivered++
			if err := fn(mapMessage(msg)); err != nil {
				return err
			}
		}

		if delivered == 0 {
			return nil
		}

		offsetID = lastID
		offsetDate = 0
	}
}

// historyMessages flattens a history response into concrete messages,
// skipping service entries and holes.
func historyMessages(result tg.MessagesMessagesClass) []*tg.Message {
	var raw []tg.MessageClass
	switch messages := result.(type) {
	case *tg.MessagesChannelMessages:
		raw = messages.Messages
	case *tg.MessagesMessagesSlice:
		raw = messages.Messages
	case *tg.MessagesMessages:
		raw = messages.Messages
	default:
		return nil
	}

	out := make([]*tg.Message, 0, len(raw))
	for _, m := range raw {
		if msg, ok := m.(*tg.Message); ok {
			out = append(out, msg)
		}
	}
	return out
}

// DownloadPhoto fetches the full-size photo bytes for the reference
func (c *MTProtoClient) DownloadPhoto(ctx context.Context, photo *domain.PhotoRef) ([]byte, error) {
	if photo == nil {
		return nil, domain.ErrPhotoUnavailable
	}

	c.mu.RLock()
	if !c.connected || c.api == nil {
		c.mu.RUnlock()
		return nil, domain.ErrNotConnected
	}
	c.mu.RUnlock()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	location := &tg.InputPhotoFileLocation{
		ID:            photo.FileID,
		AccessHash:    photo.AccessHash,
		FileReference: photo.FileReference,
		ThumbSize:     photo.ThumbType,
	}

	var buf bytes.Buffer
	if _, err := downloader.NewDownloader().Download(c.api, location).Stream(ctx, &buf); err != nil {
		c.logger.Error().Err(err).Int64("file_id", photo.FileID).Msg("failed to download photo")
		return nil, fmt.Errorf("%w: %v", domain.ErrPhotoUnavailable, err)
	}

	return buf.Bytes(), nil
}

// Ensure MTProtoClient implements domain.TelegramClient interface
var _ domain.TelegramClient = (*MTProtoClient)(nil)
