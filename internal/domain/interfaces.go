package domain

import (
	"context"
	"time"
)

// TelegramClient is the inbound platform interface consumed by the
// ingestion pipeline: ordered, resumable post enumeration plus photo
// byte retrieval.
type TelegramClient interface {
	// Connect establishes the MTProto session.
	Connect(ctx context.Context) error

	// Disconnect tears the session down.
	Disconnect(ctx context.Context) error

	// IsConnected reports whether the session is live.
	IsConnected() bool

	// IterMessages enumerates posts of a channel strictly after `since`,
	// ordered oldest to newest, invoking fn for each. Enumeration stops
	// at the first fn error, which is returned unchanged.
	IterMessages(ctx context.Context, channel string, since time.Time, fn func(Post) error) error

	// DownloadPhoto fetches the raw bytes of a photo.
	DownloadPhoto(ctx context.Context, photo *PhotoRef) ([]byte, error)
}
