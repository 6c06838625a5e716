package domain

import "time"

// Post is a single channel post as reported by Telegram, before any
// filtering or persistence decisions are made.
type Post struct {
	ID   int64
	Text string
	Date time.Time

	// Photo is set when the post carries a photo attachment.
	Photo *PhotoRef

	// HasOtherMedia is set when the post carries non-photo media
	// (video, document, poll, ...). Such media is never downloaded.
	HasOtherMedia bool

	// Forwarded marks re-shared posts. ForwardOrigin is best-effort and
	// may be nil even when Forwarded is true.
	Forwarded     bool
	ForwardOrigin *ForwardOrigin

	// GroupID links album member posts; 0 when the post is standalone.
	GroupID int64
}

// HasPhoto reports whether the post carries a photo attachment.
func (p *Post) HasPhoto() bool {
	return p.Photo != nil
}

// PhotoRef identifies a photo file on Telegram servers with everything
// needed to download its bytes.
type PhotoRef struct {
	FileID        int64
	AccessHash    int64
	FileReference []byte
	// ThumbType is the type letter of the largest available size.
	ThumbType string
}

// ForwardOrigin points to the channel post a forward was re-shared from.
// Either field may be zero when Telegram did not expose it.
type ForwardOrigin struct {
	ChannelID int64
	MessageID int64
}

// RunReport summarizes a collection run across all channels.
type RunReport struct {
	Channels []ChannelReport
	Started  time.Time
	Finished time.Time
}

// ChannelReport summarizes a single channel pass.
type ChannelReport struct {
	ChannelID   int64
	ChannelName string
	Processed   int
	Collected   int
	Err         error
}

// Failed returns the names of channels whose pass aborted.
func (r *RunReport) Failed() []string {
	var failed []string
	for _, ch := range r.Channels {
		if ch.Err != nil {
			failed = append(failed, ch.ChannelName)
		}
	}
	return failed
}

// TotalCollected returns the number of collected posts across channels.
func (r *RunReport) TotalCollected() int {
	total := 0
	for _, ch := range r.Channels {
		total += ch.Collected
	}
	return total
}

// TotalProcessed returns the number of seen posts across channels.
func (r *RunReport) TotalProcessed() int {
	total := 0
	for _, ch := range r.Channels {
		total += ch.Processed
	}
	return total
}
