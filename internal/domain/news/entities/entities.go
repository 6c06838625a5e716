package entities

import "time"

// RuleKind enumerates exclusion rule matching modes.
type RuleKind string

const (
	RuleKindExact    RuleKind = "exact"
	RuleKindContains RuleKind = "contains"
)

// Channel is a monitored Telegram channel. The primary key is the
// platform-assigned numeric channel ID.
type Channel struct {
	ID          int64      `gorm:"primaryKey" db:"id" json:"id"`
	Name        string     `gorm:"not null;uniqueIndex;size:255" db:"name" json:"name"`
	DisplayName string     `gorm:"size:255" db:"display_name" json:"displayName"`
	Category    string     `gorm:"size:100" db:"category" json:"category"`
	LastFetched *time.Time `gorm:"column:last_fetched_at" db:"last_fetched_at" json:"lastFetchedAt,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" db:"updated_at" json:"updatedAt"`
}

// TableName returns the table name for Channel
func (Channel) TableName() string {
	return "channels"
}

// ExclusionRule drops posts whose text matches its pattern.
type ExclusionRule struct {
	ID            uint      `gorm:"primaryKey" db:"id" json:"id"`
	Pattern       string    `gorm:"not null;type:text" db:"pattern" json:"pattern"`
	RuleKind      RuleKind  `gorm:"not null;size:16;default:contains" db:"rule_kind" json:"ruleKind"`
	CaseSensitive bool      `gorm:"not null;default:false" db:"case_sensitive" json:"caseSensitive"`
	Active        bool      `gorm:"not null;default:true" db:"active" json:"active"`
	Description   string    `gorm:"type:text" db:"description" json:"description,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" db:"created_at" json:"createdAt"`
}

// TableName returns the table name for ExclusionRule
func (ExclusionRule) TableName() string {
	return "exclusion_rules"
}

// Message is a collected post. Identity is (channel_id, message_id);
// rows are append-only and inserts are no-ops on conflict.
//
// Text is nil for forwards and duplicates. TextHash is set only for
// non-forward, non-duplicate, text-bearing posts, making the hash index
// a registry of duplicate originals.
type Message struct {
	ChannelID   int64     `gorm:"primaryKey;autoIncrement:false" db:"channel_id" json:"channelId"`
	MessageID   int64     `gorm:"primaryKey;autoIncrement:false" db:"message_id" json:"messageId"`
	Text        *string   `gorm:"type:text" db:"text" json:"text,omitempty"`
	PostedAt    time.Time `gorm:"not null;index" db:"posted_at" json:"postedAt"`
	HasMedia    bool      `gorm:"not null;default:false" db:"has_media" json:"hasMedia"`
	IsDuplicate bool      `gorm:"not null;default:false" db:"is_duplicate" json:"isDuplicate"`
	IsForwarded bool      `gorm:"not null;default:false" db:"is_forwarded" json:"isForwarded"`

	DuplicateChannelID *int64 `db:"duplicate_channel_id" json:"duplicateChannelId,omitempty"`
	DuplicateMessageID *int64 `db:"duplicate_message_id" json:"duplicateMessageId,omitempty"`
	ForwardChannelID   *int64 `db:"forward_channel_id" json:"forwardChannelId,omitempty"`
	ForwardMessageID   *int64 `db:"forward_message_id" json:"forwardMessageId,omitempty"`

	TextHash  *string   `gorm:"size:32;index" db:"text_hash" json:"textHash,omitempty"`
	GroupID   *int64    `gorm:"index" db:"group_id" json:"groupId,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" db:"created_at" json:"createdAt"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// Image is a downloaded and compressed photo. Identity is the
// platform-assigned file ID, which deduplicates shared photos globally.
type Image struct {
	FileID         string    `gorm:"primaryKey;size:64" db:"file_id" json:"fileId"`
	ChannelID      int64     `gorm:"not null;index:idx_images_owner" db:"channel_id" json:"channelId"`
	MessageID      int64     `gorm:"not null;index:idx_images_owner" db:"message_id" json:"messageId"`
	Path           string    `gorm:"not null;type:text" db:"path" json:"path"`
	OriginalSize   int64     `gorm:"not null;default:0" db:"original_size" json:"originalSize"`
	CompressedSize int64     `gorm:"not null;default:0" db:"compressed_size" json:"compressedSize"`
	Width          int       `gorm:"not null;default:0" db:"width" json:"width"`
	Height         int       `gorm:"not null;default:0" db:"height" json:"height"`
	CreatedAt      time.Time `gorm:"autoCreateTime" db:"created_at" json:"createdAt"`
}

// TableName returns the table name for Image
func (Image) TableName() string {
	return "images"
}

// MessageRef identifies a persisted message.
type MessageRef struct {
	ChannelID int64
	MessageID int64
}
