package telegram

import (
	"sort"
	"time"

	"github.com/gotd/td/tg"

	"github.com/yourusername/telegram-news-collector/internal/domain"
)

// mapMessage projects a raw MTProto message onto the pipeline's post
// shape. All optional-field access is fallible and degrades to absent
// values, never to errors.
func mapMessage(msg *tg.Message) domain.Post {
	post := domain.Post{
		ID:   int64(msg.ID),
		Text: msg.Message,
		Date: time.Unix(int64(msg.Date), 0).UTC(),
	}

	if groupedID, ok := msg.GetGroupedID(); ok {
		post.GroupID = groupedID
	}

	if msg.Media != nil {
		if photo := photoRef(msg.Media); photo != nil {
			post.Photo = photo
		} else if !isWebPreview(msg.Media) {
			post.HasOtherMedia = true
		}
	}

	if fwd, ok := msg.GetFwdFrom(); ok {
		post.Forwarded = true
		post.ForwardOrigin = forwardOrigin(&fwd)
	}

	return post
}

// photoRef extracts a downloadable photo reference from message media,
// or nil when the media is not a proper photo.
func photoRef(media tg.MessageMediaClass) *domain.PhotoRef {
	mediaPhoto, ok := media.(*tg.MessageMediaPhoto)
	if !ok {
		return nil
	}

	photoClass, ok := mediaPhoto.GetPhoto()
	if !ok {
		return nil
	}

	photo, ok := photoClass.(*tg.Photo)
	if !ok {
		return nil
	}

	return &domain.PhotoRef{
		FileID:        photo.ID,
		AccessHash:    photo.AccessHash,
		FileReference: photo.FileReference,
		ThumbType:     largestSizeType(photo.Sizes),
	}
}

// largestSizeType returns the type letter of the largest photo size.
func largestSizeType(sizes []tg.PhotoSizeClass) string {
	bestType := ""
	bestArea := -1

	for _, size := range sizes {
		var typ string
		var area int
		switch s := size.(type) {
		case *tg.PhotoSize:
			typ, area = s.Type, s.W*s.H
		case *tg.PhotoSizeProgressive:
			typ, area = s.Type, s.W*s.H
		default:
			continue
		}
		if area > bestArea {
			bestType, bestArea = typ, area
		}
	}

	return bestType
}

// forwardOrigin is a best-effort projection of a forward header onto the
// originating channel post. Returns nil when nothing useful is exposed.
func forwardOrigin(fwd *tg.MessageFwdHeader) *domain.ForwardOrigin {
	origin := domain.ForwardOrigin{}

	if fromID, ok := fwd.GetFromID(); ok {
		if peer, ok := fromID.(*tg.PeerChannel); ok {
			origin.ChannelID = peer.ChannelID
		}
	}

	if channelPost, ok := fwd.GetChannelPost(); ok {
		origin.MessageID = int64(channelPost)
	}

	if origin.ChannelID == 0 && origin.MessageID == 0 {
		return nil
	}
	return &origin
}

// isWebPreview reports whether the media is only a link preview, which
// the pipeline treats as plain text rather than attached media.
func isWebPreview(media tg.MessageMediaClass) bool {
	_, ok := media.(*tg.MessageMediaWebPage)
	return ok
}

// sortAscending orders a history page oldest first by message ID.
func sortAscending(msgs []*tg.Message) {
	sort.Slice(msgs, func(i, j int) bool {
		return msgs[i].ID < msgs[j].ID
	})
}
