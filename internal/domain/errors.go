package domain

import "errors"

var (
	// ErrNotConnected is returned when a Telegram operation is attempted
	// before the client is connected.
	ErrNotConnected = errors.New("telegram client is not connected")

	// ErrAuthenticationFailed is returned when the stored session is
	// missing or rejected by Telegram.
	ErrAuthenticationFailed = errors.New("telegram authentication failed")

	// ErrInvalidChannel is returned for channel handles that cannot be
	// resolved.
	ErrInvalidChannel = errors.New("invalid channel identifier")

	// ErrPhotoUnavailable is returned when a photo's bytes cannot be
	// fetched from Telegram.
	ErrPhotoUnavailable = errors.New("photo is unavailable")
)
