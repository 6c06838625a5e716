package errors

import "errors"

var (
	// ErrChannelNotFound is returned when a channel row does not exist
	ErrChannelNotFound = errors.New("channel not found")

	// ErrMessageNotFound is returned when a message row does not exist
	ErrMessageNotFound = errors.New("message not found")
)
