package core

import "errors"

var (
	// ErrEmptyImage is returned when width or height is zero
	ErrEmptyImage = errors.New("image is empty")
	// ErrUnsupportedFormat is returned for a channel count the operation cannot handle
	ErrUnsupportedFormat = errors.New("unsupported color type")
	// ErrBufferSize is returned when a pixel buffer does not match its dimensions
	ErrBufferSize = errors.New("buffer size does not match dimensions")
	// ErrImageTooLarge is returned when a dimension exceeds the configured maximum
	ErrImageTooLarge = errors.New("image exceeds maximum dimension")
)
