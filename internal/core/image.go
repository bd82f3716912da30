// Core image data structure shared by the algorithms and the boundary
package core

import (
	"fmt"
)

// Supported channel counts
const (
	ChannelsLuma = 1
	ChannelsRGB  = 3
	ChannelsRGBA = 4
)

// DefaultMaxDimension bounds width and height of images accepted from callers
const DefaultMaxDimension = 16384

// Image is a row-major, channel-interleaved 8-bit image.
// len(Pix) always equals Width*Height*Channels.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// NewImage wraps pix as an image, taking ownership of the slice.
// A zero width or height is representable; algorithms reject it with ErrEmptyImage.
func NewImage(width, height, channels int, pix []byte) (Image, error) {
	if width < 0 || height < 0 {
		return Image{}, fmt.Errorf("invalid image dimensions %dx%d: %w", width, height, ErrBufferSize)
	}
	if !SupportedChannels(channels) {
		return Image{}, fmt.Errorf("%d channels: %w", channels, ErrUnsupportedFormat)
	}
	expected := width * height * channels
	if len(pix) != expected {
		return Image{}, fmt.Errorf("buffer holds %d bytes, %dx%dx%d needs %d: %w",
			len(pix), width, height, channels, expected, ErrBufferSize)
	}
	return Image{Width: width, Height: height, Channels: channels, Pix: pix}, nil
}

// NewBlank allocates a zeroed image
func NewBlank(width, height, channels int) Image {
	return Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]byte, width*height*channels),
	}
}

// IsEmpty reports whether the image has no pixels
func (img Image) IsEmpty() bool {
	return img.Width == 0 || img.Height == 0
}

// PixelCount returns Width*Height
func (img Image) PixelCount() int {
	return img.Width * img.Height
}

// Clone returns a deep copy
func (img Image) Clone() Image {
	pix := make([]byte, len(img.Pix))
	copy(pix, img.Pix)
	img.Pix = pix
	return img
}

// SupportedChannels reports whether channels is 1, 3 or 4
func SupportedChannels(channels int) bool {
	return channels == ChannelsLuma || channels == ChannelsRGB || channels == ChannelsRGBA
}

// BufferLen computes width*height*channels without overflowing int.
// ok is false when the product does not fit or any factor is negative.
func BufferLen(width, height, channels uint64) (n int, ok bool) {
	if width == 0 || height == 0 || channels == 0 {
		return 0, true
	}
	const maxInt = uint64(^uint(0) >> 1)
	if width > maxInt/height {
		return 0, false
	}
	wh := width * height
	if wh > maxInt/channels {
		return 0, false
	}
	return int(wh * channels), true
}

// ValidateImage checks dimensions and channel count against a size limit
func ValidateImage(width, height, channels, maxDimension int) error {
	if !SupportedChannels(channels) {
		return fmt.Errorf("unsupported channel count %d (supported: 1 grayscale, 3 RGB, 4 RGBA): %w",
			channels, ErrUnsupportedFormat)
	}
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if width > maxDimension || height > maxDimension {
		return fmt.Errorf("image too large: %dx%d (max: %d): %w", width, height, maxDimension, ErrImageTooLarge)
	}
	return nil
}
