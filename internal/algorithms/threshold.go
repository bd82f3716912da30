package algorithms

import (
	"fmt"

	"github.com/lingtianyulong/img-proc/internal/core"
)

// Binary output levels
const (
	Background uint8 = 0
	Foreground uint8 = 255
)

// Threshold binarizes a grayscale image using the default runner
func Threshold(gray core.Image, t uint8) (core.Image, error) {
	return Default().Threshold(gray, t)
}

// Threshold maps every byte p of a 1-channel image to 255 if p > t, else 0.
// The result is a new image; gray is not modified.
func (r *Runner) Threshold(gray core.Image, t uint8) (core.Image, error) {
	if gray.IsEmpty() {
		return core.Image{}, core.ErrEmptyImage
	}
	if gray.Channels != core.ChannelsLuma {
		return core.Image{}, fmt.Errorf("threshold of %d channels: %w", gray.Channels, core.ErrUnsupportedFormat)
	}

	out := core.NewBlank(gray.Width, gray.Height, core.ChannelsLuma)
	r.forBytes(len(gray.Pix), func(start, end int) {
		src := gray.Pix[start:end]
		dst := out.Pix[start:end]
		for i, p := range src {
			if p > t {
				dst[i] = Foreground
			} else {
				dst[i] = Background
			}
		}
	})
	return out, nil
}
