package algorithms

import (
	"fmt"

	"github.com/lingtianyulong/img-proc/internal/core"
)

// sRGB luma weights scaled by lumaDiv
const (
	lumaR   = 2126
	lumaG   = 7152
	lumaB   = 722
	lumaDiv = 10000
)

// Luma returns the 8-bit luma of an RGB triple
func Luma(r, g, b uint8) uint8 {
	return uint8((lumaR*uint32(r) + lumaG*uint32(g) + lumaB*uint32(b)) / lumaDiv)
}

// Grayscale converts a 1, 3 or 4 channel image to a new 1-channel image.
// Alpha is ignored; a 1-channel input is copied.
func Grayscale(img core.Image) (core.Image, error) {
	if img.IsEmpty() {
		return core.Image{}, core.ErrEmptyImage
	}

	out := core.NewBlank(img.Width, img.Height, core.ChannelsLuma)
	switch img.Channels {
	case core.ChannelsLuma:
		copy(out.Pix, img.Pix)
	case core.ChannelsRGB, core.ChannelsRGBA:
		stride := img.Channels
		for i := range out.Pix {
			p := img.Pix[i*stride : i*stride+3]
			out.Pix[i] = Luma(p[0], p[1], p[2])
		}
	default:
		return core.Image{}, fmt.Errorf("grayscale of %d channels: %w", img.Channels, core.ErrUnsupportedFormat)
	}
	return out, nil
}
