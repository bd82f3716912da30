package algorithms

import (
	"fmt"
	"math"

	"github.com/lingtianyulong/img-proc/internal/core"
)

// RGBToHSV converts 8-bit RGB to hue in degrees [0,360) and
// saturation/value in [0,1].
func RGBToHSV(r, g, b uint8) (h, s, v float32) {
	rf := float32(r) / 255
	gf := float32(g) / 255
	bf := float32(b) / 255

	maxC := max(rf, gf, bf)
	minC := min(rf, gf, bf)
	delta := maxC - minC

	switch {
	case delta == 0:
		h = 0
	case maxC == rf:
		h = 60 * remEuclid((gf-bf)/delta, 6)
	case maxC == gf:
		h = 60 * ((bf-rf)/delta + 2)
	default:
		h = 60 * ((rf-gf)/delta + 4)
	}

	if maxC != 0 {
		s = delta / maxC
	}
	v = maxC
	return h, s, v
}

// remEuclid is the non-negative remainder of x / m
func remEuclid(x, m float32) float32 {
	r := float32(math.Mod(float64(x), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

// PackHSV scales h from [0,360) and s, v from [0,1] to bytes, truncating
func PackHSV(h, s, v float32) (uint8, uint8, uint8) {
	return uint8(h / 360 * 255), uint8(s * 255), uint8(v * 255)
}

// ToHSV converts a 3 or 4 channel image using the default runner
func ToHSV(img core.Image) (core.Image, error) {
	return Default().ToHSV(img)
}

// ToHSV converts a 3 or 4 channel image to a packed 3-channel HSV image.
// Pixel i is written to bytes [i*3, i*3+3) of the output only.
func (r *Runner) ToHSV(img core.Image) (core.Image, error) {
	if img.IsEmpty() {
		return core.Image{}, core.ErrEmptyImage
	}
	if img.Channels != core.ChannelsRGB && img.Channels != core.ChannelsRGBA {
		return core.Image{}, fmt.Errorf("hsv of %d channels: %w", img.Channels, core.ErrUnsupportedFormat)
	}

	out := core.NewBlank(img.Width, img.Height, core.ChannelsRGB)
	stride := img.Channels
	r.forRange(img.PixelCount(), func(start, end int) {
		for i := start; i < end; i++ {
			src := img.Pix[i*stride : i*stride+3]
			dst := out.Pix[i*3 : i*3+3]
			dst[0], dst[1], dst[2] = PackHSV(RGBToHSV(src[0], src[1], src[2]))
		}
	})
	return out, nil
}
