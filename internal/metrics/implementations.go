// Concrete implementations of the output metrics
package metrics

import (
	"fmt"
	"math"

	"github.com/lingtianyulong/img-proc/internal/core"
)

func sameShape(a, b core.Image) error {
	if a.IsEmpty() || b.IsEmpty() {
		return fmt.Errorf("empty images")
	}
	if a.Width != b.Width || a.Height != b.Height || a.Channels != b.Channels {
		return fmt.Errorf("image dimensions mismatch: %dx%dx%d vs %dx%dx%d",
			a.Width, a.Height, a.Channels, b.Width, b.Height, b.Channels)
	}
	return nil
}

// MSE implements mean squared error over all bytes
type MSE struct{}

func NewMSE() *MSE {
	return &MSE{}
}

func (m *MSE) Calculate(reference, processed core.Image) (float64, error) {
	if err := sameShape(reference, processed); err != nil {
		return 0, err
	}
	return meanSquaredError(reference.Pix, processed.Pix), nil
}

func (m *MSE) GetName() string {
	return "MSE"
}

func (m *MSE) GetRange() (float64, float64) {
	return 0, 255 * 255
}

func (m *MSE) IsHigherBetter() bool {
	return false
}

func meanSquaredError(a, b []byte) float64 {
	sum := 0.0
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return sum / float64(len(a))
}

// PSNR implements Peak Signal-to-Noise Ratio
type PSNR struct{}

func NewPSNR() *PSNR {
	return &PSNR{}
}

func (p *PSNR) Calculate(reference, processed core.Image) (float64, error) {
	if err := sameShape(reference, processed); err != nil {
		return 0, err
	}

	mse := meanSquaredError(reference.Pix, processed.Pix)
	if mse == 0 {
		return math.Inf(1), nil // Perfect match
	}

	maxVal := 255.0
	return 20 * math.Log10(maxVal/math.Sqrt(mse)), nil
}

func (p *PSNR) GetName() string {
	return "PSNR"
}

func (p *PSNR) GetRange() (float64, float64) {
	return 0, 100
}

func (p *PSNR) IsHigherBetter() bool {
	return true
}

// ForegroundRatio is the share of 255 pixels in a binarized image.
// The reference only has to match in size.
type ForegroundRatio struct{}

func NewForegroundRatio() *ForegroundRatio {
	return &ForegroundRatio{}
}

func (f *ForegroundRatio) Calculate(reference, processed core.Image) (float64, error) {
	if processed.IsEmpty() {
		return 0, fmt.Errorf("empty images")
	}
	if processed.Channels != core.ChannelsLuma {
		return 0, fmt.Errorf("foreground ratio needs a single channel image, got %d", processed.Channels)
	}
	if reference.Width != processed.Width || reference.Height != processed.Height {
		return 0, fmt.Errorf("image dimensions mismatch")
	}

	foreground := 0
	for _, p := range processed.Pix {
		if p == 255 {
			foreground++
		}
	}
	return float64(foreground) / float64(len(processed.Pix)), nil
}

func (f *ForegroundRatio) GetName() string {
	return "Foreground Ratio"
}

func (f *ForegroundRatio) GetRange() (float64, float64) {
	return 0, 1
}

func (f *ForegroundRatio) IsHigherBetter() bool {
	return false
}
