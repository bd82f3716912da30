//go:build !nogocv

package imageio

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/lingtianyulong/img-proc/internal/core"
)

// GocvCodec decodes and encodes with OpenCV. OpenCV keeps color images
// in BGR order; pixels are swapped to RGB at the edges.
type GocvCodec struct{}

func NewGocvCodec() *GocvCodec {
	return &GocvCodec{}
}

func (c *GocvCodec) Name() string {
	return "gocv"
}

func (c *GocvCodec) Decode(filepath string) (core.Image, error) {
	mat := gocv.IMRead(filepath, gocv.IMReadAnyColor)
	defer mat.Close()

	if mat.Empty() {
		return core.Image{}, fmt.Errorf("opencv could not decode %s", filepath)
	}

	channels := mat.Channels()
	rgb := gocv.NewMat()
	defer rgb.Close()

	switch channels {
	case core.ChannelsLuma:
		mat.CopyTo(&rgb)
	case core.ChannelsRGB:
		if err := gocv.CvtColor(mat, &rgb, gocv.ColorBGRToRGB); err != nil {
			return core.Image{}, err
		}
	case core.ChannelsRGBA:
		if err := gocv.CvtColor(mat, &rgb, gocv.ColorBGRAToRGBA); err != nil {
			return core.Image{}, err
		}
	default:
		return core.Image{}, fmt.Errorf("%d channels: %w", channels, core.ErrUnsupportedFormat)
	}

	return core.NewImage(rgb.Cols(), rgb.Rows(), channels, rgb.ToBytes())
}

func (c *GocvCodec) Encode(filepath string, img core.Image) error {
	matType, code, err := matLayout(img.Channels)
	if err != nil {
		return err
	}

	mat, err := gocv.NewMatFromBytes(img.Height, img.Width, matType, img.Pix)
	if err != nil {
		return err
	}
	defer mat.Close()

	out := mat
	if img.Channels != core.ChannelsLuma {
		bgr := gocv.NewMat()
		defer bgr.Close()
		if err := gocv.CvtColor(mat, &bgr, code); err != nil {
			return err
		}
		out = bgr
	}

	if !gocv.IMWrite(filepath, out) {
		return fmt.Errorf("opencv could not encode %s", filepath)
	}
	return nil
}

func matLayout(channels int) (gocv.MatType, gocv.ColorConversionCode, error) {
	switch channels {
	case core.ChannelsLuma:
		return gocv.MatTypeCV8UC1, 0, nil
	case core.ChannelsRGB:
		return gocv.MatTypeCV8UC3, gocv.ColorRGBToBGR, nil
	case core.ChannelsRGBA:
		return gocv.MatTypeCV8UC4, gocv.ColorRGBAToBGRA, nil
	default:
		return 0, 0, fmt.Errorf("%d channels: %w", channels, core.ErrUnsupportedFormat)
	}
}
