package imageio

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/lingtianyulong/img-proc/internal/core"
)

// ImagingCodec decodes and encodes with the pure Go imaging package
type ImagingCodec struct{}

func NewImagingCodec() *ImagingCodec {
	return &ImagingCodec{}
}

func (c *ImagingCodec) Name() string {
	return "imaging"
}

func (c *ImagingCodec) Decode(filepath string) (core.Image, error) {
	src, err := imaging.Open(filepath, imaging.AutoOrientation(true))
	if err != nil {
		return core.Image{}, err
	}
	return FromGoImage(src), nil
}

func (c *ImagingCodec) Encode(filepath string, img core.Image) error {
	dst, err := ToGoImage(img)
	if err != nil {
		return err
	}
	return imaging.Save(dst, filepath, imaging.JPEGQuality(95))
}

// FromGoImage converts to 1 channel for gray sources, 3 for opaque and 4 otherwise
func FromGoImage(src image.Image) core.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	if gray, ok := src.(*image.Gray); ok {
		out := core.NewBlank(w, h, core.ChannelsLuma)
		for y := 0; y < h; y++ {
			copy(out.Pix[y*w:(y+1)*w], gray.Pix[y*gray.Stride:y*gray.Stride+w])
		}
		return out
	}

	nrgba := imaging.Clone(src)
	channels := core.ChannelsRGBA
	if isOpaque(src) {
		channels = core.ChannelsRGB
	}

	out := core.NewBlank(w, h, channels)
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		for x := 0; x < w; x++ {
			copy(out.Pix[(y*w+x)*channels:(y*w+x+1)*channels], row[x*4:x*4+channels])
		}
	}
	return out
}

func isOpaque(src image.Image) bool {
	if o, ok := src.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// ToGoImage wraps a core image as *image.Gray or *image.NRGBA
func ToGoImage(img core.Image) (image.Image, error) {
	if _, err := core.NewImage(img.Width, img.Height, img.Channels, img.Pix); err != nil {
		return nil, err
	}
	rect := image.Rect(0, 0, img.Width, img.Height)

	switch img.Channels {
	case core.ChannelsLuma:
		gray := image.NewGray(rect)
		copy(gray.Pix, img.Pix)
		return gray, nil
	case core.ChannelsRGB:
		dst := image.NewNRGBA(rect)
		for i := 0; i < img.PixelCount(); i++ {
			dst.Pix[i*4] = img.Pix[i*3]
			dst.Pix[i*4+1] = img.Pix[i*3+1]
			dst.Pix[i*4+2] = img.Pix[i*3+2]
			dst.Pix[i*4+3] = color.Opaque.A
		}
		return dst, nil
	default:
		dst := image.NewNRGBA(rect)
		copy(dst.Pix, img.Pix)
		return dst, nil
	}
}
