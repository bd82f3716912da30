// Image file loading and saving at the raw pixel layout used by the core
package imageio

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lingtianyulong/img-proc/internal/core"
)

// Codec decodes files into raw row-major, channel-interleaved pixels and back
type Codec interface {
	Name() string
	Decode(filepath string) (core.Image, error)
	Encode(filepath string, img core.Image) error
}

// CodecByName returns "imaging" (pure Go) or "gocv" (OpenCV)
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "imaging":
		return NewImagingCodec(), nil
	case "gocv", "opencv":
		return NewGocvCodec(), nil
	default:
		return nil, fmt.Errorf("unknown codec: %s", name)
	}
}

// ImageLoader handles image file operations
type ImageLoader struct {
	logger logrus.FieldLogger
	codec  Codec
}

func NewImageLoader(logger logrus.FieldLogger, codec Codec) *ImageLoader {
	return &ImageLoader{
		logger: logger,
		codec:  codec,
	}
}

func (il *ImageLoader) LoadImage(filepath string) (core.Image, error) {
	il.logger.WithField("filepath", filepath).Debug("Loading image")

	if !il.isSupportedImageFormat(filepath, false) {
		return core.Image{}, fmt.Errorf("unsupported image format: %s (supported: %s)", filepath, strings.Join(il.GetSupportedFormats(), ", "))
	}

	img, err := il.codec.Decode(filepath)
	if err != nil {
		return core.Image{}, fmt.Errorf("failed to load image %s: %w", filepath, err)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": filepath,
		"codec":    il.codec.Name(),
		"width":    img.Width,
		"height":   img.Height,
		"channels": img.Channels,
	}).Info("Image loaded successfully")

	return img, nil
}

func (il *ImageLoader) SaveImage(img core.Image, filepath string) error {
	il.logger.WithField("filepath", filepath).Debug("Saving image")

	if img.IsEmpty() {
		return fmt.Errorf("cannot save empty image")
	}

	if !il.isSupportedImageFormat(filepath, true) {
		return fmt.Errorf("unsupported image format: %s (supported: %s)", filepath, strings.Join(il.GetSupportedFormats(), ", "))
	}

	if err := il.codec.Encode(filepath, img); err != nil {
		return fmt.Errorf("failed to save image %s: %w", filepath, err)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": filepath,
		"width":    img.Width,
		"height":   img.Height,
		"channels": img.Channels,
	}).Info("Image saved successfully")

	return nil
}

// webp is decode-only
func (il *ImageLoader) isSupportedImageFormat(filepath string, write bool) bool {
	ext := strings.ToLower(getFileExtension(filepath))
	supportedFormats := []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}
	if !write {
		supportedFormats = append(supportedFormats, ".webp")
	}

	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}

	return false
}

func getFileExtension(filepath string) string {
	for i := len(filepath) - 1; i >= 0; i-- {
		if filepath[i] == '.' {
			return filepath[i:]
		}
		if filepath[i] == '/' || filepath[i] == '\\' {
			break
		}
	}
	return ""
}

func (il *ImageLoader) GetSupportedFormats() []string {
	return []string{"JPEG", "PNG", "TIFF", "BMP", "WebP (read only)"}
}
