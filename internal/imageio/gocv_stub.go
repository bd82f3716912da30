//go:build nogocv

package imageio

import (
	"errors"

	"github.com/lingtianyulong/img-proc/internal/core"
)

var errNoOpenCV = errors.New("built with nogocv: OpenCV codec unavailable")

// GocvCodec is unavailable in nogocv builds
type GocvCodec struct{}

func NewGocvCodec() *GocvCodec {
	return &GocvCodec{}
}

func (c *GocvCodec) Name() string {
	return "gocv"
}

func (c *GocvCodec) Decode(filepath string) (core.Image, error) {
	return core.Image{}, errNoOpenCV
}

func (c *GocvCodec) Encode(filepath string, img core.Image) error {
	return errNoOpenCV
}
