// Processing context owning one decoded image
package processing

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lingtianyulong/img-proc/internal/algorithms"
	"github.com/lingtianyulong/img-proc/internal/core"
)

// Context exclusively owns one image for its whole lifetime.
//
// The image is set at construction and never replaced or written to;
// every operation returns a freshly allocated result. Validation is lazy:
// each operation checks IsEmpty before running, so construction never fails.
//
// A Context is not safe for concurrent use. Callers keep at most one
// operation in flight per context.
type Context struct {
	img    core.Image
	runner *algorithms.Runner
	logger logrus.FieldLogger
}

// Option configures a Context
type Option func(*Context)

// WithRunner sets the worker pool used by the parallel algorithms
func WithRunner(runner *algorithms.Runner) Option {
	return func(c *Context) {
		c.runner = runner
	}
}

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

// NewContext takes ownership of img. The caller must not modify img.Pix afterwards.
func NewContext(img core.Image, opts ...Option) *Context {
	c := &Context{img: img}
	for _, opt := range opts {
		opt(c)
	}
	if c.runner == nil {
		c.runner = algorithms.Default()
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	return c
}

// IsEmpty reports whether the owned image has zero width or height
func (c *Context) IsEmpty() bool {
	return c.img.IsEmpty()
}

// Image returns a read-only view of the owned image.
// The view shares pixel memory with the context and must not be written to.
func (c *Context) Image() core.Image {
	return c.img
}

// ToGray converts the owned image to a new 1-channel image
func (c *Context) ToGray() (core.Image, error) {
	if c.IsEmpty() {
		return core.Image{}, core.ErrEmptyImage
	}
	gray, err := algorithms.Grayscale(c.img)
	if err != nil {
		return core.Image{}, fmt.Errorf("to gray: %w", err)
	}
	c.logger.WithFields(logrus.Fields{
		"width":    gray.Width,
		"height":   gray.Height,
		"channels": c.img.Channels,
	}).Debug("Converted to grayscale")
	return gray, nil
}

// ToHSV converts the owned 3 or 4 channel image to packed HSV
func (c *Context) ToHSV() (core.Image, error) {
	if c.IsEmpty() {
		return core.Image{}, core.ErrEmptyImage
	}
	hsv, err := c.runner.ToHSV(c.img)
	if err != nil {
		return core.Image{}, fmt.Errorf("to hsv: %w", err)
	}
	c.logger.WithFields(logrus.Fields{
		"width":  hsv.Width,
		"height": hsv.Height,
	}).Debug("Converted to HSV")
	return hsv, nil
}

// Threshold binarizes a caller-supplied grayscale image.
// The context guard (owned image non-empty) is checked first, then the
// operand itself must be non-empty and single channel; its own
// dimensions are used for the result.
func (c *Context) Threshold(gray core.Image, t uint8) (core.Image, error) {
	if c.IsEmpty() {
		return core.Image{}, core.ErrEmptyImage
	}
	binary, err := c.runner.Threshold(gray, t)
	if err != nil {
		return core.Image{}, fmt.Errorf("threshold: %w", err)
	}
	c.logger.WithFields(logrus.Fields{
		"width":     binary.Width,
		"height":    binary.Height,
		"threshold": t,
	}).Debug("Applied threshold")
	return binary, nil
}

// ThresholdSelf binarizes the grayscale rendition of the owned image
func (c *Context) ThresholdSelf(t uint8) (core.Image, error) {
	gray, err := c.ToGray()
	if err != nil {
		return core.Image{}, err
	}
	return c.Threshold(gray, t)
}
